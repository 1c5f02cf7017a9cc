package main

import (
	"os"

	"github.com/docfold/docfold/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
