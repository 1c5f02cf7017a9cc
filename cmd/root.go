// Package cmd wires the docfold command tree.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	extractcmd "github.com/docfold/docfold/cmd/extract"
	scancmd "github.com/docfold/docfold/cmd/scan"
	splitcmd "github.com/docfold/docfold/cmd/split"
	templatecmd "github.com/docfold/docfold/cmd/template"
	versioncmd "github.com/docfold/docfold/cmd/version"
	"github.com/docfold/docfold/internal/config"
	"github.com/docfold/docfold/internal/logging"
)

var docfoldCmd = &cobra.Command{
	Use:   "docfold",
	Short: "Token-aware document ingestion and chunking",
	Long: "Docfold extracts text from heterogeneous sources (PDFs, web pages, chat-export " +
		"archives, plain text) and folds it into token-budgeted chunks for downstream " +
		"retrieval use. It also provides a regex-driven metadata scanner and a prompt " +
		"template analyzer over the same text model.",
	PersistentPreRunE: runInitialize,
}

func runInitialize(cmd *cobra.Command, args []string) error {
	if err := config.Init(); err != nil {
		return err
	}

	cfg := config.Get()
	level, ok := logging.ParseLevel(cfg.LogLevel)
	if !ok {
		level = logging.DefaultLevel
	}
	slog.SetDefault(logging.Setup(level, cfg.LogFile))
	return nil
}

func init() {
	docfoldCmd.AddCommand(extractcmd.ExtractCmd)
	docfoldCmd.AddCommand(splitcmd.SplitCmd)
	docfoldCmd.AddCommand(scancmd.ScanCmd)
	docfoldCmd.AddCommand(templatecmd.TemplateCmd)
	docfoldCmd.AddCommand(versioncmd.VersionCmd)
}

// Execute runs the root command.
func Execute() error {
	docfoldCmd.SilenceErrors = true
	docfoldCmd.SilenceUsage = true

	err := docfoldCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}
