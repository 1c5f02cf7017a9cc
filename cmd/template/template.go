// Package template implements the template command: variable analysis of
// handlebars prompt templates.
package template

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/docfold/docfold/internal/cmdutil"
	"github.com/docfold/docfold/internal/prompt"
)

// TemplateCmd analyzes a prompt template's variable references.
var TemplateCmd = &cobra.Command{
	Use:   "template <file>",
	Short: "Analyze a prompt template's variables",
	Long: "Template parses a handlebars prompt template and reports the variables it " +
		"references, plus whether it draws on retrieved documents (docs*) or chat " +
		"history (history*).",
	Example: `  docfold template rag-prompt.hbs`,
	Args:    cobra.ExactArgs(1),
	PreRunE: validateTemplate,
	RunE:    runTemplate,
}

func validateTemplate(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	return nil
}

func runTemplate(cmd *cobra.Command, args []string) error {
	srcPath, err := cmdutil.ResolvePath(args[0])
	if err != nil {
		return fmt.Errorf("resolve template path; %w", err)
	}
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("read template file; %w", err)
	}

	info, err := prompt.Parse(string(data))
	if err != nil {
		return err
	}
	slog.Info("analyzed template",
		"file", args[0], "variables", len(info.Variables),
		"uses_docs", info.UsesDocs, "uses_history", info.UsesHistory)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}
