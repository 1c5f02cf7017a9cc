// Package extract implements the extract command: run a format extractor
// over a source file and fold the result under the token budget.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docfold/docfold/internal/chunk"
	"github.com/docfold/docfold/internal/cmdutil"
	"github.com/docfold/docfold/internal/config"
	docextract "github.com/docfold/docfold/internal/extract"
)

// Flag variables for the extract command.
var (
	extractSource string
	extractModel  string
	extractTarget int
)

// ExtractCmd extracts and reduces chunks from a document.
var ExtractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract and reduce chunks from a document",
	Long: "Extract turns a source file into an ordered chunk sequence and merges it under " +
		"the configured token budget using the format's combine strategy.\n\n" +
		"The format is selected by extension: .pdf (paginated document), .html/.htm " +
		"(web page), .zip (chat export).",
	Example: `  # Fold a PDF into 256-token chunks
  docfold extract report.pdf

  # Chat export with a larger budget
  docfold extract workspace-export.zip --target-tokens 512`,
	Args:    cobra.ExactArgs(1),
	PreRunE: validateExtract,
	RunE:    runExtract,
}

func init() {
	ExtractCmd.Flags().StringVar(&extractSource, "source", "",
		"Source name recorded in chunk metadata (default: file base name)")
	ExtractCmd.Flags().StringVar(&extractModel, "model", "",
		"Tokenizer model for token budgets (default: from config)")
	ExtractCmd.Flags().IntVar(&extractTarget, "target-tokens", 0,
		"Token budget per emitted chunk (default: from config)")
}

func validateExtract(cmd *cobra.Command, args []string) error {
	if format(args[0]) == "" {
		return fmt.Errorf("unsupported file extension %q; expected .pdf, .html, .htm or .zip",
			filepath.Ext(args[0]))
	}
	cmd.SilenceUsage = true
	return nil
}

// format maps a file name to the extractor it routes to; empty means
// unsupported.
func format(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return "pagedoc"
	case ".html", ".htm":
		return "webpage"
	case ".zip":
		return "chatexport"
	default:
		return ""
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Get()

	srcPath, err := cmdutil.ResolvePath(args[0])
	if err != nil {
		return fmt.Errorf("resolve source path; %w", err)
	}
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("read source file; %w", err)
	}

	opts := chunk.Options{
		Model:        cfg.Tokenizer.Model,
		TargetTokens: cfg.Chunking.TargetTokens,
	}
	if extractModel != "" {
		opts.Model = extractModel
	}
	if extractTarget > 0 {
		opts.TargetTokens = extractTarget
	}

	source := extractSource
	if source == "" {
		source = filepath.Base(args[0])
	}

	var result any
	switch format(args[0]) {
	case "pagedoc":
		pages, err := docextract.ExtractPDF(ctx, data, source)
		if err != nil {
			return err
		}
		reduced, err := chunk.Reduce(pages, docextract.PageStrategy{}, opts)
		if err != nil {
			return err
		}
		slog.Info("extracted paginated document",
			"source", source, "pages", len(pages), "chunks", len(reduced))
		result = reduced
	case "webpage":
		page := docextract.ExtractWebPage(string(data))
		slog.Info("extracted web page", "source", source, "title", page.Metadata.Title)
		result = []chunk.Chunk[docextract.WebMeta]{page}
	case "chatexport":
		messages, err := docextract.ExtractChatExport(data)
		if err != nil {
			return err
		}
		reduced, err := chunk.Reduce(messages, docextract.ChatStrategy{}, opts)
		if err != nil {
			return err
		}
		slog.Info("extracted chat export",
			"source", source, "messages", len(messages), "chunks", len(reduced))
		result = reduced
	}

	return writeJSON(cmd, result)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
