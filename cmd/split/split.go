// Package split implements the split command: sliding-window chunking of
// plain text in token units.
package split

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/docfold/docfold/internal/cmdutil"
	"github.com/docfold/docfold/internal/config"
	"github.com/docfold/docfold/internal/extract"
)

// Flag variables for the split command.
var (
	splitModel   string
	splitSize    int
	splitOverlap int
)

// SplitCmd splits a plain-text file into overlapping token windows.
var SplitCmd = &cobra.Command{
	Use:   "split <file>",
	Short: "Split plain text into token windows",
	Long: "Split partitions a text file into a deterministic sliding window over its " +
		"token stream. Window width and overlap are measured in tokens of the " +
		"configured model's encoding.",
	Example: `  # Default 256-token windows with 20-token overlap
  docfold split notes.txt

  # Disjoint windows
  docfold split notes.txt --chunk-overlap 0`,
	Args:    cobra.ExactArgs(1),
	PreRunE: validateSplit,
	RunE:    runSplit,
}

func init() {
	SplitCmd.Flags().StringVar(&splitModel, "model", "",
		"Tokenizer model (default: from config)")
	SplitCmd.Flags().IntVar(&splitSize, "chunk-size", 0,
		"Window width in tokens (default: from config)")
	SplitCmd.Flags().IntVar(&splitOverlap, "chunk-overlap", -1,
		"Window overlap in tokens (default: from config)")
}

func validateSplit(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	return nil
}

func runSplit(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	srcPath, err := cmdutil.ResolvePath(args[0])
	if err != nil {
		return fmt.Errorf("resolve text path; %w", err)
	}
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("read text file; %w", err)
	}

	opts := extract.SplitOptions{
		Model:        cfg.Tokenizer.Model,
		ChunkSize:    cfg.Chunking.SplitSize,
		ChunkOverlap: cfg.Chunking.SplitOverlap,
	}
	if splitModel != "" {
		opts.Model = splitModel
	}
	if splitSize > 0 {
		opts.ChunkSize = splitSize
	}
	if splitOverlap >= 0 {
		opts.ChunkOverlap = splitOverlap
	}

	chunks, err := extract.SplitText(string(data), opts)
	if err != nil {
		return err
	}
	slog.Info("split text", "file", args[0], "chunks", len(chunks))

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(chunks)
}
