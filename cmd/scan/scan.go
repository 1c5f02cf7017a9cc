// Package scan implements the scan command: regex-schema metadata
// extraction from a text file.
package scan

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/docfold/docfold/internal/cmdutil"
	"github.com/docfold/docfold/internal/metascan"
)

// Flag variables for the scan command.
var (
	scanSchemaPath string
)

// ScanCmd scans a text file against a metadata schema.
var ScanCmd = &cobra.Command{
	Use:   "scan <file>",
	Short: "Scan text for schema-declared metadata",
	Long: "Scan applies a metadata schema's scan_regex patterns to a text file and " +
		"prints the typed values found. Properties that do not match are absent " +
		"from the output.",
	Example: `  # Scan an invoice for declared properties
  docfold scan invoice.txt --schema invoice-schema.yaml`,
	Args:    cobra.ExactArgs(1),
	PreRunE: validateScan,
	RunE:    runScan,
}

func init() {
	ScanCmd.Flags().StringVar(&scanSchemaPath, "schema", "",
		"Path to the YAML metadata schema (required)")
	_ = ScanCmd.MarkFlagRequired("schema")
}

func validateScan(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	schemaPath, err := cmdutil.ResolvePath(scanSchemaPath)
	if err != nil {
		return fmt.Errorf("resolve schema path; %w", err)
	}
	schemaData, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("read schema; %w", err)
	}
	schema, err := metascan.LoadSchema(schemaData)
	if err != nil {
		return err
	}

	text, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read text file; %w", err)
	}

	record, err := metascan.Scan(string(text), *schema)
	if err != nil {
		return err
	}
	slog.Info("scanned metadata", "file", args[0], "properties", len(record))

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(record)
}
