package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/faq-assistant/internal/corpus"
	"github.com/jonathan/faq-assistant/internal/observability"
)

var validateCorpusCmd = &cobra.Command{
	Use:   "validate-corpus",
	Short: "Strictly parse a corpus file and report errors",
	Long:  "Validates a corpus file against the FAQ corpus schema and rejects unknown fields.",
	RunE:  runValidateCorpus,
}

func init() {
	addCorpusFlag(validateCorpusCmd, &flags, "corpus", "Path to the corpus JSON")
	rootCmd.AddCommand(validateCorpusCmd)
}

func runValidateCorpus(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd, &flags)
	if err != nil {
		return err
	}
	return validateCorpusFile(cfg.CorpusPath, cmd.OutOrStdout())
}

// validateCorpusFile prints the outcome of parsing path to out
//
//nolint:errcheck // writing to stdout
func validateCorpusFile(path string, out io.Writer) error {
	faq, err := corpus.ReadFile(path)
	if err != nil {
		fmt.Fprintf(out, "Validation failed: %s\n", path)
		return err
	}

	fmt.Fprintf(out, "Validation passed: %s\n", path)
	observability.NewPrinter(out).PrintCorpus(faq)
	return nil
}
