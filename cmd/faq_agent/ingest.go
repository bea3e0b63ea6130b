package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/faq-assistant/internal/corpus"
	"github.com/jonathan/faq-assistant/internal/ingestion"
	"github.com/jonathan/faq-assistant/internal/logging"
	"github.com/jonathan/faq-assistant/internal/observability"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load the FAQ corpus into the vector index",
	Long: `Reads and strictly validates the corpus, then inserts every question not already
indexed together with its embedding. Re-running on the same corpus inserts nothing.

Requires GEMINI_API_KEY and DATABASE_URL (or --api-key and --db-url).`,
	RunE: runIngest,
}

func init() {
	addCorpusFlag(ingestCmd, &flags, "corpus", "Path to the corpus JSON")
	addCommitFlag(ingestCmd, &flags)
	addCredentialFlags(ingestCmd, &flags)
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := resolveConfig(cmd, &flags)
	if err != nil {
		return err
	}
	if err := cfg.RequireStore(); err != nil {
		return err
	}
	mode, err := ingestion.ParseCommitMode(cfg.CommitMode)
	if err != nil {
		return err
	}

	faq, err := corpus.ReadFile(cfg.CorpusPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	database, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	embedder, err := newEmbedder(ctx, cfg)
	if err != nil {
		return err
	}

	loader := ingestion.NewLoader(database, embedder, ingestion.LoaderOptions{CommitMode: mode, Logger: logger})
	report, err := loader.LoadCorpus(ctx, faq)
	if report != nil {
		observability.NewPrinter(cmd.OutOrStdout()).PrintLoadReport(report)
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return nil
}
