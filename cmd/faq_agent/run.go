package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/faq-assistant/internal/ingestion"
	"github.com/jonathan/faq-assistant/internal/logging"
	"github.com/jonathan/faq-assistant/internal/observability"
	"github.com/jonathan/faq-assistant/internal/pipeline"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Scrape the help center and index the fresh corpus",
	Long: `Runs scrape then ingest in one go: the corpus file is replaced and every new
question is embedded and inserted.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runPipelineCmd,
}

func init() {
	addScrapeFlags(runCommand, &flags)
	addCorpusFlag(runCommand, &flags, "corpus", "Path to write the corpus JSON")
	addCommitFlag(runCommand, &flags)
	addCredentialFlags(runCommand, &flags)
	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := resolveConfig(cmd, &flags)
	if err != nil {
		return err
	}
	// Credentials are checked before the walk so a long scrape never ends in a startup error
	if err := cfg.RequireStore(); err != nil {
		return err
	}
	mode, err := ingestion.ParseCommitMode(cfg.CommitMode)
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

	result, err := pipeline.Run(ctx, pipeline.RunOptions{
		RootURL:    cfg.RootURL,
		CorpusPath: cfg.CorpusPath,
		Fetcher:    newFetcher(cfg, logger),
		Walker:     walkerOptions(cfg, logger),
		Loader:     ingestion.NewLoader(database, embedder, ingestion.LoaderOptions{CommitMode: mode, Logger: logger}),
		OnProgress: logProgress(logger),
	})

	printer := observability.NewPrinter(cmd.OutOrStdout())
	if result != nil && result.Corpus != nil {
		printer.PrintWalkSummary(result.Corpus, result.WalkStats, cfg.CorpusPath)
	}
	if result != nil && result.Report != nil {
		printer.PrintLoadReport(result.Report)
	}
	return err
}
