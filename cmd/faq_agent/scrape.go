package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/faq-assistant/internal/logging"
	"github.com/jonathan/faq-assistant/internal/observability"
	"github.com/jonathan/faq-assistant/internal/pipeline"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Walk the help center and write the FAQ corpus",
	Long: `Fetches the root listing, every collection and every article in order, extracts
question, answer, sections, table of contents and images, and replaces the corpus file.
Neither an API key nor a database is needed.`,
	RunE: runScrape,
}

func init() {
	addScrapeFlags(scrapeCmd, &flags)
	addCorpusFlag(scrapeCmd, &flags, "out", "Path to write the corpus JSON")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd, &flags)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	result, err := pipeline.Run(cmd.Context(), pipeline.RunOptions{
		RootURL:    cfg.RootURL,
		CorpusPath: cfg.CorpusPath,
		Fetcher:    newFetcher(cfg, logger),
		Walker:     walkerOptions(cfg, logger),
		OnProgress: logProgress(logger),
	})
	if err != nil {
		return err
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintWalkSummary(result.Corpus, result.WalkStats, cfg.CorpusPath)
	return nil
}
