package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/faq-assistant/internal/config"
	"github.com/jonathan/faq-assistant/internal/crawling"
	"github.com/jonathan/faq-assistant/internal/db"
	"github.com/jonathan/faq-assistant/internal/fetch"
	"github.com/jonathan/faq-assistant/internal/llm"
	"github.com/jonathan/faq-assistant/internal/pipeline"
)

// cliFlags holds every flag value; each command registers the subset it accepts.
type cliFlags struct {
	configPath  string
	verbose     bool
	apiKey      string
	databaseURL string

	rootURL    string
	corpusPath string
	delayMS    int
	failFast   bool
	useBrowser bool

	commitMode string
	port       int
	k          int
}

var flags cliFlags

func addGlobalFlags(cmd *cobra.Command, f *cliFlags) {
	cmd.PersistentFlags().StringVar(&f.configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	cmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "Print detailed debug information")
}

func addCredentialFlags(cmd *cobra.Command, f *cliFlags) {
	// Both default to the GEMINI_API_KEY and DATABASE_URL env vars
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	cmd.Flags().StringVar(&f.databaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
}

func addScrapeFlags(cmd *cobra.Command, f *cliFlags) {
	cmd.Flags().StringVar(&f.rootURL, "root-url", config.DefaultRootURL, "Help-center listing page to walk")
	cmd.Flags().IntVar(&f.delayMS, "delay", config.DefaultArticleDelayMS, "Milliseconds to wait between article fetches")
	cmd.Flags().BoolVar(&f.failFast, "fail-fast", false, "Abort on the first collection or article fetch failure")
	cmd.Flags().BoolVar(&f.useBrowser, "browser", false, "Render pages with headless Chrome (requires Chrome)")
}

func addCorpusFlag(cmd *cobra.Command, f *cliFlags, name, usage string) {
	cmd.Flags().StringVar(&f.corpusPath, name, config.DefaultCorpusPath, usage)
}

func addCommitFlag(cmd *cobra.Command, f *cliFlags) {
	cmd.Flags().StringVar(&f.commitMode, "commit", config.DefaultCommitMode, "Commit mode: batch (one transaction) or record (one per entry)")
}

// resolveConfig loads defaults, the config file and the environment, then applies
// the flags that were explicitly set on cmd.
func resolveConfig(cmd *cobra.Command, f *cliFlags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	fs := cmd.Flags()
	if fs.Changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if fs.Changed("api-key") {
		cfg.APIKey = f.apiKey
	}
	if fs.Changed("db-url") {
		cfg.DatabaseURL = f.databaseURL
	}
	if fs.Changed("root-url") {
		cfg.RootURL = f.rootURL
	}
	if fs.Changed("out") || fs.Changed("corpus") {
		cfg.CorpusPath = f.corpusPath
	}
	if fs.Changed("delay") {
		cfg.ArticleDelayMS = f.delayMS
	}
	if fs.Changed("fail-fast") {
		cfg.FailFast = f.failFast
	}
	if fs.Changed("browser") {
		cfg.UseBrowser = f.useBrowser
	}
	if fs.Changed("commit") {
		cfg.CommitMode = f.commitMode
	}
	if fs.Changed("port") {
		cfg.Port = f.port
	}
	if fs.Changed("k") {
		cfg.SearchLimit = f.k
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newFetcher returns the page fetcher selected by the config
func newFetcher(cfg *config.Config, logger *zap.Logger) crawling.PageFetcher {
	if cfg.UseBrowser {
		return fetch.NewBrowserFetcher(fetch.DefaultTimeout, logger)
	}
	return fetch.NewFetcher(nil)
}

func walkerOptions(cfg *config.Config, logger *zap.Logger) crawling.WalkerOptions {
	opts := crawling.DefaultWalkerOptions()
	opts.Delay = cfg.ArticleDelay()
	opts.FailFast = cfg.FailFast
	opts.Logger = logger
	return opts
}

// openStore connects to the index and makes sure its schema exists
func openStore(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

func newEmbedder(ctx context.Context, cfg *config.Config) (*llm.GeminiEmbedder, error) {
	embedder, err := llm.NewGeminiEmbedder(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}

// logProgress forwards pipeline progress to the logger
func logProgress(logger *zap.Logger) pipeline.ProgressCallback {
	return func(event pipeline.ProgressEvent) {
		logger.Info(event.Message,
			zap.String("step", event.Step),
			zap.String("category", event.Category),
			zap.String("run_id", event.RunID),
		)
	}
}
