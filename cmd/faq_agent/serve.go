package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/faq-assistant/internal/config"
	"github.com/jonathan/faq-assistant/internal/llm"
	"github.com/jonathan/faq-assistant/internal/logging"
	"github.com/jonathan/faq-assistant/internal/server"
	"github.com/jonathan/faq-assistant/internal/server/ratelimit"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Start an HTTP server exposing similarity search, streamed chat answers and the interaction log.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&flags.port, "port", config.DefaultPort, "Port to listen on")
	addCredentialFlags(serveCmd, &flags)
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := resolveConfig(cmd, &flags)
	if err != nil {
		return err
	}
	if err := cfg.RequireStore(); err != nil {
		return err
	}

	logger, err := logging.NewServer(cfg.Verbose)
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

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer client.Close() //nolint:errcheck

	rateLimit := ratelimit.DefaultConfig()
	rateLimit.Rate = cfg.ChatRatePerSecond
	rateLimit.Burst = cfg.ChatBurst

	srv, err := server.New(server.Config{
		Port:               cfg.Port,
		SearchLimit:        cfg.SearchLimit,
		InteractionLogPath: cfg.InteractionLogPath,
		RateLimit:          rateLimit,
	}, server.Deps{
		Searcher:  database,
		Embedder:  embedder,
		Generator: client,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Run(ctx)
}
