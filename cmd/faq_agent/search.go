package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/faq-assistant/internal/config"
	"github.com/jonathan/faq-assistant/internal/observability"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Print the FAQ entries nearest to a query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&flags.k, "k", config.DefaultSearchLimit, "Number of entries to return")
	addCredentialFlags(searchCmd, &flags)
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("query must not be empty")
	}

	cfg, err := resolveConfig(cmd, &flags)
	if err != nil {
		return err
	}
	if err := cfg.RequireStore(); err != nil {
		return err
	}
	if cfg.SearchLimit < 1 {
		return fmt.Errorf("--k must be at least 1")
	}

	database, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	embedder, err := newEmbedder(ctx, cfg)
	if err != nil {
		return err
	}

	embedding, err := embedder.Embed(ctx, query)
	if err != nil {
		return err
	}

	results, err := database.SearchSimilar(ctx, embedding, cfg.SearchLimit)
	if err != nil {
		return err
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintSearchResults(query, results)
	return nil
}
