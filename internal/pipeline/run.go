// Package pipeline orchestrates a full scrape-then-ingest run.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/faq-assistant/internal/corpus"
	"github.com/jonathan/faq-assistant/internal/crawling"
	"github.com/jonathan/faq-assistant/internal/ingestion"
	"github.com/jonathan/faq-assistant/internal/types"
)

// Steps reported through ProgressEvent
const (
	StepScrape      = "scrape"
	StepWriteCorpus = "write_corpus"
	StepIngest      = "ingest"
)

// Step categories
const (
	CategoryExtraction = "extraction"
	CategoryIndexing   = "indexing"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// CorpusLoader loads a scraped corpus into the index. *ingestion.Loader implements it.
type CorpusLoader interface {
	LoadCorpus(ctx context.Context, c *types.FAQCorpus) (*ingestion.Report, error)
}

// RunOptions holds configuration for running the pipeline
type RunOptions struct {
	RootURL    string
	CorpusPath string
	Fetcher    crawling.PageFetcher
	Walker     crawling.WalkerOptions
	// Loader is optional; without it the run stops after the corpus is written
	Loader     CorpusLoader
	OnProgress ProgressCallback
}

// RunResult holds the outputs of a pipeline run
type RunResult struct {
	RunID     uuid.UUID
	Corpus    *types.FAQCorpus
	WalkStats *crawling.WalkStats
	Report    *ingestion.Report
}

// emitProgress calls the progress callback if configured
func emitProgress(opts *RunOptions, runID uuid.UUID, step, category, message string, content any) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{
			Step:     step,
			Category: category,
			Message:  message,
			RunID:    runID.String(),
			Content:  content,
		})
	}
}

// Run walks the help center at opts.RootURL, replaces the corpus file and,
// when a loader is configured, ingests the fresh corpus.
func Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if opts.RootURL == "" {
		return nil, fmt.Errorf("root URL is required")
	}
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if opts.CorpusPath == "" {
		opts.CorpusPath = corpus.DefaultPath
	}

	result := &RunResult{RunID: uuid.New()}

	// Step 1: Walk the help center
	emitProgress(&opts, result.RunID, StepScrape, CategoryExtraction,
		fmt.Sprintf("Walking %s", opts.RootURL), nil)

	walker := crawling.NewWalker(opts.Fetcher, opts.Walker)
	faq, stats, err := walker.Walk(ctx, opts.RootURL)
	if err != nil {
		return result, fmt.Errorf("scrape failed: %w", err)
	}
	result.Corpus = faq
	result.WalkStats = stats

	emitProgress(&opts, result.RunID, StepScrape, CategoryExtraction,
		fmt.Sprintf("Collected %d articles from %d collections", stats.Articles, stats.Collections), stats)

	// Step 2: Replace the corpus document
	if err := corpus.WriteFile(opts.CorpusPath, faq); err != nil {
		return result, err
	}
	emitProgress(&opts, result.RunID, StepWriteCorpus, CategoryExtraction,
		fmt.Sprintf("Corpus written to %s", opts.CorpusPath), nil)

	if opts.Loader == nil {
		return result, nil
	}

	// Step 3: Index the corpus
	emitProgress(&opts, result.RunID, StepIngest, CategoryIndexing,
		fmt.Sprintf("Indexing %d articles", faq.ArticleCount()), nil)

	report, err := opts.Loader.LoadCorpus(ctx, faq)
	result.Report = report
	if err != nil {
		return result, fmt.Errorf("ingestion failed: %w", err)
	}

	emitProgress(&opts, result.RunID, StepIngest, CategoryIndexing, report.Summary(), report)
	return result, nil
}
