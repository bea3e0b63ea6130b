// Package observability provides formatted summaries for CLI output.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/faq-assistant/internal/crawling"
	"github.com/jonathan/faq-assistant/internal/db"
	"github.com/jonathan/faq-assistant/internal/ingestion"
	"github.com/jonathan/faq-assistant/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most width runes, marking the cut with "..."
func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}

// PrintWalkSummary outputs what a scrape run collected and which pages failed.
func (p *Printer) PrintWalkSummary(corpus *types.FAQCorpus, stats *crawling.WalkStats, outPath string) {
	if stats == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Collections: %d\n", stats.Collections))
	sb.WriteString(fmt.Sprintf("Articles:    %d\n", stats.Articles))
	if corpus != nil {
		answered := 0
		for _, col := range corpus.Collections {
			for i := range col.Articles {
				if col.Articles[i].HasAnswer() {
					answered++
				}
			}
		}
		sb.WriteString(fmt.Sprintf("Answered:    %d\n", answered))
	}
	if outPath != "" {
		sb.WriteString(fmt.Sprintf("Written to:  %s\n", outPath))
	}

	if len(stats.Failures) > 0 {
		sb.WriteString(fmt.Sprintf("\nFailed pages: %d collections, %d articles\n",
			stats.FailedCollections, stats.FailedArticles))
		count := min(len(stats.Failures), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", stats.Failures[i].URL))
		}
		if len(stats.Failures) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(stats.Failures)-maxItemsToShow))
		}
	}

	p.printBox("SCRAPE SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCorpus outputs the collections of a corpus with their article counts.
func (p *Printer) PrintCorpus(corpus *types.FAQCorpus) {
	if corpus == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Collections: %d, articles: %d\n\n", len(corpus.Collections), corpus.ArticleCount()))
	for _, col := range corpus.Collections {
		sb.WriteString(fmt.Sprintf("  • %s (%d)\n", types.CategoryFor(col.Title), len(col.Articles)))
	}

	p.printBox("FAQ CORPUS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintLoadReport outputs the outcome counts of a load pass and the records that failed.
func (p *Printer) PrintLoadReport(report *ingestion.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:         %s\n", report.RunID))
	sb.WriteString(fmt.Sprintf("Commit mode: %s\n", report.CommitMode))
	sb.WriteString(fmt.Sprintf("Records:     %d\n", report.Total))
	sb.WriteString(fmt.Sprintf("Result:      %s\n", report.Summary()))
	if report.Skipped() > 0 {
		sb.WriteString(fmt.Sprintf("  duplicates: %d, empty fields: %d\n", report.Duplicates, report.EmptyFields))
	}

	var failed []string
	for _, o := range report.Outcomes {
		if o.Outcome == ingestion.OutcomeSkippedEmbeddingFailed {
			failed = append(failed, o.Question)
		}
	}
	if len(failed) > 0 {
		sb.WriteString("\nEmbedding failures:\n")
		count := min(len(failed), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", failed[i]))
		}
		if len(failed) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(failed)-maxItemsToShow))
		}
	}

	p.printBox("INGESTION REPORT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSearchResults outputs the nearest entries for a query with their similarity.
func (p *Printer) PrintSearchResults(query string, results []db.ScoredEntry) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Query: %s\n\n", query))

	if len(results) == 0 {
		sb.WriteString("No matching entries\n")
	}
	for i, r := range results {
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, r.Question))
		sb.WriteString(fmt.Sprintf("    Similarity: %.3f  Category: %s\n", r.Similarity, r.Category))
		sb.WriteString(fmt.Sprintf("    %s\n", r.Answer))
		if i < len(results)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("SEARCH RESULTS", strings.TrimSuffix(sb.String(), "\n"))
}
