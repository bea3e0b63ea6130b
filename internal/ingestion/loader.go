package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/faq-assistant/internal/corpus"
	"github.com/jonathan/faq-assistant/internal/db"
	"github.com/jonathan/faq-assistant/internal/llm"
	"github.com/jonathan/faq-assistant/internal/logging"
	"github.com/jonathan/faq-assistant/internal/types"
)

// CommitMode controls the transaction scope of a load pass
type CommitMode string

// Commit modes
const (
	// CommitBatch runs the whole pass in one transaction
	CommitBatch CommitMode = "batch"
	// CommitRecord commits each record in its own transaction
	CommitRecord CommitMode = "record"
)

// ParseCommitMode converts a flag value to a CommitMode. Empty selects CommitBatch.
func ParseCommitMode(s string) (CommitMode, error) {
	switch CommitMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", CommitBatch:
		return CommitBatch, nil
	case CommitRecord:
		return CommitRecord, nil
	default:
		return "", fmt.Errorf("unknown commit mode %q (want %s or %s)", s, CommitBatch, CommitRecord)
	}
}

// Transactor opens transaction-scoped stores. *db.DB implements it.
type Transactor interface {
	InTx(ctx context.Context, fn func(db.FAQStore) error) error
}

// LoaderOptions configures a Loader
type LoaderOptions struct {
	CommitMode CommitMode
	Logger     *zap.Logger
}

// Loader embeds normalized FAQ records and inserts the ones not yet indexed
type Loader struct {
	store    Transactor
	embedder llm.Embedder
	mode     CommitMode
	logger   *zap.Logger
}

// NewLoader creates a loader over store and embedder
func NewLoader(store Transactor, embedder llm.Embedder, opts LoaderOptions) *Loader {
	mode := opts.CommitMode
	if mode == "" {
		mode = CommitBatch
	}
	logger := logging.OrNop(opts.Logger)
	return &Loader{store: store, embedder: embedder, mode: mode, logger: logger}
}

// LoadCorpus normalizes corpus and loads its records
func (l *Loader) LoadCorpus(ctx context.Context, c *types.FAQCorpus) (*Report, error) {
	return l.Load(ctx, corpus.Normalize(c))
}

// Load runs one pass over records. The returned report is always non-nil and
// describes the records processed before any abort.
func (l *Loader) Load(ctx context.Context, records []types.FAQRecord) (*Report, error) {
	report := newReport(l.mode, len(records))
	defer report.finish()

	l.logger.Info("starting load pass",
		zap.String("run_id", report.RunID.String()),
		zap.String("commit_mode", string(l.mode)),
		zap.Int("records", len(records)))

	var err error
	switch l.mode {
	case CommitRecord:
		err = l.loadPerRecord(ctx, records, report)
	default:
		err = l.loadBatch(ctx, records, report)
	}
	if err != nil {
		l.logger.Error("load pass aborted",
			zap.String("run_id", report.RunID.String()),
			zap.Bool("rolled_back", report.RolledBack),
			zap.Error(err))
		return report, err
	}

	l.logger.Info("load pass complete",
		zap.String("run_id", report.RunID.String()),
		zap.Int("inserted", report.Inserted),
		zap.Int("skipped", report.Skipped()),
		zap.Int("failed", report.Failed))
	return report, nil
}

func (l *Loader) loadBatch(ctx context.Context, records []types.FAQRecord, report *Report) error {
	err := l.store.InTx(ctx, func(store db.FAQStore) error {
		for _, rec := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := l.loadRecord(ctx, store, rec, report); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		report.rollBack()
	}
	return err
}

func (l *Loader) loadPerRecord(ctx context.Context, records []types.FAQRecord, report *Report) error {
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		before := len(report.Outcomes)
		err := l.store.InTx(ctx, func(store db.FAQStore) error {
			return l.loadRecord(ctx, store, rec, report)
		})
		if err != nil {
			// A failed commit undoes an insert that was already reported
			if len(report.Outcomes) > before && report.Outcomes[before].Outcome == OutcomeInserted {
				report.Outcomes[before].Outcome = OutcomeRolledBack
				report.Outcomes[before].EntryID = 0
				report.Inserted--
			}
			return err
		}
	}
	return nil
}

// loadRecord drives one record to a terminal outcome. Only store failures and
// cancellation are returned as errors.
func (l *Loader) loadRecord(ctx context.Context, store db.FAQStore, rec types.FAQRecord, report *Report) error {
	question := strings.TrimSpace(rec.Question)
	answer := strings.TrimSpace(rec.Answer)
	category := rec.Category
	if strings.TrimSpace(category) == "" {
		category = types.CategoryFor(rec.CollectionTitle)
	}
	outcome := RecordOutcome{Question: question, Category: category}

	if question == "" || answer == "" {
		l.logger.Info("skipping record with empty field",
			zap.String("collection", rec.CollectionTitle),
			zap.String("source_url", rec.SourceURL),
			zap.Bool("empty_question", question == ""),
			zap.Bool("empty_answer", answer == ""))
		outcome.Outcome = OutcomeSkippedEmptyField
		outcome.Reason = "question or answer is empty"
		report.add(outcome)
		return nil
	}

	id, found, err := store.LookupQuestion(ctx, question)
	if err != nil {
		return &LoadError{Question: question, Message: "failed to look up question", Cause: err}
	}
	if found {
		l.logger.Info("skipping existing question", zap.String("question", question), zap.Int64("id", id))
		outcome.Outcome = OutcomeSkippedDuplicate
		outcome.EntryID = id
		report.add(outcome)
		return nil
	}

	embedding, err := l.embedder.Embed(ctx, PreprocessQuestion(question))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		l.logger.Warn("failed to generate embedding for question",
			zap.String("question", question),
			zap.Bool("no_embedding", errors.Is(err, llm.ErrNoEmbedding)),
			zap.Error(err))
		outcome.Outcome = OutcomeSkippedEmbeddingFailed
		outcome.Reason = err.Error()
		report.add(outcome)
		return nil
	}

	id, err = store.InsertEntry(ctx, &db.FAQEntryInput{
		Question:  question,
		Answer:    answer,
		Category:  category,
		Embedding: embedding,
	})
	if err != nil {
		return &LoadError{Question: question, Message: "failed to insert entry", Cause: err}
	}

	l.logger.Debug("inserted faq entry", zap.String("question", question), zap.Int64("id", id))
	outcome.Outcome = OutcomeInserted
	outcome.EntryID = id
	report.add(outcome)
	return nil
}
