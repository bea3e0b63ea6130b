package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

// schemaStatements are applied in order by EnsureSchema
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS faq_entries (
		id SERIAL PRIMARY KEY,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		category TEXT NOT NULL,
		embedding vector(%d) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`, EmbeddingDimensions),
	`CREATE INDEX IF NOT EXISTS faq_entries_question_idx ON faq_entries (question)`,
}

// EnsureSchema creates the vector extension, the faq_entries table and its question index.
// It is safe to call on every run.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// LookupQuestion reports whether an entry with exactly this question exists
func (db *DB) LookupQuestion(ctx context.Context, question string) (int64, bool, error) {
	return lookupQuestion(ctx, db.pool, question)
}

// InsertEntry inserts a new entry and returns its ID
func (db *DB) InsertEntry(ctx context.Context, input *FAQEntryInput) (int64, error) {
	return insertEntry(ctx, db.pool, input)
}

// LookupQuestion reports whether an entry with exactly this question exists
func (t *Tx) LookupQuestion(ctx context.Context, question string) (int64, bool, error) {
	return lookupQuestion(ctx, t.tx, question)
}

// InsertEntry inserts a new entry inside the transaction and returns its ID
func (t *Tx) InsertEntry(ctx context.Context, input *FAQEntryInput) (int64, error) {
	return insertEntry(ctx, t.tx, input)
}

// SearchSimilar returns the k entries nearest to embedding by cosine distance.
// Similarity is 1 minus the distance.
func (db *DB) SearchSimilar(ctx context.Context, embedding []float32, k int) ([]ScoredEntry, error) {
	if len(embedding) != EmbeddingDimensions {
		return nil, fmt.Errorf("%w: query embedding has %d dimensions, want %d",
			ErrInvalidEntry, len(embedding), EmbeddingDimensions)
	}
	if k <= 0 {
		return []ScoredEntry{}, nil
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, question, answer, category, embedding::text, created_at,
		        1 - (embedding <=> $1::vector) AS similarity
		 FROM faq_entries
		 ORDER BY embedding <=> $1::vector
		 LIMIT $2`,
		pgvector.NewVector(embedding).String(), k,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search faq entries: %w", err)
	}
	defer rows.Close()

	entries := make([]ScoredEntry, 0, k)
	for rows.Next() {
		var e ScoredEntry
		var vectorText string
		if err := rows.Scan(&e.ID, &e.Question, &e.Answer, &e.Category, &vectorText, &e.CreatedAt, &e.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan faq entry: %w", err)
		}
		if e.Embedding, err = parseVector(vectorText); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate faq entries: %w", err)
	}

	return entries, nil
}

// GetEntry retrieves an entry by ID
func (db *DB) GetEntry(ctx context.Context, id int64) (*FAQEntry, error) {
	var e FAQEntry
	var vectorText string
	err := db.pool.QueryRow(ctx,
		`SELECT id, question, answer, category, embedding::text, created_at
		 FROM faq_entries WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Question, &e.Answer, &e.Category, &vectorText, &e.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get faq entry: %w", err)
	}
	if e.Embedding, err = parseVector(vectorText); err != nil {
		return nil, err
	}
	return &e, nil
}

// CountEntries returns the number of stored entries
func (db *DB) CountEntries(ctx context.Context) (int, error) {
	var n int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM faq_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count faq entries: %w", err)
	}
	return n, nil
}

func lookupQuestion(ctx context.Context, q querier, question string) (int64, bool, error) {
	var id int64
	err := q.QueryRow(ctx,
		`SELECT id FROM faq_entries WHERE question = $1 LIMIT 1`,
		question,
	).Scan(&id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to look up question: %w", err)
	}
	return id, true, nil
}

func insertEntry(ctx context.Context, q querier, input *FAQEntryInput) (int64, error) {
	if err := validateInput(input); err != nil {
		return 0, err
	}

	var id int64
	err := q.QueryRow(ctx,
		`INSERT INTO faq_entries (question, answer, category, embedding)
		 VALUES ($1, $2, $3, $4::vector)
		 RETURNING id`,
		input.Question, input.Answer, input.Category, pgvector.NewVector(input.Embedding).String(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert faq entry: %w", err)
	}
	return id, nil
}

func validateInput(input *FAQEntryInput) error {
	if input == nil {
		return fmt.Errorf("%w: nil input", ErrInvalidEntry)
	}
	if strings.TrimSpace(input.Question) == "" {
		return fmt.Errorf("%w: empty question", ErrInvalidEntry)
	}
	if len(input.Embedding) != EmbeddingDimensions {
		return fmt.Errorf("%w: embedding has %d dimensions, want %d",
			ErrInvalidEntry, len(input.Embedding), EmbeddingDimensions)
	}
	return nil
}

// parseVector decodes the text form of a vector column, e.g. "[0.1,0.2]"
func parseVector(s string) ([]float32, error) {
	var v pgvector.Vector
	if err := v.Scan(s); err != nil {
		return nil, fmt.Errorf("failed to parse embedding: %w", err)
	}
	return v.Slice(), nil
}
