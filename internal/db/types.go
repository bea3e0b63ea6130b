package db

import (
	"context"
	"errors"
	"time"
)

// EmbeddingDimensions is the fixed width of the embedding column
const EmbeddingDimensions = 768

// ErrInvalidEntry is returned when an entry would violate the index invariants
var ErrInvalidEntry = errors.New("invalid faq entry")

// FAQEntry represents a persisted question/answer pair with its embedding
type FAQEntry struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Category  string    `json:"category"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// FAQEntryInput contains the fields for inserting a new entry
type FAQEntryInput struct {
	Question  string
	Answer    string
	Category  string
	Embedding []float32
}

// ScoredEntry is an entry returned by a similarity search
type ScoredEntry struct {
	FAQEntry
	Similarity float64 `json:"similarity"`
}

// FAQStore is the per-record surface used by the index loader.
// Both *DB and *Tx implement it.
type FAQStore interface {
	// LookupQuestion reports whether an entry with exactly this question text exists.
	LookupQuestion(ctx context.Context, question string) (id int64, found bool, err error)
	InsertEntry(ctx context.Context, input *FAQEntryInput) (int64, error)
}

var (
	_ FAQStore = (*DB)(nil)
	_ FAQStore = (*Tx)(nil)
)
