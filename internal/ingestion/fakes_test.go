package ingestion

import (
	"context"
	"errors"
	"sync"

	"github.com/jonathan/faq-assistant/internal/db"
	"github.com/jonathan/faq-assistant/internal/llm"
)

type memRow struct {
	id        int64
	question  string
	answer    string
	category  string
	embedding []float32
}

// memStore is an in-memory Transactor whose transactions stage rows until commit
type memStore struct {
	mu        sync.Mutex
	rows      []memRow
	nextID    int64
	txCount   int
	lookupErr error
	// insertErrAt fails the n-th insert attempt (1-based) across the store's lifetime
	insertErrAt int
	inserts     int
}

type memTx struct {
	store  *memStore
	staged []memRow
}

func (m *memStore) InTx(_ context.Context, fn func(db.FAQStore) error) error {
	m.mu.Lock()
	m.txCount++
	m.mu.Unlock()

	tx := &memTx{store: m}
	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, tx.staged...)
	return nil
}

func (m *memStore) questionRows(question string) []memRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []memRow
	for _, r := range m.rows {
		if r.question == question {
			out = append(out, r)
		}
	}
	return out
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (t *memTx) LookupQuestion(_ context.Context, question string) (int64, bool, error) {
	if t.store.lookupErr != nil {
		return 0, false, t.store.lookupErr
	}
	for _, r := range t.staged {
		if r.question == question {
			return r.id, true, nil
		}
	}
	if rows := t.store.questionRows(question); len(rows) > 0 {
		return rows[0].id, true, nil
	}
	return 0, false, nil
}

func (t *memTx) InsertEntry(_ context.Context, input *db.FAQEntryInput) (int64, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	t.store.inserts++
	if t.store.insertErrAt > 0 && t.store.inserts == t.store.insertErrAt {
		return 0, errors.New("connection reset")
	}

	t.store.nextID++
	t.staged = append(t.staged, memRow{
		id:        t.store.nextID,
		question:  input.Question,
		answer:    input.Answer,
		category:  input.Category,
		embedding: input.Embedding,
	})
	return t.store.nextID, nil
}

// fakeEmbedder returns a constant 768-wide vector unless the key is listed in fail
type fakeEmbedder struct {
	mu   sync.Mutex
	fail map[string]bool
	keys []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, text)
	if f.fail[text] {
		return nil, &llm.EmbeddingError{Model: "fake", Message: "response contained no embeddings"}
	}
	v := make([]float32, db.EmbeddingDimensions)
	for i := range v {
		v[i] = 0.01
	}
	return v, nil
}

func (f *fakeEmbedder) Dimensions() int {
	return db.EmbeddingDimensions
}
