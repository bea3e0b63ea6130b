package ingestion

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Outcome is the terminal state of one record in a load pass
type Outcome string

// Record outcomes
const (
	OutcomeInserted               Outcome = "inserted"
	OutcomeSkippedDuplicate       Outcome = "skipped_duplicate"
	OutcomeSkippedEmptyField      Outcome = "skipped_empty_field"
	OutcomeSkippedEmbeddingFailed Outcome = "skipped_embedding_failed"
	// OutcomeRolledBack marks an insert undone because its batch transaction failed
	OutcomeRolledBack Outcome = "rolled_back"
)

// RecordOutcome describes what happened to one record
type RecordOutcome struct {
	Question string  `json:"question"`
	Category string  `json:"category"`
	Outcome  Outcome `json:"outcome"`
	EntryID  int64   `json:"entry_id,omitempty"`
	Reason   string  `json:"reason,omitempty"`
}

// Report summarizes a load pass
type Report struct {
	RunID       uuid.UUID       `json:"run_id"`
	CommitMode  CommitMode      `json:"commit_mode"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at"`
	Total       int             `json:"total"`
	Inserted    int             `json:"inserted"`
	Duplicates  int             `json:"duplicates"`
	EmptyFields int             `json:"empty_fields"`
	Failed      int             `json:"failed"`
	RolledBack  bool            `json:"rolled_back"`
	Outcomes    []RecordOutcome `json:"outcomes"`
}

func newReport(mode CommitMode, total int) *Report {
	return &Report{
		RunID:      uuid.New(),
		CommitMode: mode,
		StartedAt:  time.Now(),
		Total:      total,
		Outcomes:   make([]RecordOutcome, 0, total),
	}
}

func (r *Report) add(outcome RecordOutcome) {
	switch outcome.Outcome {
	case OutcomeInserted:
		r.Inserted++
	case OutcomeSkippedDuplicate:
		r.Duplicates++
	case OutcomeSkippedEmptyField:
		r.EmptyFields++
	case OutcomeSkippedEmbeddingFailed:
		r.Failed++
	}
	r.Outcomes = append(r.Outcomes, outcome)
}

// rollBack reclassifies every insert of the pass after its transaction was undone
func (r *Report) rollBack() {
	r.RolledBack = true
	for i := range r.Outcomes {
		if r.Outcomes[i].Outcome == OutcomeInserted {
			r.Outcomes[i].Outcome = OutcomeRolledBack
			r.Outcomes[i].EntryID = 0
		}
	}
	r.Inserted = 0
}

func (r *Report) finish() {
	r.CompletedAt = time.Now()
}

// Skipped returns the number of records skipped as duplicates or for empty fields
func (r *Report) Skipped() int {
	return r.Duplicates + r.EmptyFields
}

// Processed returns the number of records that reached a terminal state
func (r *Report) Processed() int {
	return len(r.Outcomes)
}

// Duration returns how long the pass took
func (r *Report) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Summary returns the one-line "N inserted, M skipped, K failed" form
func (r *Report) Summary() string {
	s := fmt.Sprintf("%d inserted, %d skipped, %d failed", r.Inserted, r.Skipped(), r.Failed)
	if r.RolledBack {
		s += " (rolled back)"
	}
	return s
}
