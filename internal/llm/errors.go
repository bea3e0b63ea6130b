package llm

import (
	"errors"
	"fmt"
)

// ErrNoEmbedding is matched by every embedding failure
var ErrNoEmbedding = errors.New("no embedding produced")

// EmbeddingError represents a failure to obtain a usable embedding for a text
type EmbeddingError struct {
	Model   string
	Message string
	Cause   error
}

func (e *EmbeddingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("embedding error (%s): %s: %v", e.Model, e.Message, e.Cause)
	}
	return fmt.Sprintf("embedding error (%s): %s", e.Model, e.Message)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Cause
}

// Is reports ErrNoEmbedding so callers can match any embedding failure.
func (e *EmbeddingError) Is(target error) bool {
	return target == ErrNoEmbedding
}
