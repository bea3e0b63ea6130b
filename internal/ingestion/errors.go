package ingestion

import "fmt"

// LoadError represents a store failure that aborted a load pass
type LoadError struct {
	Question string
	Message  string
	Cause    error
}

func (e *LoadError) Error() string {
	if e.Question != "" {
		return fmt.Sprintf("load error: %s (question %q): %v", e.Message, e.Question, e.Cause)
	}
	return fmt.Sprintf("load error: %s: %v", e.Message, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
