// Package corpus reads, writes and normalizes the scraped FAQ corpus document.
package corpus

import "fmt"

// ParseError represents a corpus document that could not be read, validated or decoded
type ParseError struct {
	Path    string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	where := ""
	if e.Path != "" {
		where = " " + e.Path
	}
	if e.Cause != nil {
		return fmt.Sprintf("corpus parse error%s: %s: %v", where, e.Message, e.Cause)
	}
	return fmt.Sprintf("corpus parse error%s: %s", where, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// WriteError represents a failure persisting the corpus document
type WriteError struct {
	Path    string
	Message string
	Cause   error
}

func (e *WriteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("corpus write error %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("corpus write error %s: %s", e.Path, e.Message)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}
