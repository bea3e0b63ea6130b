// Package crawling walks a help-center site and extracts structured FAQ articles from its pages.
package crawling

import "fmt"

// CrawlError represents a failure that aborts a walk
type CrawlError struct {
	URL     string
	Message string
	Cause   error
}

func (e *CrawlError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("crawl error: %s (%s): %v", e.Message, e.URL, e.Cause)
	}
	return fmt.Sprintf("crawl error: %s (%s)", e.Message, e.URL)
}

func (e *CrawlError) Unwrap() error {
	return e.Cause
}

// LinkExtractionError represents a failure in extracting links from a listing page
type LinkExtractionError struct {
	Message string
	Cause   error
}

func (e *LinkExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("link extraction error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("link extraction error: %s", e.Message)
}

func (e *LinkExtractionError) Unwrap() error {
	return e.Cause
}
