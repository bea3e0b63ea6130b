// Package types provides type definitions for structured data used throughout the FAQ assistant.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "strings"

// NoAnswerSentinel is stored as the answer when an article page has no body container.
const NoAnswerSentinel = "No answer found."

// DefaultCategory is used when a collection has no usable title.
const DefaultCategory = "General"

// FAQCorpus is the root document produced by a scrape run.
type FAQCorpus struct {
	Collections []Collection `json:"collections"`
}

// Collection is a top-level help-center grouping of articles.
type Collection struct {
	Title    string    `json:"collection_title"`
	Articles []Article `json:"articles"`
}

// Article is a single scraped FAQ page. URL is its canonical identity.
type Article struct {
	Question        string     `json:"question"`
	Answer          string     `json:"answer"`
	URL             string     `json:"url"`
	Images          []ImageRef `json:"images"`
	TableOfContents []string   `json:"table_of_contents"`
	Sections        []Section  `json:"sections"`
}

// ImageRef is an image embedded in an answer body.
type ImageRef struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// Section is a titled run of paragraphs between two subheadings.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// FAQRecord is the flattened, canonical shape consumed by the index loader.
type FAQRecord struct {
	CollectionTitle string
	Question        string
	Answer          string
	Category        string
	SourceURL       string
}

// CategoryFor returns the category derived from a collection title.
func CategoryFor(collectionTitle string) string {
	if title := strings.TrimSpace(collectionTitle); title != "" {
		return title
	}
	return DefaultCategory
}

// ArticleCount returns the number of articles across all collections.
func (c *FAQCorpus) ArticleCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, col := range c.Collections {
		n += len(col.Articles)
	}
	return n
}

// HasAnswer reports whether the article carries extracted answer text.
func (a *Article) HasAnswer() bool {
	answer := strings.TrimSpace(a.Answer)
	return answer != "" && answer != NoAnswerSentinel
}
