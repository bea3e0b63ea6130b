// Package ingestion normalizes scraped FAQ records and loads them into the vector index.
package ingestion

import (
	"regexp"
	"strings"
)

// nonWordRe matches every rune that is neither a word character nor whitespace.
// Word characters are Unicode letters, digits and the underscore.
var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}_\s\p{Z}]`)

// PreprocessQuestion derives the embedding key of a question: lowercase, punctuation
// removed, surrounding whitespace trimmed. Stored text is never preprocessed.
func PreprocessQuestion(s string) string {
	s = strings.ToLower(s)
	s = nonWordRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
