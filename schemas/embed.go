// Package schemas holds the JSON Schema documents for the FAQ assistant's file artifacts.
package schemas

import _ "embed"

// FAQCorpus is the JSON Schema of the scraped corpus file.
//
//go:embed faq_corpus.schema.json
var FAQCorpus string
