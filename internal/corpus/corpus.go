package corpus

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/jonathan/faq-assistant/internal/schemas"
	"github.com/jonathan/faq-assistant/internal/types"
	schemadocs "github.com/jonathan/faq-assistant/schemas"
)

// DefaultPath is where the scrape command writes the corpus when no path is given.
const DefaultPath = "faq_data.json"

// Parse validates data against the corpus schema and decodes it.
// Unknown fields are rejected.
func Parse(data []byte) (*types.FAQCorpus, error) {
	if err := schemas.ValidateJSONString(schemadocs.FAQCorpus, string(data)); err != nil {
		return nil, &ParseError{
			Message: "corpus does not match schema",
			Cause:   err,
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var corpus types.FAQCorpus
	if err := dec.Decode(&corpus); err != nil {
		return nil, &ParseError{
			Message: "failed to decode corpus",
			Cause:   err,
		}
	}

	return &corpus, nil
}

// ReadFile loads and strictly parses the corpus at path
func ReadFile(path string) (*types.FAQCorpus, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{
			Path:    path,
			Message: "failed to read file",
			Cause:   err,
		}
	}

	corpus, err := Parse(content)
	if err != nil {
		if parseErr, ok := err.(*ParseError); ok {
			parseErr.Path = path
		}
		return nil, err
	}
	return corpus, nil
}

// Write encodes corpus as 4-space indented JSON without HTML escaping.
func Write(w io.Writer, corpus *types.FAQCorpus) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	return enc.Encode(withEmptySlices(corpus))
}

// WriteFile replaces the file at path with the encoded corpus.
// The document is written to a sibling temp file first so readers never see a partial corpus.
func WriteFile(path string, corpus *types.FAQCorpus) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".faq_corpus-*.json")
	if err != nil {
		return &WriteError{Path: path, Message: "failed to create temp file", Cause: err}
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := Write(tmp, corpus); err != nil {
		_ = tmp.Close()
		return &WriteError{Path: path, Message: "failed to encode corpus", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return &WriteError{Path: path, Message: "failed to close temp file", Cause: err}
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return &WriteError{Path: path, Message: "failed to set permissions", Cause: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &WriteError{Path: path, Message: "failed to replace corpus", Cause: err}
	}
	return nil
}

// withEmptySlices returns a copy whose nil slices encode as [] so the output satisfies the schema.
func withEmptySlices(corpus *types.FAQCorpus) *types.FAQCorpus {
	out := &types.FAQCorpus{Collections: []types.Collection{}}
	if corpus == nil {
		return out
	}
	for _, col := range corpus.Collections {
		c := types.Collection{Title: col.Title, Articles: make([]types.Article, 0, len(col.Articles))}
		for _, a := range col.Articles {
			if a.Images == nil {
				a.Images = []types.ImageRef{}
			}
			if a.TableOfContents == nil {
				a.TableOfContents = []string{}
			}
			if a.Sections == nil {
				a.Sections = []types.Section{}
			}
			c.Articles = append(c.Articles, a)
		}
		out.Collections = append(out.Collections, c)
	}
	return out
}
