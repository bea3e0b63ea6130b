package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Embedder turns text into a fixed-width vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// contentEmbedder is satisfied by *genai.Models
type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// GeminiEmbedder implements Embedder with the Gemini embedding API
type GeminiEmbedder struct {
	models     contentEmbedder
	model      string
	dimensions int
}

// NewGeminiEmbedder creates an embedder for the configured embedding model
func NewGeminiEmbedder(ctx context.Context, config *Config, apiKey string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultConfig()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini embedding client: %w", err)
	}

	return newGeminiEmbedder(client.Models, config.GetEmbeddingModel(), EmbeddingDimensions), nil
}

func newGeminiEmbedder(models contentEmbedder, model string, dimensions int) *GeminiEmbedder {
	return &GeminiEmbedder{models: models, model: model, dimensions: dimensions}
}

// Dimensions returns the vector width every successful Embed call produces
func (e *GeminiEmbedder) Dimensions() int {
	return e.dimensions
}

// Embed returns the embedding of text. An empty response or a vector of the
// wrong width is reported as an *EmbeddingError.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &EmbeddingError{Model: e.model, Message: "empty input text"}
	}

	dims := int32(e.dimensions)
	resp, err := e.models.EmbedContent(ctx, e.model, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, &EmbeddingError{Model: e.model, Message: "request failed", Cause: err}
	}

	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, &EmbeddingError{Model: e.model, Message: "response contained no embeddings"}
	}

	values := resp.Embeddings[0].Values
	if len(values) == 0 {
		return nil, &EmbeddingError{Model: e.model, Message: "embedding is empty"}
	}
	if len(values) != e.dimensions {
		return nil, &EmbeddingError{
			Model:   e.model,
			Message: fmt.Sprintf("embedding has %d dimensions, want %d", len(values), e.dimensions),
		}
	}

	return values, nil
}
