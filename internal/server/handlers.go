package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jonathan/faq-assistant/internal/db"
	"github.com/jonathan/faq-assistant/internal/llm"
)

// ChatMessage is one turn of the conversation sent by the widget
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required"`
}

// ChatRequest is the body of POST /api/chat. The last message is the question.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,dive"`
}

// SearchResponse is the body returned by GET /faq/search
type SearchResponse struct {
	Query   string           `json:"query"`
	Results []db.ScoredEntry `json:"results"`
}

// handleSearch returns the k entries nearest to q
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.errorResponse(w, http.StatusBadRequest, "q is required")
		return
	}

	k := s.searchLimit
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > MaxSearchLimit {
			s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("k must be an integer between 1 and %d", MaxSearchLimit))
			return
		}
		k = parsed
	}

	results, err := s.retrieve(r, query, k)
	if err != nil {
		s.logger.Error("search failed", zap.String("query", query), zap.Error(err))
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, SearchResponse{Query: query, Results: results})
}

// handleChat answers the last message from retrieved FAQ entries, streamed as SSE
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, describeValidationError(err).Error())
		return
	}

	query := strings.TrimSpace(req.Messages[len(req.Messages)-1].Content)
	if query == "" {
		err := &ErrValidation{Field: "messages", Message: "last message is empty"}
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := s.retrieve(r, query, s.searchLimit)
	if err != nil {
		s.logger.Error("retrieval failed", zap.String("query", query), zap.Error(err))
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	passages := make([]llm.Passage, 0, len(entries))
	for _, entry := range entries {
		passages = append(passages, llm.Passage{
			Question: entry.Question,
			Answer:   entry.Answer,
			Category: entry.Category,
		})
	}
	prompt := s.prompt.Build(query, passages)

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	var response strings.Builder
	err = s.generator.StreamContent(r.Context(), prompt, llm.TierLite, func(chunk string) error {
		response.WriteString(chunk)
		return sse.WriteChunk(chunk)
	})
	if err != nil {
		s.logger.Error("answer generation failed", zap.String("query", query), zap.Error(err))
		sse.WriteError("failed to generate answer")
		return
	}

	interaction := s.interactions.Record(query, response.String())
	sse.WriteComplete(interaction.ID.String(), interaction.Solved)
}

// handleLogs serves the interaction log file
func (s *Server) handleLogs(w http.ResponseWriter, _ *http.Request) {
	data, err := os.ReadFile(s.interactions.Path())
	if errors.Is(err, fs.ErrNotExist) {
		s.errorResponse(w, http.StatusNotFound, "no interactions have been logged")
		return
	}
	if err != nil {
		s.logger.Error("failed to read interaction log", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to read interaction log")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="interactions.log"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("failed to write interaction log response", zap.Error(err))
	}
}

// retrieve embeds query and returns its k nearest entries
func (s *Server) retrieve(r *http.Request, query string, k int) ([]db.ScoredEntry, error) {
	embedding, err := s.embedder.Embed(r.Context(), query)
	if err != nil {
		return nil, err
	}

	entries, err := s.searcher.SearchSimilar(r.Context(), embedding, k)
	if err != nil {
		return nil, &ErrUpstream{Stage: "search", Cause: err}
	}
	if entries == nil {
		entries = []db.ScoredEntry{}
	}
	return entries, nil
}

// describeValidationError converts the first validator failure to an ErrValidation
func describeValidationError(err error) *ErrValidation {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ErrValidation{Field: "body", Message: err.Error()}
	}

	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return &ErrValidation{Field: field, Message: "is required"}
	case "min":
		return &ErrValidation{Field: field, Message: fmt.Sprintf("must contain at least %s item(s)", fe.Param())}
	case "oneof":
		return &ErrValidation{Field: field, Message: fmt.Sprintf("must be one of: %s", fe.Param())}
	default:
		return &ErrValidation{Field: field, Message: fmt.Sprintf("failed %s validation", fe.Tag())}
	}
}
