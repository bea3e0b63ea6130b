// Package server provides the HTTP API for the FAQ assistant.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/faq-assistant/internal/db"
	"github.com/jonathan/faq-assistant/internal/llm"
	"github.com/jonathan/faq-assistant/internal/logging"
	"github.com/jonathan/faq-assistant/internal/server/ratelimit"
)

// Searcher finds the FAQ entries nearest to a query embedding. *db.DB implements it.
type Searcher interface {
	SearchSimilar(ctx context.Context, embedding []float32, k int) ([]db.ScoredEntry, error)
}

// Generator streams an answer for a prompt. llm.Client implements it.
type Generator interface {
	StreamContent(ctx context.Context, prompt string, tier llm.ModelTier, onChunk func(string) error) error
}

// Server represents the HTTP server
type Server struct {
	httpServer   *http.Server
	searcher     Searcher
	embedder     llm.Embedder
	generator    Generator
	prompt       llm.AnswerPrompt
	interactions *InteractionLog
	rateLimiter  *ratelimit.Limiter
	validate     *validator.Validate
	searchLimit  int
	logger       *zap.Logger
}

// Config holds server configuration
type Config struct {
	Port               int
	SearchLimit        int
	InteractionLogPath string
	RateLimit          *ratelimit.Config
	Prompt             llm.AnswerPrompt
}

// Deps holds the collaborators the handlers call into
type Deps struct {
	Searcher  Searcher
	Embedder  llm.Embedder
	Generator Generator
	Logger    *zap.Logger
}

// DefaultSearchLimit is the number of entries retrieved per question
const DefaultSearchLimit = 6

// MaxSearchLimit caps the k accepted by the search endpoint
const MaxSearchLimit = 50

const shutdownTimeout = 30 * time.Second

// New creates a new server instance
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Searcher == nil || deps.Embedder == nil || deps.Generator == nil {
		return nil, fmt.Errorf("searcher, embedder and generator are required")
	}

	logger := logging.OrNop(deps.Logger)
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = DefaultSearchLimit
	}
	if cfg.Prompt == (llm.AnswerPrompt{}) {
		cfg.Prompt = llm.DefaultAnswerPrompt()
	}

	s := &Server{
		searcher:     deps.Searcher,
		embedder:     deps.Embedder,
		generator:    deps.Generator,
		prompt:       cfg.Prompt,
		interactions: NewInteractionLog(cfg.InteractionLogPath, logger),
		rateLimiter:  ratelimit.NewLimiter(cfg.RateLimit),
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		searchLimit:  cfg.SearchLimit,
		logger:       logger,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for streamed answers
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /faq/search", s.handleSearch)
	mux.Handle("POST /api/chat", s.withRateLimit(http.HandlerFunc(s.handleChat)))
	mux.HandleFunc("GET /logs", s.handleLogs)

	return s.withLogging(s.withCORS(mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	defer s.rateLimiter.Stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit limits each client to the configured request rate
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r))

		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// extractClientID returns the client IP from RemoteAddr ("IP:port").
// X-Forwarded-For is not trusted.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Round(time.Second).Seconds())
		seconds = max(seconds, 1)
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	s.logger.Info("rate limit exceeded",
		zap.String("client", s.extractClientID(r)),
		zap.String("path", r.URL.Path),
	)

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
