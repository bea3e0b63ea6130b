package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/faq-assistant/internal/db"
	"github.com/jonathan/faq-assistant/internal/llm"
	"github.com/jonathan/faq-assistant/internal/server/ratelimit"
)

type fakeSearcher struct {
	entries []db.ScoredEntry
	err     error
	gotK    int
}

func (f *fakeSearcher) SearchSimilar(_ context.Context, _ []float32, k int) ([]db.ScoredEntry, error) {
	f.gotK = k
	if f.err != nil {
		return nil, f.err
	}
	if len(f.entries) > k {
		return f.entries[:k], nil
	}
	return f.entries, nil
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return make([]float32, llm.EmbeddingDimensions), nil
}

func (f *fakeEmbedder) Dimensions() int {
	return llm.EmbeddingDimensions
}

type fakeGenerator struct {
	chunks    []string
	err       error
	gotPrompt string
}

func (f *fakeGenerator) StreamContent(_ context.Context, prompt string, _ llm.ModelTier, onChunk func(string) error) error {
	f.gotPrompt = prompt
	for _, chunk := range f.chunks {
		if err := onChunk(chunk); err != nil {
			return err
		}
	}
	return f.err
}

type testServer struct {
	*Server
	searcher  *fakeSearcher
	embedder  *fakeEmbedder
	generator *fakeGenerator
	logPath   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		searcher: &fakeSearcher{entries: []db.ScoredEntry{
			{FAQEntry: db.FAQEntry{ID: 1, Question: "How do I cancel?", Answer: "Go to settings.", Category: "Billing"}, Similarity: 0.93},
			{FAQEntry: db.FAQEntry{ID: 2, Question: "Can I get a refund?", Answer: "Refunds take 5 days.", Category: "Billing"}, Similarity: 0.71},
		}},
		embedder:  &fakeEmbedder{},
		generator: &fakeGenerator{chunks: []string{"Go to ", "settings."}},
		logPath:   filepath.Join(t.TempDir(), "interactions.log"),
	}

	s, err := New(Config{
		InteractionLogPath: ts.logPath,
		RateLimit:          &ratelimit.Config{Enabled: true, Rate: 100, Burst: 100},
	}, Deps{Searcher: ts.searcher, Embedder: ts.embedder, Generator: ts.generator})
	require.NoError(t, err)
	t.Cleanup(s.rateLimiter.Stop)

	ts.Server = s
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	return w
}

func chatRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodOptions, "/api/chat", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Config{}, Deps{Embedder: &fakeEmbedder{}})
	assert.Error(t, err)
}

func TestSearch_ReturnsNearestEntries(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/faq/search?q=cancel+subscription&k=1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "cancel subscription", resp.Query)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "How do I cancel?", resp.Results[0].Question)
	assert.InDelta(t, 0.93, resp.Results[0].Similarity, 1e-9)
	assert.Equal(t, 1, s.searcher.gotK)
}

func TestSearch_DefaultLimit(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/faq/search?q=refund", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, DefaultSearchLimit, s.searcher.gotK)
}

func TestSearch_EmptyIndexReturnsEmptyArray(t *testing.T) {
	s := newTestServer(t)
	s.searcher.entries = nil

	w := s.do(httptest.NewRequest(http.MethodGet, "/faq/search?q=refund", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"results":[]`)
}

func TestSearch_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "missing q", url: "/faq/search"},
		{name: "blank q", url: "/faq/search?q=%20%20"},
		{name: "non-numeric k", url: "/faq/search?q=x&k=abc"},
		{name: "zero k", url: "/faq/search?q=x&k=0"},
		{name: "k too large", url: "/faq/search?q=x&k=51"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			w := s.do(httptest.NewRequest(http.MethodGet, tt.url, nil))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestSearch_UpstreamFailures(t *testing.T) {
	t.Run("embedding", func(t *testing.T) {
		s := newTestServer(t)
		s.embedder.err = &llm.EmbeddingError{Model: "m", Message: "quota exceeded"}

		w := s.do(httptest.NewRequest(http.MethodGet, "/faq/search?q=x", nil))
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("search", func(t *testing.T) {
		s := newTestServer(t)
		s.searcher.err = errors.New("connection reset")

		w := s.do(httptest.NewRequest(http.MethodGet, "/faq/search?q=x", nil))
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "search failed")
	})
}

func TestChat_StreamsAnswerAndRecordsInteraction(t *testing.T) {
	s := newTestServer(t)

	w := s.do(chatRequest(`{"messages":[{"role":"user","content":"hi"},{"role":"user","content":"How do I cancel?"}]}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, "event: chunk\ndata: {\"content\":\"Go to \"}\n\n")
	assert.Contains(t, body, "event: chunk\ndata: {\"content\":\"settings.\"}\n\n")
	assert.Contains(t, body, "event: complete\n")
	assert.Less(t, strings.Index(body, "event: chunk"), strings.Index(body, "event: complete"))

	assert.Contains(t, s.generator.gotPrompt, "Question: How do I cancel?")
	assert.Contains(t, s.generator.gotPrompt, "A: Go to settings.")
	assert.Equal(t, DefaultSearchLimit, s.searcher.gotK)

	interactions, err := s.interactions.ReadAll()
	require.NoError(t, err)
	require.Len(t, interactions, 1)
	assert.Equal(t, "How do I cancel?", interactions[0].UserQuery)
	assert.Equal(t, "Go to settings.", interactions[0].Response)
	assert.True(t, interactions[0].Solved)
	assert.Contains(t, body, interactions[0].ID.String())
}

func TestChat_FallbackIsUnsolved(t *testing.T) {
	s := newTestServer(t)
	s.generator.chunks = []string{llm.FallbackPhrase + ", but you can find more information at the FAQ."}

	w := s.do(chatRequest(`{"messages":[{"role":"user","content":"What is the meaning of life?"}]}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"solved":false`)

	interactions, err := s.interactions.ReadAll()
	require.NoError(t, err)
	require.Len(t, interactions, 1)
	assert.False(t, interactions[0].Solved)
}

func TestChat_GenerationFailureEmitsErrorEvent(t *testing.T) {
	s := newTestServer(t)
	s.generator.chunks = nil
	s.generator.err = errors.New("model unavailable")

	w := s.do(chatRequest(`{"messages":[{"role":"user","content":"How do I cancel?"}]}`))
	assert.Contains(t, w.Body.String(), "event: error")
	assert.NotContains(t, w.Body.String(), "event: complete")
	assert.NoFileExists(t, s.logPath)
}

func TestChat_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "malformed JSON", body: `{`, message: "Invalid request body"},
		{name: "no messages", body: `{"messages":[]}`, message: "messages"},
		{name: "missing messages", body: `{}`, message: "messages"},
		{name: "bad role", body: `{"messages":[{"role":"robot","content":"hi"}]}`, message: "role"},
		{name: "blank content", body: `{"messages":[{"role":"user","content":"   "}]}`, message: "last message is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			w := s.do(chatRequest(tt.body))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
		})
	}
}

func TestChat_RetrievalFailureIsJSONError(t *testing.T) {
	s := newTestServer(t)
	s.embedder.err = &llm.EmbeddingError{Model: "m", Message: "empty response"}

	w := s.do(chatRequest(`{"messages":[{"role":"user","content":"How do I cancel?"}]}`))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestChat_RateLimited(t *testing.T) {
	s := newTestServer(t)
	s.rateLimiter = ratelimit.NewLimiter(&ratelimit.Config{Enabled: true, Rate: 0.01, Burst: 1})
	t.Cleanup(s.rateLimiter.Stop)

	first := s.do(chatRequest(`{"messages":[{"role":"user","content":"How do I cancel?"}]}`))
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := s.do(chatRequest(`{"messages":[{"role":"user","content":"How do I cancel?"}]}`))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), "rate_limit_exceeded")

	// Search is not limited
	search := s.do(httptest.NewRequest(http.MethodGet, "/faq/search?q=x", nil))
	assert.Equal(t, http.StatusOK, search.Code)
}

func TestLogs_MissingFile(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/logs", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["error"])
}

func TestLogs_ServesFile(t *testing.T) {
	s := newTestServer(t)
	s.interactions.Record("How do I cancel?", "Go to settings.")

	w := s.do(httptest.NewRequest(http.MethodGet, "/logs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "interactions.log")

	var interactions []Interaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &interactions))
	require.Len(t, interactions, 1)
	assert.Equal(t, "How do I cancel?", interactions[0].UserQuery)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	s := newTestServer(t)
	s.httpServer.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after context cancel")
	}
}
