package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/faq-assistant/internal/llm"
	"github.com/jonathan/faq-assistant/internal/logging"
)

// DefaultInteractionLogPath is where chat interactions are recorded
const DefaultInteractionLogPath = "/tmp/interactions.log"

// Interaction is one answered chat question
type Interaction struct {
	ID        uuid.UUID `json:"id"`
	UserQuery string    `json:"user_query"`
	Response  string    `json:"response"`
	Solved    bool      `json:"solved"`
	CreatedAt time.Time `json:"created_at"`
}

// InteractionLog appends interactions to a file holding a single JSON array.
// Write failures are logged and never returned to the caller.
type InteractionLog struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
	now    func() time.Time
}

// NewInteractionLog creates a log writing to path (DefaultInteractionLogPath when empty)
func NewInteractionLog(path string, logger *zap.Logger) *InteractionLog {
	if path == "" {
		path = DefaultInteractionLogPath
	}
	return &InteractionLog{
		path:   path,
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
}

// Path returns the file the log writes to
func (l *InteractionLog) Path() string {
	return l.path
}

// Record builds an interaction for query and response and appends it to the file.
// The interaction is returned even when it could not be persisted.
func (l *InteractionLog) Record(query, response string) Interaction {
	interaction := Interaction{
		ID:        uuid.New(),
		UserQuery: query,
		Response:  response,
		Solved:    !llm.IsFallback(response),
		CreatedAt: l.now().UTC(),
	}

	if err := l.append(interaction); err != nil {
		l.logger.Error("failed to record interaction",
			zap.String("path", l.path),
			zap.String("interaction_id", interaction.ID.String()),
			zap.Error(err),
		)
	}
	return interaction
}

// ReadAll returns every recorded interaction. A missing file returns fs.ErrNotExist.
func (l *InteractionLog) ReadAll() ([]Interaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read()
}

func (l *InteractionLog) append(interaction Interaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	interactions, err := l.read()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		interactions = nil
	case err != nil:
		// An unreadable log is restarted rather than blocking new records
		l.logger.Warn("interaction log unreadable, starting a new one", zap.String("path", l.path), zap.Error(err))
		interactions = nil
	}

	data, err := json.MarshalIndent(append(interactions, interaction), "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode interactions: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".interactions-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("failed to write interactions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write interactions: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return fmt.Errorf("failed to replace interaction log: %w", err)
	}
	return nil
}

func (l *InteractionLog) read() ([]Interaction, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, err
	}

	var interactions []Interaction
	if err := json.Unmarshal(data, &interactions); err != nil {
		return nil, fmt.Errorf("failed to decode interaction log: %w", err)
	}
	return interactions, nil
}
