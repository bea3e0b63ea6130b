package server

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonathan/faq-assistant/internal/llm"
)

func TestInteractionLog_RecordAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interactions.log")
	log := NewInteractionLog(path, nil)
	fixed := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	log.now = func() time.Time { return fixed }

	first := log.Record("How do I cancel?", "Go to settings.")
	second := log.Record("Where is my refund?", llm.FallbackPhrase+", but see the FAQ.")

	interactions, err := log.ReadAll()
	require.NoError(t, err)
	require.Len(t, interactions, 2)

	assert.Equal(t, first.ID, interactions[0].ID)
	assert.True(t, interactions[0].Solved)
	assert.Equal(t, fixed, interactions[0].CreatedAt)

	assert.Equal(t, second.ID, interactions[1].ID)
	assert.False(t, interactions[1].Solved)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestInteractionLog_FileIsJSONArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interactions.log")
	log := NewInteractionLog(path, nil)
	log.Record("q", "a")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, byte('['), data[0])
	assert.Contains(t, string(data), `"user_query": "q"`)
}

func TestInteractionLog_ReadAllMissingFile(t *testing.T) {
	log := NewInteractionLog(filepath.Join(t.TempDir(), "missing.log"), nil)

	_, err := log.ReadAll()
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestInteractionLog_CorruptFileIsRestarted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interactions.log")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	core, logs := observer.New(zapcore.WarnLevel)
	log := NewInteractionLog(path, zap.New(core))
	log.Record("q", "a")

	interactions, err := log.ReadAll()
	require.NoError(t, err)
	assert.Len(t, interactions, 1)
	assert.Equal(t, 1, logs.FilterMessage("interaction log unreadable, starting a new one").Len())
}

func TestInteractionLog_WriteFailureIsLoggedOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "interactions.log")
	core, logs := observer.New(zapcore.ErrorLevel)
	log := NewInteractionLog(path, zap.New(core))

	interaction := log.Record("q", "a")

	assert.NotEmpty(t, interaction.ID.String())
	assert.NoFileExists(t, path)
	assert.Equal(t, 1, logs.FilterMessage("failed to record interaction").Len())
}

func TestNewInteractionLog_DefaultPath(t *testing.T) {
	log := NewInteractionLog("", nil)
	assert.Equal(t, DefaultInteractionLogPath, log.Path())
}
