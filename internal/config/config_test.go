package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))
	return tmpFile
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvAPIKey, EnvDatabaseURL, EnvRootURL, EnvPort, EnvInteractionLogPath} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeConfig(t, `{
		"root_url": "https://help.example.com/en/",
		"corpus_path": "out.json",
		"article_delay_ms": 250,
		"commit_mode": "record",
		"verbose": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "https://help.example.com/en/", cfg.RootURL)
	assert.Equal(t, "out.json", cfg.CorpusPath)
	assert.Equal(t, 250*time.Millisecond, cfg.ArticleDelay())
	assert.Equal(t, "record", cfg.CommitMode)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{ invalid json }`))
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAPIKey, "key")
	t.Setenv(EnvDatabaseURL, "postgres://localhost/faq")
	t.Setenv(EnvPort, "9090")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, "postgres://localhost/faq", cfg.DatabaseURL)
	assert.Equal(t, 9090, cfg.Port)
}

func TestFromEnv_InvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPort, "eighty")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid PORT")
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDatabaseURL, "postgres://env/faq")

	path := writeConfig(t, `{"database_url": "postgres://file/faq", "api_key": "file-key", "port": 7000}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/faq", cfg.DatabaseURL, "environment wins over file")
	assert.Equal(t, "file-key", cfg.APIKey)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, DefaultRootURL, cfg.RootURL)
	assert.Equal(t, DefaultSearchLimit, cfg.SearchLimit)
}

func TestLoad_NoFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), *cfg)
}

func TestLoad_BadFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "https://support.highrise.game/en/", cfg.RootURL)
	assert.Equal(t, "faq_data.json", cfg.CorpusPath)
	assert.Equal(t, time.Second, cfg.ArticleDelay())
	assert.Equal(t, "batch", cfg.CommitMode)
	assert.Equal(t, ":8000", cfg.Addr())
	assert.Equal(t, "/tmp/interactions.log", cfg.InteractionLogPath)
	assert.Equal(t, 6, cfg.SearchLimit)
	assert.NoError(t, cfg.Validate())
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := &Config{CorpusPath: "custom.json", UseBrowser: true}
	merged := cfg.MergeWithDefaults(Config{CorpusPath: "default.json", Port: 1234, Verbose: true})

	assert.Equal(t, "custom.json", merged.CorpusPath)
	assert.Equal(t, 1234, merged.Port)
	assert.True(t, merged.UseBrowser)
	assert.True(t, merged.Verbose)
	assert.Equal(t, "custom.json", cfg.CorpusPath, "original should be unchanged")
	assert.False(t, cfg.Verbose)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{name: "bad url", mutate: func(c *Config) { c.RootURL = "not a url" }, wantMsg: "'root_url' must be an absolute URL"},
		{name: "bad commit mode", mutate: func(c *Config) { c.CommitMode = "sometimes" }, wantMsg: "'commit_mode' must be one of [batch record]"},
		{name: "negative delay", mutate: func(c *Config) { c.ArticleDelayMS = -5 }, wantMsg: "'article_delay_ms' must be at least 0"},
		{name: "port too large", mutate: func(c *Config) { c.Port = 70000 }, wantMsg: "'port' must be at most 65535"},
		{name: "search limit too large", mutate: func(c *Config) { c.SearchLimit = 1000 }, wantMsg: "'search_limit' must be at most 100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config error:")
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidate_EmptyIsValid(t *testing.T) {
	cfg := &Config{}
	assert.NoError(t, cfg.Validate())
}

func TestRequireStore(t *testing.T) {
	cfg := &Config{}
	err := cfg.RequireStore()
	require.Error(t, err)
	assert.Equal(t, "GEMINI_API_KEY and DATABASE_URL are required but not set", err.Error())

	cfg.APIKey = "key"
	err = cfg.RequireStore()
	require.Error(t, err)
	assert.Equal(t, "DATABASE_URL is required but not set", err.Error())

	cfg.DatabaseURL = "postgres://localhost/faq"
	assert.NoError(t, cfg.RequireStore())
}
