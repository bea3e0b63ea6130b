// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Environment variables read by FromEnv
const (
	EnvAPIKey             = "GEMINI_API_KEY"
	EnvDatabaseURL        = "DATABASE_URL"
	EnvRootURL            = "FAQ_ROOT_URL"
	EnvPort               = "PORT"
	EnvInteractionLogPath = "INTERACTION_LOG_PATH"
)

// Defaults
const (
	DefaultRootURL            = "https://support.highrise.game/en/"
	DefaultCorpusPath         = "faq_data.json"
	DefaultArticleDelayMS     = 1000
	DefaultCommitMode         = "batch"
	DefaultPort               = 8000
	DefaultInteractionLogPath = "/tmp/interactions.log"
	DefaultSearchLimit        = 6
	DefaultChatRatePerSecond  = 1.0
	DefaultChatBurst          = 5
)

// Config represents the application configuration.
// Values come from an optional JSON file, the environment and CLI flags, in increasing precedence.
type Config struct {
	// Scraping
	RootURL        string `json:"root_url,omitempty" validate:"omitempty,url"`    // Help-center listing page
	CorpusPath     string `json:"corpus_path,omitempty"`                          // Corpus document path
	ArticleDelayMS int    `json:"article_delay_ms,omitempty" validate:"gte=0"`    // Pause between article fetches
	FailFast       bool   `json:"fail_fast,omitempty"`                            // Abort the walk on the first fetch failure
	UseBrowser     bool   `json:"use_browser,omitempty"`                          // Render pages with headless Chrome

	// Ingestion
	CommitMode string `json:"commit_mode,omitempty" validate:"omitempty,oneof=batch record"`

	// Credentials
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL

	// Serving
	Port               int     `json:"port,omitempty" validate:"gte=0,lte=65535"`
	InteractionLogPath string  `json:"interaction_log_path,omitempty"`
	SearchLimit        int     `json:"search_limit,omitempty" validate:"gte=0,lte=100"`
	ChatRatePerSecond  float64 `json:"chat_rate_per_second,omitempty" validate:"gte=0"`
	ChatBurst          int     `json:"chat_burst,omitempty" validate:"gte=0"`

	Verbose bool `json:"verbose,omitempty"` // Debug logging
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		RootURL:            DefaultRootURL,
		CorpusPath:         DefaultCorpusPath,
		ArticleDelayMS:     DefaultArticleDelayMS,
		CommitMode:         DefaultCommitMode,
		Port:               DefaultPort,
		InteractionLogPath: DefaultInteractionLogPath,
		SearchLimit:        DefaultSearchLimit,
		ChatRatePerSecond:  DefaultChatRatePerSecond,
		ChatBurst:          DefaultChatBurst,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads the configuration values carried by environment variables
func FromEnv() (*Config, error) {
	cfg := &Config{
		APIKey:             os.Getenv(EnvAPIKey),
		DatabaseURL:        os.Getenv(EnvDatabaseURL),
		RootURL:            os.Getenv(EnvRootURL),
		InteractionLogPath: os.Getenv(EnvInteractionLogPath),
	}

	if portStr := strings.TrimSpace(os.Getenv(EnvPort)); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %v", EnvPort, err)
		}
		cfg.Port = port
	}

	return cfg, nil
}

// Load resolves the configuration from the environment and an optional JSON file,
// then fills anything still unset from Defaults. The environment wins over the file.
func Load(path string) (*Config, error) {
	env, err := FromEnv()
	if err != nil {
		return nil, err
	}

	merged := *env
	if path != "" {
		file, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		merged = merged.MergeWithDefaults(*file)
	}

	merged = merged.MergeWithDefaults(Defaults())
	return &merged, nil
}

// MergeWithDefaults returns a new Config with unset fields filled from defaults.
// Bools can only be switched on by defaults, never off.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.RootURL == "" {
		result.RootURL = defaults.RootURL
	}
	if result.CorpusPath == "" {
		result.CorpusPath = defaults.CorpusPath
	}
	if result.CommitMode == "" {
		result.CommitMode = defaults.CommitMode
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.InteractionLogPath == "" {
		result.InteractionLogPath = defaults.InteractionLogPath
	}

	// Numeric fields: use default if zero
	if result.ArticleDelayMS == 0 {
		result.ArticleDelayMS = defaults.ArticleDelayMS
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.SearchLimit == 0 {
		result.SearchLimit = defaults.SearchLimit
	}
	if result.ChatRatePerSecond == 0 {
		result.ChatRatePerSecond = defaults.ChatRatePerSecond
	}
	if result.ChatBurst == 0 {
		result.ChatBurst = defaults.ChatBurst
	}

	result.FailFast = result.FailFast || defaults.FailFast
	result.UseBrowser = result.UseBrowser || defaults.UseBrowser
	result.Verbose = result.Verbose || defaults.Verbose

	return result
}

// ArticleDelay returns the pause between article fetches
func (c *Config) ArticleDelay() time.Duration {
	return time.Duration(c.ArticleDelayMS) * time.Millisecond
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate checks that the configured values are well formed.
// Required credentials are checked separately by RequireStore.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("config error: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("config error: %s", strings.Join(msgs, "; "))
}

// RequireStore checks the credentials needed by ingestion, search and serving
func (c *Config) RequireStore() error {
	var missing []string
	if strings.TrimSpace(c.APIKey) == "" {
		missing = append(missing, EnvAPIKey)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		missing = append(missing, EnvDatabaseURL)
	}
	switch len(missing) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("%s is required but not set", missing[0])
	default:
		return fmt.Errorf("%s are required but not set", strings.Join(missing, " and "))
	}
}

func describeFieldError(fe validator.FieldError) string {
	name := jsonName(fe.StructField())
	switch fe.Tag() {
	case "url":
		return fmt.Sprintf("'%s' must be an absolute URL, got %q", name, fe.Value())
	case "oneof":
		return fmt.Sprintf("'%s' must be one of [%s], got %q", name, fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("'%s' must be at least %s", name, fe.Param())
	case "lte":
		return fmt.Sprintf("'%s' must be at most %s", name, fe.Param())
	default:
		return fmt.Sprintf("'%s' failed %s validation", name, fe.Tag())
	}
}

// jsonName maps a struct field to its JSON key for error messages
func jsonName(field string) string {
	names := map[string]string{
		"RootURL":           "root_url",
		"ArticleDelayMS":    "article_delay_ms",
		"CommitMode":        "commit_mode",
		"Port":              "port",
		"SearchLimit":       "search_limit",
		"ChatRatePerSecond": "chat_rate_per_second",
		"ChatBurst":         "chat_burst",
	}
	if name, ok := names[field]; ok {
		return name
	}
	return field
}
