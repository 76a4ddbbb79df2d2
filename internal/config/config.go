// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the thoughtbot configuration.
type Config struct {
	LLM       LLMConfig       `toml:"llm"`       // Reasoner settings
	Run       RunConfig       `toml:"run"`       // Reasoning run settings
	Search    SearchConfig    `toml:"search"`    // Web search collaborator
	Scrape    ScrapeConfig    `toml:"scrape"`    // Scraper collaborator
	Session   SessionConfig   `toml:"session"`   // Transcript persistence
	Events    EventsConfig    `toml:"events"`    // Event mirroring (NATS)
	Telemetry TelemetryConfig `toml:"telemetry"` // Tracing
}

// LLMConfig contains reasoner provider settings.
type LLMConfig struct {
	Provider     string `toml:"provider"` // anthropic|openai|google|openai-compat
	Model        string `toml:"model"`
	APIKeyEnv    string `toml:"api_key_env"`
	MaxTokens    int    `toml:"max_tokens"`
	BaseURL      string `toml:"base_url"`      // Custom API endpoint (OpenRouter, LiteLLM, Ollama)
	MaxRetries   int    `toml:"max_retries"`   // Max retry attempts (default 5)
	RetryBackoff string `toml:"retry_backoff"` // Max backoff duration (default "60s")
}

// RunConfig contains reasoning run settings.
type RunConfig struct {
	MaxVerificationDepth int      `toml:"max_verification_depth"` // Verification nesting bound (default 3)
	FailureTerms         []string `toml:"failure_terms"`          // Failure vocabulary for verification results
	MaxThoughts          int      `toml:"max_thoughts"`           // Reasoning step budget (default 25)
	Parallel             int      `toml:"parallel"`               // Concurrency limit for batch sub-executions (default 4)
	HistoryWindow        int      `toml:"history_window"`         // Thoughts kept in prompt context (default 10)
}

// SearchConfig contains web search settings.
type SearchConfig struct {
	Locale     string `toml:"locale"`      // e.g. "en_gb"
	SafeSearch int    `toml:"safesearch"`  // 0, 1 or 2
	MaxRetries int    `toml:"max_retries"` // attempts per query (default 3)
	TimeoutSec int    `toml:"timeout"`     // per-request timeout in seconds (default 10)
}

// ScrapeConfig contains scraper settings.
type ScrapeConfig struct {
	MaxURLs    int `toml:"max_urls"`    // URLs scraped per research step (default 2)
	MaxRetries int `toml:"max_retries"` // attempts per URL (default 3)
	TimeoutSec int `toml:"timeout"`     // per-request timeout in seconds (default 10)
}

// SessionConfig contains transcript persistence settings.
type SessionConfig struct {
	Dir string `toml:"dir"` // Directory for session transcripts; empty disables persistence
}

// EventsConfig contains event mirroring settings.
type EventsConfig struct {
	NATSURL string `toml:"nats_url"` // NATS server URL; empty disables mirroring
	Subject string `toml:"subject"`  // Subject prefix (default "thoughtbot.events")
}

// TelemetryConfig contains tracing settings.
type TelemetryConfig struct {
	Enabled bool `toml:"enabled"`
	Debug   bool `toml:"debug"` // record payload attributes on spans
}

// New creates a new config with defaults.
func New() *Config {
	return &Config{
		LLM: LLMConfig{
			MaxTokens: 4096,
		},
		Run: RunConfig{
			MaxVerificationDepth: 3,
			MaxThoughts:          25,
			Parallel:             4,
			HistoryWindow:        10,
		},
		Search: SearchConfig{
			Locale:     "en_gb",
			SafeSearch: 1,
			MaxRetries: 3,
			TimeoutSec: 10,
		},
		Scrape: ScrapeConfig{
			MaxURLs:    2,
			MaxRetries: 3,
			TimeoutSec: 10,
		},
		Events: EventsConfig{
			Subject: "thoughtbot.events",
		},
	}
}

// Default returns a default configuration.
func Default() *Config {
	return New()
}

// LoadFile loads configuration from a TOML file.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// LoadDefault loads configuration from thoughtbot.toml in the current
// directory, falling back to defaults when the file is absent.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	path := filepath.Join(cwd, "thoughtbot.toml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return New(), nil
	}
	return LoadFile(path)
}

// GetAPIKey returns the API key from the configured environment variable.
// If api_key_env is not set, uses the default env var for the provider.
func (c *Config) GetAPIKey() string {
	envVar := c.LLM.APIKeyEnv
	if envVar == "" {
		envVar = DefaultAPIKeyEnv(c.LLM.Provider)
	}
	if envVar == "" {
		return ""
	}
	return os.Getenv(envVar)
}

// DefaultAPIKeyEnv returns the default environment variable name for a provider.
func DefaultAPIKeyEnv(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "google":
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}
