package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := New()
	if cfg.Run.MaxVerificationDepth != 3 {
		t.Errorf("default max depth = %d, want 3", cfg.Run.MaxVerificationDepth)
	}
	if cfg.Run.Parallel != 4 {
		t.Errorf("default parallel = %d, want 4", cfg.Run.Parallel)
	}
	if cfg.Scrape.MaxURLs != 2 {
		t.Errorf("default max urls = %d, want 2", cfg.Scrape.MaxURLs)
	}
	if cfg.LLM.MaxTokens != 4096 {
		t.Errorf("default max tokens = %d, want 4096", cfg.LLM.MaxTokens)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thoughtbot.toml")
	content := `
[llm]
provider = "google"
model = "gemini-2.5-flash"

[run]
max_verification_depth = 2
failure_terms = ["failed", "wrong"]
parallel = 8

[events]
nats_url = "nats://localhost:4222"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.LLM.Provider != "google" || cfg.LLM.Model != "gemini-2.5-flash" {
		t.Errorf("llm config = %+v", cfg.LLM)
	}
	if cfg.Run.MaxVerificationDepth != 2 {
		t.Errorf("max depth = %d, want 2", cfg.Run.MaxVerificationDepth)
	}
	if len(cfg.Run.FailureTerms) != 2 {
		t.Errorf("failure terms = %v", cfg.Run.FailureTerms)
	}
	if cfg.Run.Parallel != 8 {
		t.Errorf("parallel = %d, want 8", cfg.Run.Parallel)
	}
	// Unset sections keep defaults.
	if cfg.Scrape.MaxURLs != 2 {
		t.Errorf("scrape defaults lost: %+v", cfg.Scrape)
	}
	if cfg.Events.NATSURL != "nats://localhost:4222" {
		t.Errorf("events config = %+v", cfg.Events)
	}
	if cfg.Events.Subject != "thoughtbot.events" {
		t.Errorf("events subject default lost: %q", cfg.Events.Subject)
	}
}

func TestLoadFileBadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	os.WriteFile(path, []byte("[llm\nprovider="), 0o644)

	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile() should fail on invalid TOML")
	}
}

func TestGetAPIKey(t *testing.T) {
	cfg := New()
	cfg.LLM.Provider = "google"
	t.Setenv("GEMINI_API_KEY", "test-key")
	if got := cfg.GetAPIKey(); got != "test-key" {
		t.Errorf("GetAPIKey() = %q, want provider default env", got)
	}

	cfg.LLM.APIKeyEnv = "CUSTOM_KEY"
	t.Setenv("CUSTOM_KEY", "custom")
	if got := cfg.GetAPIKey(); got != "custom" {
		t.Errorf("GetAPIKey() = %q, want explicit env to win", got)
	}
}
