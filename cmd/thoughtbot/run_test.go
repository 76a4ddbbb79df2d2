package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Balogunolalere/Thoughbot/internal/plan"
)

func TestRunCmdConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thoughtbot.toml")
	content := `
[llm]
model = "gemini-2.5-flash"

[run]
max_thoughts = 12
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := &RunCmd{Config: path, Model: "claude-sonnet-4-5", MaxThoughts: 3, SessionDir: dir}
	cfg, err := cmd.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.LLM.Model != "claude-sonnet-4-5" {
		t.Errorf("model = %q, flag should win", cfg.LLM.Model)
	}
	if cfg.Run.MaxThoughts != 3 {
		t.Errorf("max_thoughts = %d, flag should win", cfg.Run.MaxThoughts)
	}
	if cfg.Session.Dir != dir {
		t.Errorf("session dir = %q", cfg.Session.Dir)
	}
}

func TestRunCmdDefaultModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thoughtbot.toml")
	if err := os.WriteFile(path, []byte(""), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := &RunCmd{Config: path}
	cfg, err := cmd.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.LLM.Model != defaultModel {
		t.Errorf("model = %q, want default", cfg.LLM.Model)
	}
}

func TestWritePlanByExtension(t *testing.T) {
	dir := t.TempDir()
	snaps := []plan.Snapshot{
		{ID: 1, Description: "Compute 5*3", Status: plan.StatusDone, Result: "15"},
	}

	jsonPath := filepath.Join(dir, "plan.json")
	if err := writePlan(jsonPath, snaps); err != nil {
		t.Fatalf("writePlan(json) error = %v", err)
	}
	f, err := os.Open(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := plan.DecodeJSON(f)
	if err != nil {
		t.Fatalf("DecodeJSON() error = %v", err)
	}
	if len(got) != 1 || got[0].Description != "Compute 5*3" {
		t.Errorf("round-trip = %+v", got)
	}

	yamlPath := filepath.Join(dir, "plan.yaml")
	if err := writePlan(yamlPath, snaps); err != nil {
		t.Fatalf("writePlan(yaml) error = %v", err)
	}
	raw, err := os.ReadFile(yamlPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "description: Compute 5*3") {
		t.Errorf("yaml output missing description:\n%s", raw)
	}
}

func TestBuildProviderRequiresKey(t *testing.T) {
	cmd := &RunCmd{}
	cfg, err := cmd.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	t.Setenv("GEMINI_API_KEY", "")

	if _, err := buildProvider(cfg); err == nil {
		t.Error("buildProvider without an API key should fail")
	}
}
