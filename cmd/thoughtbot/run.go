package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/Balogunolalere/Thoughbot/internal/config"
	"github.com/Balogunolalere/Thoughbot/internal/events"
	"github.com/Balogunolalere/Thoughbot/internal/llm"
	"github.com/Balogunolalere/Thoughbot/internal/plan"
	"github.com/Balogunolalere/Thoughbot/internal/runner"
	"github.com/Balogunolalere/Thoughbot/internal/session"
	"github.com/Balogunolalere/Thoughbot/internal/telemetry"
)

const defaultModel = "gemini-2.5-flash"

// RunCmd reasons a problem through to an answer.
type RunCmd struct {
	Problem string `arg:"" help:"Problem statement to reason about"`

	Config      string `help:"Config file path (default thoughtbot.toml)"`
	Model       string `help:"Override the reasoning model"`
	Provider    string `help:"Override the provider (anthropic|openai|google|openai-compat)"`
	MaxThoughts int    `help:"Override the reasoning step budget"`
	SessionDir  string `help:"Override the transcript directory"`
	JSON        bool   `help:"Emit the result as JSON"`
	PlanOut     string `help:"Write the final plan snapshot to a file (.json or .yaml)"`
	Width       int    `default:"100" help:"Plan render width"`
}

func (c *RunCmd) loadConfig() (*config.Config, error) {
	cfg, err := loadConfigFrom(c.Config)
	if err != nil {
		return nil, err
	}
	if c.Model != "" {
		cfg.LLM.Model = c.Model
	}
	if c.Provider != "" {
		cfg.LLM.Provider = c.Provider
	}
	if c.MaxThoughts > 0 {
		cfg.Run.MaxThoughts = c.MaxThoughts
	}
	if c.SessionDir != "" {
		cfg.Session.Dir = c.SessionDir
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultModel
	}
	return cfg, nil
}

func loadConfigFrom(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.LoadDefault()
}

// buildProvider creates the reasoner from config.
func buildProvider(cfg *config.Config) (llm.Provider, error) {
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = llm.InferProviderFromModel(cfg.LLM.Model)
	}

	apiKey := cfg.GetAPIKey()
	if apiKey == "" && cfg.LLM.BaseURL == "" {
		env := cfg.LLM.APIKeyEnv
		if env == "" {
			env = config.DefaultAPIKeyEnv(cfg.LLM.Provider)
		}
		return nil, fmt.Errorf("no API key found; set %s or api_key_env in config", env)
	}

	retry := llm.RetryConfig{MaxRetries: cfg.LLM.MaxRetries}
	if cfg.LLM.RetryBackoff != "" {
		backoff, err := time.ParseDuration(cfg.LLM.RetryBackoff)
		if err != nil {
			return nil, fmt.Errorf("invalid retry_backoff %q: %w", cfg.LLM.RetryBackoff, err)
		}
		retry.MaxBackoff = backoff
	}

	return llm.NewProvider(llm.ProviderConfig{
		Provider:  cfg.LLM.Provider,
		Model:     cfg.LLM.Model,
		APIKey:    apiKey,
		BaseURL:   cfg.LLM.BaseURL,
		MaxTokens: cfg.LLM.MaxTokens,
		Retry:     retry,
	})
}

// Run executes the run command.
func (c *RunCmd) Run() error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	telemetry.SetDebug(cfg.Telemetry.Debug)

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	var opts []runner.Option
	if cfg.Session.Dir != "" {
		store, err := session.NewFileStore(cfg.Session.Dir)
		if err != nil {
			return fmt.Errorf("session store: %w", err)
		}
		opts = append(opts, runner.WithStore(store))
	}
	if cfg.Events.NATSURL != "" {
		publisher, err := events.Connect(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			return err
		}
		defer publisher.Close()
		opts = append(opts, runner.WithMirror(publisher))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := runner.New(cfg, provider, opts...)
	result, err := r.Run(ctx, c.Problem)
	if err != nil {
		if result != nil && result.RunID != "" {
			fmt.Fprintf(os.Stderr, "run %s failed\n", result.RunID)
		}
		return err
	}

	if c.PlanOut != "" {
		if err := writePlan(c.PlanOut, result.Plan); err != nil {
			return err
		}
	}

	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"run_id":      result.RunID,
			"answer":      result.Answer,
			"thoughts":    result.Thoughts,
			"duration_ms": result.Duration.Milliseconds(),
			"plan":        result.Plan,
		})
	}

	fmt.Println(result.Answer)
	fmt.Println()
	fmt.Print(plan.RenderSnapshot(result.Plan, c.Width))
	fmt.Printf("\nrun %s: %d thoughts in %s\n", result.RunID, result.Thoughts, result.Duration.Round(time.Millisecond))
	return nil
}

// writePlan saves a snapshot file, choosing the encoding by extension.
func writePlan(path string, snaps []plan.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return plan.EncodeYAML(f, snaps)
	default:
		return plan.EncodeJSON(f, snaps)
	}
}
