package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/Balogunolalere/Thoughbot/internal/config"
	"github.com/Balogunolalere/Thoughbot/internal/llm"
	"github.com/Balogunolalere/Thoughbot/internal/plan"
	"github.com/Balogunolalere/Thoughbot/internal/session"
)

// scriptProvider replays canned responses in order.
type scriptProvider struct {
	mu        sync.Mutex
	responses []string
	calls     int
}

func (p *scriptProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls >= len(p.responses) {
		return nil, errors.New("script exhausted")
	}
	resp := p.responses[p.calls]
	p.calls++
	return &llm.ChatResponse{Content: resp}, nil
}

func (p *scriptProvider) Name() string { return "script" }

func decision(thinking, planning, action string, more bool) string {
	return fmt.Sprintf(`{"current_thinking": %q, "planning": %s, "next_action": %q, "next_thought_needed": %t}`,
		thinking, planning, action, more)
}

func TestRunCompletes(t *testing.T) {
	verify := plan.VerifyDescription("Compute")
	provider := &scriptProvider{responses: []string{
		decision("step done", `[{"description": "Compute", "status": "Done", "result": "4"}]`, "continue", true),
		decision("verified, we are finished",
			fmt.Sprintf(`[{"description": "Compute", "status": "Done", "result": "4",
			  "sub_steps": [{"description": %q, "status": "Done", "result": "Checks out"}]}]`, verify),
			"continue", false),
	}}

	store, err := session.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := New(config.New(), provider, WithStore(store))

	result, err := r.Run(context.Background(), "What is 2+2?")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Answer != "verified, we are finished" {
		t.Errorf("answer = %q", result.Answer)
	}
	if result.Thoughts != 2 {
		t.Errorf("thoughts = %d, want 2", result.Thoughts)
	}
	if len(result.Plan) != 1 || result.Plan[0].Result != "4" {
		t.Errorf("plan = %+v", result.Plan)
	}

	sess, err := store.Load(result.RunID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if sess.Status != session.StatusComplete || sess.Answer != result.Answer {
		t.Errorf("transcript = %+v", sess)
	}
	var thoughts, ends int
	for _, e := range sess.Events {
		switch e.Type {
		case session.EventThought:
			thoughts++
		case session.EventRunEnd:
			ends++
		}
	}
	if thoughts != 2 || ends != 1 {
		t.Errorf("transcript events: %d thoughts, %d ends", thoughts, ends)
	}
}

func TestRunExploresSubProblems(t *testing.T) {
	provider := &scriptProvider{responses: []string{
		decision("split the problem",
			`[{"description": "Half A", "status": "Pending"}, {"description": "Half B", "status": "Pending"}]`,
			"explore", true),
		// The two sub-problem loops consume the next responses in order.
		decision("A resolved", `[{"description": "Half A", "status": "Done", "result": "A"}]`, "continue", false),
		decision("B resolved", `[{"description": "Half B", "status": "Done", "result": "B"}]`, "continue", false),
		decision("combined both halves",
			`[{"description": "Half A", "status": "Done", "result": "A"}, {"description": "Half B", "status": "Done", "result": "B"}]`,
			"continue", false),
	}}

	cfg := config.New()
	cfg.Run.Parallel = 1
	r := New(cfg, provider)

	result, err := r.Run(context.Background(), "big problem")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Answer != "combined both halves" {
		t.Errorf("answer = %q", result.Answer)
	}
	if provider.calls != 4 {
		t.Errorf("provider calls = %d, want 4", provider.calls)
	}
}

func TestRunFailureRecordsTranscript(t *testing.T) {
	provider := &scriptProvider{responses: nil} // first call already fails

	store, err := session.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := New(config.New(), provider, WithStore(store))

	result, err := r.Run(context.Background(), "p")
	if err == nil {
		t.Fatal("Run() should fail when the provider does")
	}
	if result == nil || result.RunID == "" {
		t.Fatal("failed run must still return its run id")
	}

	sess, err := store.Load(result.RunID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if sess.Status != session.StatusFailed {
		t.Errorf("status = %q, want failed", sess.Status)
	}
	if !strings.Contains(sess.Error, "script exhausted") {
		t.Errorf("error = %q", sess.Error)
	}
}
