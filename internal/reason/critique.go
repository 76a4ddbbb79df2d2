package reason

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Balogunolalere/Thoughbot/internal/flow"
	"github.com/Balogunolalere/Thoughbot/internal/llm"
	"github.com/Balogunolalere/Thoughbot/internal/logging"
	"github.com/Balogunolalere/Thoughbot/internal/plan"
)

// DefaultCritiqueThreshold is the minimum score a plan must reach to
// pass review without revision.
const DefaultCritiqueThreshold = 4

// CritiqueNode asks the reasoner to review the current plan. A score
// under the threshold routes to revision with the reviewer's feedback.
type CritiqueNode struct {
	Provider  llm.Provider
	Tree      *plan.Tree
	Threshold int
	MaxTokens int

	logger *logging.Logger
}

// NewCritiqueNode creates a critique node. Zero threshold means
// DefaultCritiqueThreshold.
func NewCritiqueNode(provider llm.Provider, tree *plan.Tree, threshold int) *CritiqueNode {
	if threshold <= 0 {
		threshold = DefaultCritiqueThreshold
	}
	return &CritiqueNode{
		Provider:  provider,
		Tree:      tree,
		Threshold: threshold,
		logger:    logging.New().WithComponent("critique"),
	}
}

type review struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// Prepare renders the plan into the review prompt.
func (n *CritiqueNode) Prepare(ctx context.Context, state *flow.State) (any, error) {
	outline := formatSnapshots(n.Tree.Snapshot())
	prompt := fmt.Sprintf(`You are a strict reviewer.
Score the following plan 1-5 and give concise feedback.
Return ONLY JSON: {"score": <int>, "feedback": "<string>"}

%s
`, outline)
	return prompt, nil
}

// Execute calls the reasoner for a review.
func (n *CritiqueNode) Execute(ctx context.Context, input any) (any, error) {
	resp, err := n.Provider.Chat(ctx, llm.ChatRequest{
		Messages:  []llm.Message{{Role: "user", Content: input.(string)}},
		MaxTokens: n.MaxTokens,
		JSON:      true,
	})
	if err != nil {
		if llm.IsRetryableError(err) {
			return nil, flow.Transient(err)
		}
		return nil, err
	}
	return resp.Content, nil
}

// Finalize routes on the score. Review is advisory: a failed or
// unparseable review continues the run instead of killing it.
func (n *CritiqueNode) Finalize(ctx context.Context, state *flow.State, input any, res flow.Result) (flow.Action, error) {
	if res.Err != nil {
		n.logger.Warn("critique unavailable", map[string]interface{}{
			"error": res.Err.Error(),
		})
		return flow.ActionContinue, nil
	}

	var r review
	if err := json.Unmarshal([]byte(CleanJSON(res.Output.(string))), &r); err != nil {
		n.logger.Warn("malformed review", map[string]interface{}{
			"error": err.Error(),
		})
		return flow.ActionContinue, nil
	}

	if r.Score < n.Threshold {
		n.logger.Info("plan needs revision", map[string]interface{}{
			"score": r.Score,
		})
		state.Set(KeyFeedback, r.Feedback)
		return "revise", nil
	}
	return flow.ActionContinue, nil
}

// formatSnapshots renders a snapshot forest as a plain text outline for
// prompts.
func formatSnapshots(snaps []plan.Snapshot) string {
	steps := make([]PlanStep, 0, len(snaps))
	for _, s := range snaps {
		steps = append(steps, snapshotStep(s))
	}
	return FormatSteps(steps)
}

func snapshotStep(s plan.Snapshot) PlanStep {
	step := PlanStep{
		Description: s.Description,
		Status:      string(s.Status),
		Result:      s.Result,
		Mark:        s.Mark,
	}
	for _, c := range s.Children {
		step.SubSteps = append(step.SubSteps, snapshotStep(c))
	}
	return step
}
