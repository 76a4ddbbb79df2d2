package reason

import (
	"context"
	"fmt"

	"github.com/Balogunolalere/Thoughbot/internal/flow"
	"github.com/Balogunolalere/Thoughbot/internal/llm"
	"github.com/Balogunolalere/Thoughbot/internal/logging"
	"github.com/Balogunolalere/Thoughbot/internal/plan"
)

// Shared state keys used by the reasoning nodes.
const (
	KeyProblem       = "problem"
	KeyThoughts      = "thoughts"
	KeyThoughtNumber = "thought_number"
	KeySolution      = "solution"
	KeyResearch      = "research"
	KeyCandidates    = "candidates"
	KeySubProblems   = "sub_problems"
	KeySpawnProblem  = "spawn_problem"
	KeyFeedback      = "revision_feedback"
)

// Observer receives notifications about tree rewrites and research, so
// a transcript recorder can follow the run. Methods are called on the
// control goroutine only. All implementations must tolerate being nil
// checked away; a nil Observer disables recording.
type Observer interface {
	ThoughtRecorded(number int, thinking, action string)
	VerificationInserted(ids []plan.NodeID)
	FailureReopened(reopened []plan.Reopened)
	ResearchGathered(query string)
}

// ThoughtConfig bounds one reasoning run.
type ThoughtConfig struct {
	MaxThoughts   int // reasoning step budget, default 25
	HistoryWindow int // thoughts kept in prompt context, default 10
	MaxTokens     int // per-call token budget for the reasoner
}

func (c ThoughtConfig) withDefaults() ThoughtConfig {
	if c.MaxThoughts <= 0 {
		c.MaxThoughts = 25
	}
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = 10
	}
	return c
}

// ThoughtNode is the core reasoning step. Each pass asks the model to
// advance the plan, merges the reported plan into the tree, runs the
// verification inserter and the failure handler, and gathers research
// for steps that asked for it.
type ThoughtNode struct {
	Provider   llm.Provider
	Tree       *plan.Tree
	Inserter   *plan.Inserter
	Failures   *plan.FailureHandler
	Researcher *Researcher
	Observer   Observer
	Config     ThoughtConfig

	logger *logging.Logger
}

// NewThoughtNode creates the reasoning node. Inserter and Failures fall
// back to defaults when nil; Researcher and Observer may stay nil.
func NewThoughtNode(provider llm.Provider, tree *plan.Tree, cfg ThoughtConfig) *ThoughtNode {
	return &ThoughtNode{
		Provider: provider,
		Tree:     tree,
		Inserter: plan.NewInserter(0),
		Failures: plan.NewFailureHandler(nil),
		Config:   cfg.withDefaults(),
		logger:   logging.New().WithComponent("reason"),
	}
}

// Prepare assembles the prompt input from run state and the plan tree.
func (n *ThoughtNode) Prepare(ctx context.Context, state *flow.State) (any, error) {
	problem := state.GetString(KeyProblem)
	if problem == "" {
		return nil, fmt.Errorf("reason: no problem in run state")
	}

	num := 1
	if v, ok := state.Get(KeyThoughtNumber); ok {
		num = v.(int) + 1
	}
	state.Set(KeyThoughtNumber, num)

	history, _ := state.Get(KeyThoughts)
	thoughts, _ := history.([]Thought)
	if w := n.Config.HistoryWindow; len(thoughts) > w {
		thoughts = thoughts[len(thoughts)-w:]
	}

	return PromptInput{
		Problem:  problem,
		History:  thoughts,
		Snapshot: n.Tree.Snapshot(),
		Number:   num,
		Research: state.GetString(KeyResearch),
	}, nil
}

// Execute calls the reasoner. Retryable provider failures surface as
// transient so the engine's retry policy applies on top of the
// provider's own backoff.
func (n *ThoughtNode) Execute(ctx context.Context, input any) (any, error) {
	in := input.(PromptInput)
	resp, err := n.Provider.Chat(ctx, llm.ChatRequest{
		Messages:  []llm.Message{{Role: "user", Content: BuildPrompt(in)}},
		MaxTokens: n.Config.MaxTokens,
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

// Finalize merges the decision into the tree, runs the verification
// inserter and the failure handler, gathers requested research, and
// routes the next action. Malformed model output is not fatal: the
// loop re-asks with the tree unchanged.
func (n *ThoughtNode) Finalize(ctx context.Context, state *flow.State, input any, res flow.Result) (flow.Action, error) {
	in := input.(PromptInput)
	if res.Err != nil {
		return "", fmt.Errorf("reasoner failed on thought %d: %w", in.Number, res.Err)
	}

	d, err := ParseDecision(res.Output.(string))
	if err != nil {
		if IsMalformed(err) {
			n.logger.Warn("malformed decision, re-asking", map[string]interface{}{
				"thought": in.Number,
				"error":   err.Error(),
			})
			return flow.ActionContinue, nil
		}
		return "", err
	}

	if err := ApplyPlanning(n.Tree, d.Planning); err != nil {
		return "", err
	}

	inserted := n.Inserter.Apply(n.Tree)
	reopened := n.Failures.Apply(n.Tree)
	if n.Observer != nil {
		n.Observer.ThoughtRecorded(in.Number, d.CurrentThinking, d.NextAction)
		if len(inserted) > 0 {
			n.Observer.VerificationInserted(inserted)
		}
		if len(reopened) > 0 {
			n.Observer.FailureReopened(reopened)
		}
	}

	state.Delete(KeyResearch)
	if err := n.gatherResearch(ctx, state); err != nil {
		return "", err
	}

	history, _ := state.Get(KeyThoughts)
	thoughts, _ := history.([]Thought)
	thoughts = append(thoughts, Thought{Number: in.Number, Thinking: d.CurrentThinking})
	if w := n.Config.HistoryWindow; len(thoughts) > w {
		thoughts = thoughts[len(thoughts)-w:]
	}
	state.Set(KeyThoughts, thoughts)

	if !d.NextThoughtNeeded && len(reopened) == 0 {
		state.Set(KeySolution, d.CurrentThinking)
		return flow.ActionEnd, nil
	}
	if d.NextAction == "spawn" && d.SubProblem != "" {
		state.Set(KeySpawnProblem, d.SubProblem)
	}
	if in.Number >= n.Config.MaxThoughts {
		n.logger.Warn("thought budget exhausted", map[string]interface{}{
			"thoughts": in.Number,
			"pending":  n.Tree.PendingCount(),
		})
		state.Set(KeySolution, d.CurrentThinking)
		return flow.ActionEnd, nil
	}
	return flow.Action(d.NextAction), nil
}

// gatherResearch answers every step marked for research, then returns
// the step to Pending so the next thought works it with the findings in
// context.
func (n *ThoughtNode) gatherResearch(ctx context.Context, state *flow.State) error {
	if n.Researcher == nil {
		return nil
	}

	var needs []plan.NodeID
	n.Tree.Walk(func(node *plan.Node) bool {
		if node.Status == plan.StatusSearchNeeded {
			needs = append(needs, node.ID)
		}
		return true
	})

	gathered := state.GetString(KeyResearch)
	for _, id := range needs {
		node := n.Tree.Node(id)
		query := node.Mark
		if query == "" {
			query = node.Description
		}

		text, err := n.Researcher.Gather(ctx, query)
		if err != nil {
			n.logger.Warn("research failed", map[string]interface{}{
				"query": query,
				"error": err.Error(),
			})
			text = fmt.Sprintf("Research for %q failed: %v", query, err)
		} else if n.Observer != nil {
			n.Observer.ResearchGathered(query)
		}

		if gathered != "" {
			gathered += "\n"
		}
		gathered += text
		if err := n.Tree.SetStatus(id, plan.StatusPending); err != nil {
			return err
		}
	}
	if gathered != "" {
		state.Set(KeyResearch, gathered)
	}
	return nil
}
