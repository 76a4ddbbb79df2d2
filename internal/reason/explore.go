package reason

import (
	"context"
	"fmt"
	"strings"

	"github.com/Balogunolalere/Thoughbot/internal/flow"
	"github.com/Balogunolalere/Thoughbot/internal/logging"
	"github.com/Balogunolalere/Thoughbot/internal/plan"
)

// SubSolver runs one independent sub-problem to completion and returns
// its answer. The state handed in is a clone; writes to it do not leak
// back into the parent run.
type SubSolver func(ctx context.Context, problem string, state *flow.State) (string, error)

// ExploreNode works independent sub-problems concurrently and folds the
// candidate answers back into the parent run's context. Sub-problems
// come from run state when the reasoner named them, otherwise from the
// plan's pending top-level steps.
type ExploreNode struct {
	Solve    SubSolver
	Tree     *plan.Tree
	Parallel int

	logger *logging.Logger
}

// NewExploreNode creates an explore node with the given concurrency
// limit.
func NewExploreNode(solve SubSolver, tree *plan.Tree, parallel int) *ExploreNode {
	if parallel <= 0 {
		parallel = 4
	}
	return &ExploreNode{
		Solve:    solve,
		Tree:     tree,
		Parallel: parallel,
		logger:   logging.New().WithComponent("explore"),
	}
}

type exploreInput struct {
	subs []string
	base *flow.State
}

// Prepare collects the sub-problems and a base state to clone per slot.
func (n *ExploreNode) Prepare(ctx context.Context, state *flow.State) (any, error) {
	var subs []string
	if v, ok := state.Get(KeySubProblems); ok {
		subs, _ = v.([]string)
		state.Delete(KeySubProblems)
	}
	if len(subs) == 0 {
		for _, r := range n.Tree.Roots() {
			if node := n.Tree.Node(r); node.Status == plan.StatusPending {
				subs = append(subs, node.Description)
			}
		}
	}
	return exploreInput{subs: subs, base: state}, nil
}

// Execute runs each sub-problem in its own bounded-concurrency slot.
func (n *ExploreNode) Execute(ctx context.Context, input any) (any, error) {
	in := input.(exploreInput)
	if len(in.subs) == 0 {
		return []flow.BatchResult(nil), nil
	}

	clones := make([]*flow.State, len(in.subs))
	for i := range in.subs {
		clones[i] = in.base.Clone()
	}

	batch := flow.Batch{Limit: n.Parallel}
	results := batch.Run(ctx, len(in.subs), func(ctx context.Context, i int) (any, error) {
		return n.Solve(ctx, in.subs[i], clones[i])
	})
	return results, nil
}

// Finalize records candidate answers and folds them into the research
// context for the next thought. A failed slot becomes a note, not a run
// failure.
func (n *ExploreNode) Finalize(ctx context.Context, state *flow.State, input any, res flow.Result) (flow.Action, error) {
	if res.Err != nil {
		return "", fmt.Errorf("explore failed: %w", res.Err)
	}
	in := input.(exploreInput)
	results := res.Output.([]flow.BatchResult)

	existing, _ := state.Get(KeyCandidates)
	candidates, _ := existing.([]string)

	var b strings.Builder
	for _, r := range results {
		sub := in.subs[r.Index]
		if r.Err != nil {
			n.logger.Warn("sub-problem failed", map[string]interface{}{
				"problem": sub,
				"error":   r.Err.Error(),
			})
			fmt.Fprintf(&b, "Exploration of %q failed: %v\n", sub, r.Err)
			continue
		}
		answer := r.Output.(string)
		candidates = append(candidates, answer)
		fmt.Fprintf(&b, "Exploration of %q concluded:\n%s\n", sub, answer)
	}

	if len(candidates) > 0 {
		state.Set(KeyCandidates, candidates)
	}
	if b.Len() > 0 {
		research := state.GetString(KeyResearch)
		if research != "" {
			research += "\n"
		}
		state.Set(KeyResearch, research+b.String())
	}
	return flow.ActionContinue, nil
}
