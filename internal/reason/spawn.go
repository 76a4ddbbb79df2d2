package reason

import (
	"context"
	"fmt"

	"github.com/Balogunolalere/Thoughbot/internal/flow"
	"github.com/Balogunolalere/Thoughbot/internal/logging"
)

// SpawnNode delegates one question to an independent sub-agent and
// folds its answer back into the parent run's context. The question
// comes from run state when the reasoner named one, otherwise the
// whole problem is delegated.
type SpawnNode struct {
	Solve SubSolver

	logger *logging.Logger
}

// NewSpawnNode creates a spawn node.
func NewSpawnNode(solve SubSolver) *SpawnNode {
	return &SpawnNode{
		Solve:  solve,
		logger: logging.New().WithComponent("spawn"),
	}
}

type spawnInput struct {
	problem string
	base    *flow.State
}

// Prepare pops the delegated question from run state.
func (n *SpawnNode) Prepare(ctx context.Context, state *flow.State) (any, error) {
	problem := state.GetString(KeySpawnProblem)
	state.Delete(KeySpawnProblem)
	if problem == "" {
		problem = state.GetString(KeyProblem)
	}
	return spawnInput{problem: problem, base: state}, nil
}

// Execute runs the sub-agent on a cloned state.
func (n *SpawnNode) Execute(ctx context.Context, input any) (any, error) {
	in := input.(spawnInput)
	return n.Solve(ctx, in.problem, in.base.Clone())
}

// Finalize records the sub-agent's answer as a candidate and research
// context. A failed sub-agent becomes a note, not a run failure.
func (n *SpawnNode) Finalize(ctx context.Context, state *flow.State, input any, res flow.Result) (flow.Action, error) {
	in := input.(spawnInput)

	var finding string
	if res.Err != nil {
		n.logger.Warn("sub-agent failed", map[string]interface{}{
			"problem": in.problem,
			"error":   res.Err.Error(),
		})
		finding = fmt.Sprintf("Sub-agent for %q failed: %v", in.problem, res.Err)
	} else {
		answer := res.Output.(string)
		existing, _ := state.Get(KeyCandidates)
		candidates, _ := existing.([]string)
		state.Set(KeyCandidates, append(candidates, answer))
		finding = fmt.Sprintf("Sub-agent answered %q:\n%s", in.problem, answer)
	}

	research := state.GetString(KeyResearch)
	if research != "" {
		research += "\n"
	}
	state.Set(KeyResearch, research+finding)
	return flow.ActionContinue, nil
}
