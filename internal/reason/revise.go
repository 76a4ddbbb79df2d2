package reason

import (
	"context"

	"github.com/Balogunolalere/Thoughbot/internal/flow"
)

// ReviseNode folds reviewer feedback into the problem statement so the
// next thought reworks the plan against it. The node makes no external
// calls.
type ReviseNode struct{}

// Prepare pops the pending feedback out of run state.
func (n *ReviseNode) Prepare(ctx context.Context, state *flow.State) (any, error) {
	feedback := state.GetString(KeyFeedback)
	state.Delete(KeyFeedback)
	return feedback, nil
}

// Execute is a no-op.
func (n *ReviseNode) Execute(ctx context.Context, input any) (any, error) {
	return input, nil
}

// Finalize amends the problem statement with the feedback.
func (n *ReviseNode) Finalize(ctx context.Context, state *flow.State, input any, res flow.Result) (flow.Action, error) {
	feedback := input.(string)
	if feedback != "" {
		problem := state.GetString(KeyProblem)
		state.Set(KeyProblem, problem+"\nReviewer feedback: "+feedback)
	}
	return flow.ActionContinue, nil
}
