// Package reason implements the reasoning nodes that drive a plan tree
// to completion: the core thought loop plus the explore, critique,
// revise and spawn collaborator nodes.
package reason

import (
	"fmt"
	"strings"
)

// PlanStep is one step of the plan as the reasoner reports it. Steps
// nest through SubSteps; unknown fields in the model output are ignored.
type PlanStep struct {
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Result      string     `json:"result,omitempty"`
	Mark        string     `json:"mark,omitempty"`
	SubSteps    []PlanStep `json:"sub_steps,omitempty"`
}

// Decision is one reasoning step's structured output.
type Decision struct {
	CurrentThinking   string     `json:"current_thinking"`
	Planning          []PlanStep `json:"planning"`
	NextAction        string     `json:"next_action"`
	SubProblem        string     `json:"sub_problem,omitempty"`
	NextThoughtNeeded bool       `json:"next_thought_needed"`
}

// Thought is one completed reasoning step kept as prompt history.
type Thought struct {
	Number   int    `json:"thought_number"`
	Thinking string `json:"current_thinking"`
}

// FormatSteps renders plan steps as an indented text outline.
func FormatSteps(steps []PlanStep) string {
	var b strings.Builder
	formatSteps(&b, steps, 0)
	return strings.TrimRight(b.String(), "\n")
}

func formatSteps(b *strings.Builder, steps []PlanStep, indent int) {
	prefix := strings.Repeat("  ", indent)
	for _, s := range steps {
		fmt.Fprintf(b, "%s- [%s] %s", prefix, s.Status, s.Description)
		if s.Result != "" {
			fmt.Fprintf(b, " -> %s", s.Result)
		}
		if s.Mark != "" {
			fmt.Fprintf(b, " (%s)", s.Mark)
		}
		b.WriteString("\n")
		formatSteps(b, s.SubSteps, indent+1)
	}
}
