package reason

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Balogunolalere/Thoughbot/internal/plan"
)

const maxThinkingInHistory = 500

// PromptInput carries everything one reasoning step needs.
type PromptInput struct {
	Problem  string
	History  []Thought
	Snapshot []plan.Snapshot
	Number   int
	Research string
}

// BuildPrompt renders the reasoning prompt for one thought. The plan is
// included as JSON so the model returns it in the same shape; history
// thinking is truncated to keep the context bounded.
func BuildPrompt(in PromptInput) string {
	history := "No previous thoughts."
	if len(in.History) > 0 {
		entries := make([]Thought, len(in.History))
		for i, t := range in.History {
			entries[i] = t
			if len(entries[i].Thinking) > maxThinkingInHistory {
				entries[i].Thinking = entries[i].Thinking[:maxThinkingInHistory]
			}
		}
		if b, err := json.MarshalIndent(entries, "", "  "); err == nil {
			history = string(b)
		}
	}

	planSection := "No plan yet. Create one."
	if len(in.Snapshot) > 0 {
		if b, err := json.MarshalIndent(in.Snapshot, "", "  "); err == nil {
			planSection = string(b)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, `You are an advanced reasoning engine.

Problem:
%s

Previous thoughts:
%s

Current plan:
%s

Current thought number: %d
`, in.Problem, history, planSection, in.Number)

	if in.Research != "" {
		fmt.Fprintf(&b, "\nGathered research:\n%s\n", in.Research)
	}

	b.WriteString(`
Instructions:
1. Evaluate the last step's result and impact.
2. Pick the next pending step and execute it.
3. Update the plan: mark steps Pending, Done, Verification Needed, or Search Needed.
4. A step marked Done must carry a concise, concrete result.
5. Mark a step Search Needed when it requires facts you do not have; put the search query in its mark.
6. If a step failed, adjust the plan or add corrective steps.
7. When the plan is entirely complete, set next_thought_needed to false.
8. If an advanced capability will help, set next_action to explore, critique, revise, or spawn; otherwise leave it as continue.
9. For spawn, put the delegated question in sub_problem; a sub-agent answers it independently.

Return ONLY valid JSON matching this schema:
{
  "current_thinking": "<detailed reasoning>",
  "planning": [
    {
      "description": "<step text>",
      "status": "Pending|Done|Verification Needed|Search Needed",
      "result": "<concise outcome>",
      "mark": "<optional note or search query>",
      "sub_steps": []
    }
  ],
  "next_action": "continue|explore|critique|revise|spawn",
  "sub_problem": "<delegated question, only when next_action is spawn>",
  "next_thought_needed": true|false
}
`)
	return b.String()
}
