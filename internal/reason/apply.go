package reason

import (
	"fmt"
	"strings"

	"github.com/Balogunolalere/Thoughbot/internal/plan"
)

// ApplyPlanning merges the reasoner's plan into the tree. Steps are
// matched to existing nodes by description; unmatched steps become new
// nodes in reported order. Tree nodes the reasoner dropped are left
// untouched, so verification and corrective bookkeeping survives a
// model that echoes a stale plan.
func ApplyPlanning(t *plan.Tree, steps []PlanStep) error {
	return mergeChildren(t, 0, steps)
}

func mergeChildren(t *plan.Tree, parent plan.NodeID, steps []PlanStep) error {
	existing := t.Roots()
	if parent != 0 {
		existing = t.Node(parent).Children
	}

	used := make(map[plan.NodeID]bool, len(existing))
	for i := range steps {
		step := &steps[i]
		if strings.TrimSpace(step.Description) == "" {
			continue
		}

		var id plan.NodeID
		for _, cid := range existing {
			if !used[cid] && t.Node(cid).Description == step.Description {
				id = cid
				break
			}
		}
		if id == 0 {
			if parent == 0 {
				id = t.AddRoot(step.Description, plan.StatusPending)
			} else {
				id = t.AddChild(parent, step.Description, plan.StatusPending)
			}
		}
		used[id] = true

		if err := applyStep(t, id, step); err != nil {
			return err
		}
		if err := mergeChildren(t, id, step.SubSteps); err != nil {
			return err
		}
	}
	return nil
}

// applyStep applies one reported step onto its tree node. A Done report
// without a result is downgraded to Pending so the result invariant
// holds and the step gets reworked instead of silently counting as
// complete. Unknown status strings are treated as Pending.
func applyStep(t *plan.Tree, id plan.NodeID, step *PlanStep) error {
	status, err := plan.ParseStatus(step.Status)
	if err != nil {
		status = plan.StatusPending
	}
	if status == plan.StatusDone && strings.TrimSpace(step.Result) == "" {
		status = plan.StatusPending
	}

	if step.Mark != "" {
		t.Node(id).Mark = step.Mark
	}

	// A completed node is not demoted by a stale echo. Reopening Done
	// work is the failure handler's job, not the merge's.
	if t.Node(id).Status == plan.StatusDone && status != plan.StatusDone {
		return nil
	}

	if status == plan.StatusDone {
		if err := t.SetDone(id, step.Result); err != nil {
			return fmt.Errorf("apply step %q: %w", step.Description, err)
		}
		return nil
	}
	if err := t.SetStatus(id, status); err != nil {
		return fmt.Errorf("apply step %q: %w", step.Description, err)
	}
	return nil
}
