package plan

// DefaultMaxDepth bounds recursive self-verification. A task that is
// already wrapped in three verification layers does not get a fourth.
const DefaultMaxDepth = 3

// Inserter appends verification steps to completed work. After a pass,
// every Done leaf whose verification depth is under MaxDepth has gained
// exactly one VerificationNeeded child asking to verify its result.
type Inserter struct {
	MaxDepth int
}

// NewInserter creates an inserter with the given depth bound. Zero or
// negative means DefaultMaxDepth.
func NewInserter(maxDepth int) *Inserter {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Inserter{MaxDepth: maxDepth}
}

// Apply rewrites the tree top-down and returns the handles of the
// verification nodes it inserted. A node that received its verification
// child in this pass is not re-evaluated in the same pass, and a node
// that already has children (a pending verification, a corrective step)
// is left alone, so the pass is idempotent while the new children stay
// un-Done.
func (in *Inserter) Apply(t *Tree) []NodeID {
	var inserted []NodeID
	for _, r := range t.Roots() {
		inserted = in.apply(t, r, inserted)
	}
	return inserted
}

func (in *Inserter) apply(t *Tree, id NodeID, inserted []NodeID) []NodeID {
	n := t.Node(id)
	if n == nil {
		return inserted
	}

	var added NodeID
	if n.Status == StatusDone && len(n.Children) == 0 && VerificationDepth(n.Description) < in.MaxDepth {
		added = t.AddChild(id, VerifyDescription(n.Description), StatusVerificationNeeded)
		inserted = append(inserted, added)
	}

	// Recurse into pre-existing children only; the child added above is
	// single-shot for this pass.
	for _, c := range n.Children {
		if c == added {
			continue
		}
		inserted = in.apply(t, c, inserted)
	}
	return inserted
}
