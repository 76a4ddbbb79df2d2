// Package plan implements the reasoning plan tree.
package plan

import (
	"fmt"
	"strings"
)

// Status represents the lifecycle state of a plan node.
type Status string

const (
	StatusPending            Status = "Pending"
	StatusDone               Status = "Done"
	StatusVerificationNeeded Status = "VerificationNeeded"
	StatusSearchNeeded       Status = "SearchNeeded"
)

// ParseStatus normalizes a status string from collaborator output.
// LLMs frequently emit "Verification Needed" or "search needed"; both
// map onto the canonical values.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "")) {
	case "pending", "":
		return StatusPending, nil
	case "done", "complete", "completed":
		return StatusDone, nil
	case "verificationneeded", "verify":
		return StatusVerificationNeeded, nil
	case "searchneeded", "search":
		return StatusSearchNeeded, nil
	}
	return "", fmt.Errorf("unknown plan status %q", s)
}

// NodeID is a handle into a Tree's node arena. Zero is the null handle.
type NodeID int

// Node is a single task unit in the plan tree. Nodes are owned by their
// Tree; Parent and Children are arena handles, never pointers, so the
// tree stays cycle-free and trivially serializable.
type Node struct {
	ID          NodeID
	Description string
	Status      Status
	Result      string
	Mark        string // optional free-form note (research hints, caveats)
	Parent      NodeID
	Children    []NodeID

	// PriorResult holds the result a node had before it was reopened by
	// the failure handler. Kept as context for the rework step.
	PriorResult string

	// Corrects links a corrective step to the failed verification node it
	// addresses. Used to keep the failure handler idempotent.
	Corrects NodeID
}

// Tree is the rooted, ordered plan tree for one run. A Tree is mutated
// only by the run's control goroutine; it is not safe for concurrent use.
type Tree struct {
	nodes []*Node
	roots []NodeID
}

// NewTree creates an empty plan tree.
func NewTree() *Tree {
	return &Tree{}
}

func (t *Tree) alloc(desc string, status Status, parent NodeID) NodeID {
	id := NodeID(len(t.nodes) + 1)
	t.nodes = append(t.nodes, &Node{
		ID:          id,
		Description: desc,
		Status:      status,
		Parent:      parent,
	})
	return id
}

// AddRoot appends a new top-level node.
func (t *Tree) AddRoot(desc string, status Status) NodeID {
	id := t.alloc(desc, status, 0)
	t.roots = append(t.roots, id)
	return id
}

// AddChild appends a new child to parent, preserving insertion order.
func (t *Tree) AddChild(parent NodeID, desc string, status Status) NodeID {
	p := t.Node(parent)
	if p == nil {
		return 0
	}
	id := t.alloc(desc, status, parent)
	p.Children = append(p.Children, id)
	return id
}

// Node returns the node for a handle, or nil for the null handle or an
// out-of-range id.
func (t *Tree) Node(id NodeID) *Node {
	if id < 1 || int(id) > len(t.nodes) {
		return nil
	}
	return t.nodes[id-1]
}

// Roots returns the ordered top-level node handles.
func (t *Tree) Roots() []NodeID {
	return t.roots
}

// Len returns the total number of nodes ever created in this tree.
// Nodes are never deleted, so this is also the arena size.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Walk visits every node in preorder (parents before children, siblings
// in insertion order). Walking stops early if fn returns false.
func (t *Tree) Walk(fn func(n *Node) bool) {
	var visit func(id NodeID) bool
	visit = func(id NodeID) bool {
		n := t.Node(id)
		if n == nil {
			return true
		}
		if !fn(n) {
			return false
		}
		for _, c := range n.Children {
			if !visit(c) {
				return false
			}
		}
		return true
	}
	for _, r := range t.roots {
		if !visit(r) {
			return
		}
	}
}

// SetDone marks a node Done with its result text. Done nodes must carry
// a non-empty result.
func (t *Tree) SetDone(id NodeID, result string) error {
	n := t.Node(id)
	if n == nil {
		return fmt.Errorf("plan: no node %d", id)
	}
	if strings.TrimSpace(result) == "" {
		return fmt.Errorf("plan: node %d cannot be Done with an empty result", id)
	}
	n.Status = StatusDone
	n.Result = result
	return nil
}

// SetStatus transitions a node to a non-Done status, clearing its result
// so the result/status coupling holds. Use SetDone for Done.
func (t *Tree) SetStatus(id NodeID, status Status) error {
	n := t.Node(id)
	if n == nil {
		return fmt.Errorf("plan: no node %d", id)
	}
	if status == StatusDone {
		return fmt.Errorf("plan: node %d: use SetDone to mark Done", id)
	}
	n.Status = status
	n.Result = ""
	return nil
}

// Reopen returns a Done node to Pending for rework. The previous result
// is moved to PriorResult so the rework step can see what was there.
func (t *Tree) Reopen(id NodeID) error {
	n := t.Node(id)
	if n == nil {
		return fmt.Errorf("plan: no node %d", id)
	}
	if n.Result != "" {
		n.PriorResult = n.Result
	}
	n.Status = StatusPending
	n.Result = ""
	return nil
}

// PendingCount returns the number of nodes that still need work
// (anything not Done).
func (t *Tree) PendingCount() int {
	count := 0
	t.Walk(func(n *Node) bool {
		if n.Status != StatusDone {
			count++
		}
		return true
	})
	return count
}

// Find returns the first node in preorder whose description matches
// exactly, or nil.
func (t *Tree) Find(desc string) *Node {
	var found *Node
	t.Walk(func(n *Node) bool {
		if n.Description == desc {
			found = n
			return false
		}
		return true
	})
	return found
}
