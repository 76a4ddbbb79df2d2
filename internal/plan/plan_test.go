package plan

import (
	"bytes"
	"strings"
	"testing"
)

func TestAddAndWalkOrder(t *testing.T) {
	tree := NewTree()
	a := tree.AddRoot("step a", StatusPending)
	b := tree.AddRoot("step b", StatusPending)
	a1 := tree.AddChild(a, "step a1", StatusPending)
	a2 := tree.AddChild(a, "step a2", StatusPending)

	var order []NodeID
	tree.Walk(func(n *Node) bool {
		order = append(order, n.ID)
		return true
	})

	want := []NodeID{a, a1, a2, b}
	if len(order) != len(want) {
		t.Fatalf("walk visited %d nodes, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("walk order[%d] = %d, want %d", i, order[i], want[i])
		}
	}
}

func TestParentChildConsistency(t *testing.T) {
	tree := NewTree()
	root := tree.AddRoot("root", StatusPending)
	child := tree.AddChild(root, "child", StatusPending)

	n := tree.Node(child)
	if n.Parent != root {
		t.Errorf("child parent = %d, want %d", n.Parent, root)
	}
	found := false
	for _, c := range tree.Node(root).Children {
		if c == child {
			found = true
		}
	}
	if !found {
		t.Error("child not present in parent's children")
	}
}

func TestStatusResultCoupling(t *testing.T) {
	tree := NewTree()
	id := tree.AddRoot("Compute 5*3", StatusPending)

	if err := tree.SetDone(id, ""); err == nil {
		t.Error("SetDone with empty result should fail")
	}
	if err := tree.SetDone(id, "5*3=15"); err != nil {
		t.Fatalf("SetDone() error = %v", err)
	}

	// Every node: result non-empty iff Done.
	tree.AddRoot("other", StatusPending)
	tree.Walk(func(n *Node) bool {
		if (n.Status == StatusDone) != (n.Result != "") {
			t.Errorf("node %d: status %s with result %q violates coupling", n.ID, n.Status, n.Result)
		}
		return true
	})
}

func TestReopenKeepsPriorResult(t *testing.T) {
	tree := NewTree()
	id := tree.AddRoot("task", StatusPending)
	tree.SetDone(id, "first answer")

	if err := tree.Reopen(id); err != nil {
		t.Fatalf("Reopen() error = %v", err)
	}
	n := tree.Node(id)
	if n.Status != StatusPending {
		t.Errorf("status after reopen = %s, want Pending", n.Status)
	}
	if n.Result != "" {
		t.Errorf("result after reopen = %q, want empty", n.Result)
	}
	if n.PriorResult != "first answer" {
		t.Errorf("prior result = %q, want retained", n.PriorResult)
	}
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		in   string
		want Status
	}{
		{"Pending", StatusPending},
		{"Done", StatusDone},
		{"Verification Needed", StatusVerificationNeeded},
		{"VerificationNeeded", StatusVerificationNeeded},
		{"search needed", StatusSearchNeeded},
		{"", StatusPending},
	}
	for _, c := range cases {
		got, err := ParseStatus(c.in)
		if err != nil {
			t.Errorf("ParseStatus(%q) error = %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseStatus(%q) = %s, want %s", c.in, got, c.want)
		}
	}
	if _, err := ParseStatus("bogus"); err == nil {
		t.Error("ParseStatus(bogus) should fail")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	tree := NewTree()
	root := tree.AddRoot("Compute 5*3", StatusPending)
	tree.SetDone(root, "5*3=15")
	tree.AddChild(root, VerifyDescription("Compute 5*3"), StatusVerificationNeeded)

	snaps := tree.Snapshot()
	if len(snaps) != 1 {
		t.Fatalf("snapshot roots = %d, want 1", len(snaps))
	}
	if snaps[0].Status != StatusDone || snaps[0].Result != "5*3=15" {
		t.Errorf("root snapshot = %+v", snaps[0])
	}
	if len(snaps[0].Children) != 1 {
		t.Fatalf("root children = %d, want 1", len(snaps[0].Children))
	}

	var buf bytes.Buffer
	if err := EncodeJSON(&buf, snaps); err != nil {
		t.Fatalf("EncodeJSON() error = %v", err)
	}
	back, err := DecodeJSON(&buf)
	if err != nil {
		t.Fatalf("DecodeJSON() error = %v", err)
	}
	if back[0].Children[0].Description != VerifyDescription("Compute 5*3") {
		t.Errorf("round-tripped child description = %q", back[0].Children[0].Description)
	}

	var ybuf bytes.Buffer
	if err := EncodeYAML(&ybuf, snaps); err != nil {
		t.Fatalf("EncodeYAML() error = %v", err)
	}
	if !strings.Contains(ybuf.String(), "Compute 5*3") {
		t.Error("YAML output missing node description")
	}
}

func TestSnapshotCarriesPriorResult(t *testing.T) {
	tree := NewTree()
	root := tree.AddRoot("Compute 5*3", StatusPending)
	tree.SetDone(root, "5*3=15")
	verify := tree.AddChild(root, VerifyDescription("Compute 5*3"), StatusVerificationNeeded)
	tree.SetDone(verify, "Verification failed: expected 15, got 18")

	NewFailureHandler(nil).Apply(tree)

	snaps := tree.Snapshot()
	if snaps[0].Status != StatusPending {
		t.Fatalf("reopened root status = %s, want Pending", snaps[0].Status)
	}
	if snaps[0].PriorResult != "5*3=15" {
		t.Errorf("prior result = %q, want the pre-reopen result", snaps[0].PriorResult)
	}

	var buf bytes.Buffer
	if err := EncodeJSON(&buf, snaps); err != nil {
		t.Fatalf("EncodeJSON() error = %v", err)
	}
	if !strings.Contains(buf.String(), "5*3=15") {
		t.Error("serialized tree lost the reopened node's prior result")
	}
}

func TestRenderShowsStatusAndIndent(t *testing.T) {
	tree := NewTree()
	root := tree.AddRoot("root task", StatusPending)
	tree.SetDone(root, "done it")
	tree.AddChild(root, "child task", StatusPending)

	out := tree.Render(0)
	if !strings.Contains(out, "[Done]") || !strings.Contains(out, "root task") {
		t.Errorf("render missing root line:\n%s", out)
	}
	if !strings.Contains(out, "  - ") {
		t.Errorf("render missing indented child:\n%s", out)
	}
}
