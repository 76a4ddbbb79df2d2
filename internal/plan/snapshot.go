package plan

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

// Snapshot is the serializable form of a plan node. This shape is the
// sole structural contract callers may depend on for display or
// persistence between steps.
type Snapshot struct {
	ID          int        `json:"id" yaml:"id"`
	Description string     `json:"description" yaml:"description"`
	Status      Status     `json:"status" yaml:"status"`
	Result      string     `json:"result" yaml:"result"`
	PriorResult string     `json:"prior_result,omitempty" yaml:"prior_result,omitempty"`
	Mark        string     `json:"mark,omitempty" yaml:"mark,omitempty"`
	Children    []Snapshot `json:"children" yaml:"children"`
}

// Snapshot captures the current tree as an ordered forest of root
// snapshots. The returned value shares nothing with the tree.
func (t *Tree) Snapshot() []Snapshot {
	snaps := make([]Snapshot, 0, len(t.roots))
	for _, r := range t.roots {
		snaps = append(snaps, t.snapshot(r))
	}
	return snaps
}

func (t *Tree) snapshot(id NodeID) Snapshot {
	n := t.Node(id)
	s := Snapshot{
		ID:          int(n.ID),
		Description: n.Description,
		Status:      n.Status,
		Result:      n.Result,
		PriorResult: n.PriorResult,
		Mark:        n.Mark,
		Children:    make([]Snapshot, 0, len(n.Children)),
	}
	for _, c := range n.Children {
		s.Children = append(s.Children, t.snapshot(c))
	}
	return s
}

// EncodeJSON writes a snapshot forest as indented JSON.
func EncodeJSON(w io.Writer, snaps []Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snaps)
}

// EncodeYAML writes a snapshot forest as YAML.
func EncodeYAML(w io.Writer, snaps []Snapshot) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(snaps)
}

// DecodeJSON reads a snapshot forest from JSON, for the render command
// and tests.
func DecodeJSON(r io.Reader) ([]Snapshot, error) {
	var snaps []Snapshot
	if err := json.NewDecoder(r).Decode(&snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}
