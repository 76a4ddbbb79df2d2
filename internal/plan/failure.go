package plan

import (
	"fmt"
	"strings"
)

// FailureClassifier decides whether a verification result reports a
// failure. Substring matching against a vocabulary is inherently fuzzy
// (a result explaining why something did not fail still contains the
// word), so the policy is pluggable rather than hard-coded.
type FailureClassifier interface {
	// Classify returns a short human-readable detail of the failure and
	// true when the result text indicates a failed verification.
	Classify(result string) (detail string, failed bool)
}

// DefaultFailureTerms is the vocabulary the default classifier matches,
// case-insensitively, as substrings.
var DefaultFailureTerms = []string{"failed", "failure", "incorrect", "mismatch"}

// VocabularyClassifier matches a failure vocabulary case-insensitively.
type VocabularyClassifier struct {
	Terms []string
}

// NewVocabularyClassifier creates a classifier over the given terms,
// falling back to DefaultFailureTerms when none are given.
func NewVocabularyClassifier(terms []string) *VocabularyClassifier {
	if len(terms) == 0 {
		terms = DefaultFailureTerms
	}
	return &VocabularyClassifier{Terms: terms}
}

// Classify implements FailureClassifier.
func (c *VocabularyClassifier) Classify(result string) (string, bool) {
	lower := strings.ToLower(result)
	for _, term := range c.Terms {
		if strings.Contains(lower, strings.ToLower(term)) {
			return failureDetail(result), true
		}
	}
	return "", false
}

// failureDetail strips the boilerplate failure prefix a verification
// result usually starts with, leaving the specific finding.
func failureDetail(result string) string {
	detail := strings.TrimSpace(result)
	for _, prefix := range []string{"verification failed", "verification failure", "failed"} {
		if len(detail) > len(prefix) && strings.EqualFold(detail[:len(prefix)], prefix) {
			detail = strings.TrimLeft(detail[len(prefix):], " :,-.")
			break
		}
	}
	if detail == "" {
		detail = strings.TrimSpace(result)
	}
	return detail
}

// Reopened records one failure-handler action: which parent was reopened,
// which verification node flagged it, and the corrective step appended.
type Reopened struct {
	Parent       NodeID
	Verification NodeID
	Corrective   NodeID
	Detail       string
}

// FailureHandler scans for completed verification steps whose result
// reports a failure, reopens the verified parent, and appends a
// corrective step naming the specific failure. The failed verification
// node itself is never modified; it stays Done as an audit record.
type FailureHandler struct {
	Classifier FailureClassifier
}

// NewFailureHandler creates a handler with the given classifier, or the
// default vocabulary classifier when nil.
func NewFailureHandler(c FailureClassifier) *FailureHandler {
	if c == nil {
		c = NewVocabularyClassifier(nil)
	}
	return &FailureHandler{Classifier: c}
}

// Apply rewrites the tree and returns one record per reopened parent.
// A verification failure that already has a corrective sibling linked to
// it is skipped, so re-running the pass over the same unresolved state
// adds nothing.
func (h *FailureHandler) Apply(t *Tree) []Reopened {
	// Snapshot the arena size up front: corrective nodes appended during
	// the pass must not be scanned by the same pass.
	total := t.Len()
	var actions []Reopened

	for id := NodeID(1); int(id) <= total; id++ {
		n := t.Node(id)
		if n.Status != StatusDone || !IsVerification(n.Description) {
			continue
		}
		detail, failed := h.Classifier.Classify(n.Result)
		if !failed {
			continue
		}
		parent := t.Node(n.Parent)
		if parent == nil {
			continue // detached verification, nothing to reopen
		}
		if h.corrected(t, parent, id) {
			continue
		}

		t.Reopen(parent.ID)
		desc := fmt.Sprintf("Correct '%s': %s", parent.Description, detail)
		corrective := t.AddChild(parent.ID, desc, StatusPending)
		t.Node(corrective).Corrects = id

		actions = append(actions, Reopened{
			Parent:       parent.ID,
			Verification: id,
			Corrective:   corrective,
			Detail:       detail,
		})
	}
	return actions
}

// corrected reports whether parent already carries a corrective step for
// the given verification node.
func (h *FailureHandler) corrected(t *Tree, parent *Node, verification NodeID) bool {
	for _, c := range parent.Children {
		if child := t.Node(c); child != nil && child.Corrects == verification {
			return true
		}
	}
	return false
}
