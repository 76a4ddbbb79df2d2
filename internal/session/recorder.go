package session

import (
	"time"

	"github.com/Balogunolalere/Thoughbot/internal/logging"
	"github.com/Balogunolalere/Thoughbot/internal/plan"
)

// Mirror receives a copy of every recorded event, for live consumers
// such as a message broker. Mirror failures are logged, never fatal.
type Mirror interface {
	Publish(runID string, event Event) error
}

// Recorder appends run events to a session transcript as the reasoning
// loop reports them, persisting after every event so a watcher can
// follow the run live.
type Recorder struct {
	Session *Session
	Store   Store  // nil disables persistence
	Tree    *plan.Tree
	Mirror  Mirror // nil disables mirroring

	logger *logging.Logger
}

// NewRecorder creates a recorder for one run.
func NewRecorder(sess *Session, store Store, tree *plan.Tree) *Recorder {
	return &Recorder{
		Session: sess,
		Store:   store,
		Tree:    tree,
		logger:  logging.New().WithComponent("session").WithRunID(sess.ID),
	}
}

func (r *Recorder) record(event Event) {
	r.Session.AddEvent(event)
	if r.Mirror != nil {
		if err := r.Mirror.Publish(r.Session.ID, event); err != nil {
			r.logger.Warn("event mirror failed", map[string]interface{}{
				"type":  event.Type,
				"error": err.Error(),
			})
		}
	}
	r.persist()
}

func (r *Recorder) persist() {
	if r.Store == nil {
		return
	}
	if err := r.Store.Save(r.Session); err != nil {
		r.logger.Warn("transcript save failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// RunStarted records the start of the run.
func (r *Recorder) RunStarted() {
	r.record(Event{Type: EventRunStart, Content: r.Session.Problem})
}

// ThoughtRecorded records one completed reasoning step with the tree
// state after it.
func (r *Recorder) ThoughtRecorded(number int, thinking, action string) {
	event := Event{
		Type:    EventThought,
		Thought: number,
		Content: thinking,
		Action:  action,
	}
	if r.Tree != nil {
		event.Plan = r.Tree.Snapshot()
	}
	r.record(event)
}

// VerificationInserted records the verification steps added after a
// thought.
func (r *Recorder) VerificationInserted(ids []plan.NodeID) {
	nodes := make([]int, len(ids))
	for i, id := range ids {
		nodes[i] = int(id)
	}
	r.record(Event{Type: EventVerificationInserted, Nodes: nodes})
}

// FailureReopened records each reopened parent with its failure detail.
func (r *Recorder) FailureReopened(reopened []plan.Reopened) {
	for _, a := range reopened {
		r.record(Event{
			Type:    EventFailureReopened,
			Content: a.Detail,
			Nodes:   []int{int(a.Parent), int(a.Verification), int(a.Corrective)},
		})
	}
}

// ResearchGathered records a completed research query.
func (r *Recorder) ResearchGathered(query string) {
	r.record(Event{Type: EventResearch, Query: query})
}

// RunCompleted closes the transcript with the answer and final plan.
func (r *Recorder) RunCompleted(answer string, duration time.Duration) {
	r.Session.Complete(answer)
	event := Event{
		Type:     EventRunEnd,
		Content:  answer,
		Duration: duration.Milliseconds(),
	}
	if r.Tree != nil {
		event.Plan = r.Tree.Snapshot()
	}
	r.record(event)
}

// RunFailed closes the transcript with the failure.
func (r *Recorder) RunFailed(err error, duration time.Duration) {
	r.Session.Fail(err)
	event := Event{
		Type:     EventRunEnd,
		Duration: duration.Milliseconds(),
	}
	if err != nil {
		event.Error = err.Error()
	}
	if r.Tree != nil {
		event.Plan = r.Tree.Snapshot()
	}
	r.record(event)
}
