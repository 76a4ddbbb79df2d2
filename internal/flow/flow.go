// Package flow drives a graph of named nodes through labeled-edge
// transitions. Each node runs a three-phase contract: prepare derives
// local input from shared run state, execute performs the external call,
// and finalize writes results back and returns an action label that
// selects the next node.
package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/Balogunolalere/Thoughbot/internal/logging"
)

// Action is an open routing token returned by a node's finalize phase.
// Labels are free text so collaborators can define their own edges; an
// action with no mapped successor ends the run.
type Action string

// Conventional labels. Nothing in the engine special-cases these.
const (
	ActionContinue Action = "continue"
	ActionEnd      Action = "end"
)

// Result carries the outcome of a node's execute phase into finalize.
// When the execute phase fails past its retry budget, Err is set and the
// finalize phase decides the resulting action instead of the run dying.
type Result struct {
	Output   any
	Err      error
	Attempts int
}

// Node is a named processing unit.
type Node interface {
	// Prepare derives the execute input from shared run state. It runs
	// on the control goroutine and must not block on external calls.
	Prepare(ctx context.Context, state *State) (any, error)

	// Execute performs the node's work, typically an external call. It
	// may fail with a Transient error to request a retry.
	Execute(ctx context.Context, input any) (any, error)

	// Finalize writes results into shared state and returns the action
	// label routing to the next node. It receives execute failures as
	// Result.Err and must map them to an action rather than panic.
	Finalize(ctx context.Context, state *State, input any, res Result) (Action, error)
}

// RetryPolicy bounds execute-phase retries for one node.
type RetryPolicy struct {
	MaxAttempts int           // total attempts, default 3
	Backoff     time.Duration // initial wait between attempts, default 100ms
	Factor      float64       // backoff multiplier, default 2
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.Backoff <= 0 {
		p.Backoff = 100 * time.Millisecond
	}
	if p.Factor < 1 {
		p.Factor = 2
	}
	return p
}

type entry struct {
	node       Node
	retry      RetryPolicy
	successors map[Action]string
}

// Flow is the run graph: named nodes plus per-node successor maps.
type Flow struct {
	nodes  map[string]*entry
	start  string
	logger *logging.Logger
}

// New creates an empty flow.
func New() *Flow {
	return &Flow{
		nodes:  make(map[string]*entry),
		logger: logging.New().WithComponent("flow"),
	}
}

// Add registers a node under a name. The first node added is the start
// node unless SetStart overrides it.
func (f *Flow) Add(name string, n Node) *Flow {
	f.nodes[name] = &entry{
		node:       n,
		successors: make(map[Action]string),
	}
	if f.start == "" {
		f.start = name
	}
	return f
}

// SetRetry sets the execute-phase retry policy for a named node.
func (f *Flow) SetRetry(name string, p RetryPolicy) error {
	e, ok := f.nodes[name]
	if !ok {
		return fmt.Errorf("flow: no node %q", name)
	}
	e.retry = p
	return nil
}

// SetStart selects the node the run begins at.
func (f *Flow) SetStart(name string) error {
	if _, ok := f.nodes[name]; !ok {
		return fmt.Errorf("flow: no node %q", name)
	}
	f.start = name
	return nil
}

// Connect maps an action label on one node to a successor node. Both
// nodes must already be registered.
func (f *Flow) Connect(from string, action Action, to string) error {
	e, ok := f.nodes[from]
	if !ok {
		return fmt.Errorf("flow: no node %q", from)
	}
	if _, ok := f.nodes[to]; !ok {
		return fmt.Errorf("flow: no node %q", to)
	}
	e.successors[action] = to
	return nil
}

// Run drives the graph from the start node until a node returns an
// unmapped action, then returns that node's execute output. Prepare and
// finalize errors abort the run; execute errors are routed through
// finalize per the node's own action mapping.
func (f *Flow) Run(ctx context.Context, state *State) (any, error) {
	if f.start == "" {
		return nil, fmt.Errorf("flow: no nodes registered")
	}

	current := f.start
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e := f.nodes[current]

		input, err := e.node.Prepare(ctx, state)
		if err != nil {
			return nil, fmt.Errorf("flow: node %q prepare: %w", current, err)
		}

		res := f.execute(ctx, current, e, input)

		action, err := e.node.Finalize(ctx, state, input, res)
		if err != nil {
			return nil, fmt.Errorf("flow: node %q finalize: %w", current, err)
		}

		next, ok := e.successors[action]
		if !ok {
			f.logger.Debug("run complete", map[string]interface{}{
				"node":   current,
				"action": string(action),
			})
			return res.Output, nil
		}
		f.logger.Debug("transition", map[string]interface{}{
			"from":   current,
			"action": string(action),
			"to":     next,
		})
		current = next
	}
}

// execute runs the execute phase with the node's retry policy. Only
// Transient errors are retried; anything else surfaces immediately in
// the Result for finalize to route.
func (f *Flow) execute(ctx context.Context, name string, e *entry, input any) Result {
	p := e.retry.withDefaults()
	backoff := p.Backoff

	var out any
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		out, err = e.node.Execute(ctx, input)
		if err == nil {
			return Result{Output: out, Attempts: attempt}
		}
		if !IsTransient(err) {
			return Result{Err: err, Attempts: attempt}
		}
		if attempt == p.MaxAttempts {
			break
		}

		f.logger.Warn("execute retry", map[string]interface{}{
			"node":    name,
			"attempt": attempt,
			"error":   err.Error(),
		})
		select {
		case <-ctx.Done():
			return Result{Err: ctx.Err(), Attempts: attempt}
		case <-time.After(backoff):
		}
		backoff = time.Duration(float64(backoff) * p.Factor)
	}
	return Result{Err: err, Attempts: p.MaxAttempts}
}
