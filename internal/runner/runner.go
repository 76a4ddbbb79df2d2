// Package runner assembles the reasoning graph and drives runs end to
// end: the thought loop, its collaborator nodes, transcript recording,
// and tracing.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/Balogunolalere/Thoughbot/internal/config"
	"github.com/Balogunolalere/Thoughbot/internal/flow"
	"github.com/Balogunolalere/Thoughbot/internal/llm"
	"github.com/Balogunolalere/Thoughbot/internal/logging"
	"github.com/Balogunolalere/Thoughbot/internal/plan"
	"github.com/Balogunolalere/Thoughbot/internal/reason"
	"github.com/Balogunolalere/Thoughbot/internal/scrape"
	"github.com/Balogunolalere/Thoughbot/internal/search"
	"github.com/Balogunolalere/Thoughbot/internal/session"
)

// Runner drives reasoning runs.
type Runner struct {
	cfg      *config.Config
	provider llm.Provider
	store    session.Store  // nil disables transcript persistence
	mirror   session.Mirror // nil disables event mirroring

	researcher *reason.Researcher
	logger     *logging.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithStore enables transcript persistence.
func WithStore(store session.Store) Option {
	return func(r *Runner) { r.store = store }
}

// WithMirror enables live event mirroring.
func WithMirror(m session.Mirror) Option {
	return func(r *Runner) { r.mirror = m }
}

// New creates a runner with its collaborators built from config.
func New(cfg *config.Config, provider llm.Provider, opts ...Option) *Runner {
	searcher := search.New(time.Duration(cfg.Search.TimeoutSec)*time.Second, cfg.Search.MaxRetries, nil)
	scraper := scrape.New(
		time.Duration(cfg.Scrape.TimeoutSec)*time.Second,
		cfg.Scrape.MaxRetries,
		time.Second,
	)
	searchOpts := search.Options{
		Locale:     cfg.Search.Locale,
		SafeSearch: cfg.Search.SafeSearch,
	}

	r := &Runner{
		cfg:        cfg,
		provider:   provider,
		researcher: reason.NewResearcher(searcher, scraper, searchOpts, cfg.Scrape.MaxURLs),
		logger:     logging.New().WithComponent("runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunResult is the outcome of one reasoning run.
type RunResult struct {
	RunID    string
	Answer   string
	Thoughts int
	Plan     []plan.Snapshot
	Duration time.Duration
}

// Run drives one problem to an answer. On failure the returned result
// still carries the run id and the plan as it stood, for post-mortems.
func (r *Runner) Run(ctx context.Context, problem string) (*RunResult, error) {
	tree := plan.NewTree()
	sess := session.NewSession(problem)
	rec := session.NewRecorder(sess, r.store, tree)
	rec.Mirror = r.mirror

	logger := r.logger.WithRunID(sess.ID)
	ctx, span := startRunSpan(ctx, sess.ID, problem)

	f, state, err := r.buildFlow(tree, rec, problem)
	if err != nil {
		endRunSpan(span, session.StatusFailed, err)
		return &RunResult{RunID: sess.ID}, err
	}

	logger.RunStart(problem)
	rec.RunStarted()
	start := time.Now()

	_, runErr := f.Run(ctx, state)
	elapsed := time.Since(start)

	result := &RunResult{
		RunID:    sess.ID,
		Plan:     tree.Snapshot(),
		Duration: elapsed,
	}
	if n, ok := state.Get(reason.KeyThoughtNumber); ok {
		result.Thoughts = n.(int)
	}

	if runErr != nil {
		rec.RunFailed(runErr, elapsed)
		logger.RunComplete(elapsed, session.StatusFailed)
		endRunSpan(span, session.StatusFailed, runErr)
		return result, fmt.Errorf("run %s: %w", sess.ID, runErr)
	}

	result.Answer = state.GetString(reason.KeySolution)
	rec.RunCompleted(result.Answer, elapsed)
	logger.RunComplete(elapsed, session.StatusComplete)
	endRunSpan(span, session.StatusComplete, nil)
	return result, nil
}

// buildFlow wires the reasoning graph. The thought node loops on
// continue; explore, critique, revise and spawn hang off it and route
// back.
func (r *Runner) buildFlow(tree *plan.Tree, rec *session.Recorder, problem string) (*flow.Flow, *flow.State, error) {
	think := reason.NewThoughtNode(r.provider, tree, reason.ThoughtConfig{
		MaxThoughts:   r.cfg.Run.MaxThoughts,
		HistoryWindow: r.cfg.Run.HistoryWindow,
		MaxTokens:     r.cfg.LLM.MaxTokens,
	})
	think.Inserter = plan.NewInserter(r.cfg.Run.MaxVerificationDepth)
	think.Failures = plan.NewFailureHandler(plan.NewVocabularyClassifier(r.cfg.Run.FailureTerms))
	think.Researcher = r.researcher
	think.Observer = rec

	explore := reason.NewExploreNode(r.solveSub, tree, r.cfg.Run.Parallel)
	critique := reason.NewCritiqueNode(r.provider, tree, 0)
	revise := &reason.ReviseNode{}
	spawn := reason.NewSpawnNode(r.solveSub)

	f := flow.New()
	f.Add("think", think).
		Add("explore", explore).
		Add("critique", critique).
		Add("revise", revise).
		Add("spawn", spawn)

	edges := []struct {
		from   string
		action flow.Action
		to     string
	}{
		{"think", flow.ActionContinue, "think"},
		{"think", "explore", "explore"},
		{"think", "critique", "critique"},
		{"think", "revise", "revise"},
		{"think", "spawn", "spawn"},
		{"explore", flow.ActionContinue, "think"},
		{"spawn", flow.ActionContinue, "think"},
		{"critique", flow.ActionContinue, "think"},
		{"critique", "revise", "revise"},
		{"revise", flow.ActionContinue, "think"},
	}
	for _, e := range edges {
		if err := f.Connect(e.from, e.action, e.to); err != nil {
			return nil, nil, err
		}
	}

	state := flow.NewState()
	state.Set(reason.KeyProblem, problem)
	return f, state, nil
}

// solveSub runs one exploration sub-problem on its own tree and thought
// loop. The clone carries the parent's research context in; transcript
// recording stays with the parent run.
func (r *Runner) solveSub(ctx context.Context, problem string, state *flow.State) (string, error) {
	ctx, span := startSubProblemSpan(ctx, problem)

	subTree := plan.NewTree()
	think := reason.NewThoughtNode(r.provider, subTree, reason.ThoughtConfig{
		MaxThoughts:   r.cfg.Run.MaxThoughts,
		HistoryWindow: r.cfg.Run.HistoryWindow,
		MaxTokens:     r.cfg.LLM.MaxTokens,
	})
	think.Inserter = plan.NewInserter(r.cfg.Run.MaxVerificationDepth)
	think.Failures = plan.NewFailureHandler(plan.NewVocabularyClassifier(r.cfg.Run.FailureTerms))
	think.Researcher = r.researcher

	// Sub-problems get the plain loop. Advanced actions route back to
	// the loop rather than spawning further nesting.
	f := flow.New()
	f.Add("think", think)
	for _, action := range []flow.Action{flow.ActionContinue, "explore", "critique", "revise", "spawn"} {
		if err := f.Connect("think", action, "think"); err != nil {
			endSubProblemSpan(span, err)
			return "", err
		}
	}

	state.Set(reason.KeyProblem, problem)
	state.Delete(reason.KeyThoughts)
	state.Delete(reason.KeyThoughtNumber)
	state.Delete(reason.KeySolution)

	if _, err := f.Run(ctx, state); err != nil {
		endSubProblemSpan(span, err)
		return "", err
	}
	endSubProblemSpan(span, nil)
	return state.GetString(reason.KeySolution), nil
}
