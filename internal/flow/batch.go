package flow

import (
	"context"
	"sync"
)

// BatchResult is the outcome of one sub-execution slot.
type BatchResult struct {
	Index  int
	Output any
	Err    error
}

// Batch runs independent sub-executions with bounded concurrency. At
// most Limit sub-executions are in flight at once; as each finishes the
// next queued one starts. Results come back in submission order
// regardless of completion order, and a failed slot does not abort
// siblings unless FailFast is set.
type Batch struct {
	Limit    int
	FailFast bool
}

// Run executes fn for indices 0..n-1 and returns one result per slot,
// in submission order. With FailFast, the first failure cancels the
// context handed to queued and in-flight sub-executions; already-running
// ones decide for themselves how to honor it.
func (b Batch) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) (any, error)) []BatchResult {
	results := make([]BatchResult, n)
	if n == 0 {
		return results
	}

	limit := b.Limit
	if limit <= 0 || limit > n {
		limit = n
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if b.FailFast {
		runCtx, cancel = context.WithCancel(ctx)
		defer cancel()
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		if err := runCtx.Err(); err != nil {
			// Queued sub-executions after cancellation record the
			// cancellation in their own slot.
			results[i] = BatchResult{Index: i, Err: err}
			continue
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			out, err := fn(runCtx, i)
			// Each goroutine writes only its own slot.
			results[i] = BatchResult{Index: i, Output: out, Err: err}
			if err != nil && b.FailFast {
				cancel()
			}
		}(i)
	}

	wg.Wait()
	return results
}
