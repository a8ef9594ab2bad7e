package pool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Submit decodes every one of tokens concurrently, bounded by the pool's
// worker limit, and returns one Result per input (in the same order). A
// cancelled ctx stops jobs that have not yet started or finished; jobs
// already complete keep their result.
func (p *Pool) Submit(ctx context.Context, tokens [][]string) []Result {
	results := make([]Result, len(tokens))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, t := range tokens {
		i, t := i, t
		eg.Go(func() error {
			h, err := p.Dispatch(egCtx, t)
			if err != nil {
				results[i] = Result{Err: err}
				return nil
			}
			results[i] = h.Wait()
			return nil
		})
	}
	_ = eg.Wait() // errors are carried per-result, never aborts the batch
	return results
}
