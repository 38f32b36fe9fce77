package resilience

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// Outcome is one item's result from RunBounded.
type Outcome[R any] struct {
	Value R
	Err   error
}

// RunBounded runs worker over every item with at most concurrency
// in-flight calls. Results land in an index-addressed slice matching
// the input order, so completion order never reshuffles them. One
// item failing never aborts the rest; every item gets an Outcome.
func RunBounded[T, R any](
	ctx context.Context,
	items []T,
	concurrency int,
	worker func(ctx context.Context, item T) (R, error),
) ([]Outcome[R], error) {
	results := make([]Outcome[R], len(items))
	if len(items) == 0 {
		return results, nil
	}

	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(items) {
		concurrency = len(items)
	}

	pool, err := ants.NewPool(concurrency)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := range items {
		i := i
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return
			}
			value, err := worker(ctx, items[i])
			results[i] = Outcome[R]{Value: value, Err: err}
		})
		if submitErr != nil {
			results[i].Err = submitErr
			wg.Done()
		}
	}
	wg.Wait()

	return results, nil
}
