package pipeline

import (
	"context"
	"fmt"
	"sync"
)

// BatchResult pairs one item's output with the error it produced, at the
// same index as its input. Callers decide per item whether a failure is
// fatal or recoverable.
type BatchResult[R any] struct {
	Value R
	Err   error
}

// RunBatch applies fn to every item with at most concurrency workers.
// Results come back in input order regardless of completion order. A
// cancelled context stops scheduling new items; already-running items
// finish, and unscheduled slots report the context error.
func RunBatch[T, R any](
	ctx context.Context, items []T, concurrency int,
	fn func(ctx context.Context, item T) (R, error),
) []BatchResult[R] {
	results := make([]BatchResult[R], len(items))

	if len(items) == 0 {
		return results
	}

	if concurrency < 1 {
		concurrency = 1
	}

	wg := sync.WaitGroup{}
	sem := make(chan struct{}, concurrency)

	for i, item := range items {
		wg.Add(1)

		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i].Err = fmt.Errorf("batch item %d not scheduled: %w", i, ctx.Err())

				return
			}

			results[i].Value, results[i].Err = fn(ctx, item)
		}()
	}

	wg.Wait()

	return results
}
