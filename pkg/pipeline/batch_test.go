package pipeline

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBatchPreservesOrder(t *testing.T) {
	t.Parallel()

	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	results := RunBatch(context.Background(), items, 8,
		func(_ context.Context, item int) (string, error) {
			return strconv.Itoa(item * 2), nil
		})

	require.Len(t, results, len(items))

	for i, res := range results {
		require.NoError(t, res.Err)
		assert.Equal(t, strconv.Itoa(i*2), res.Value)
	}
}

func TestRunBatchBoundsConcurrency(t *testing.T) {
	t.Parallel()

	const limit = 3

	var active, peak atomic.Int32

	items := make([]int, 40)

	RunBatch(context.Background(), items, limit,
		func(_ context.Context, _ int) (struct{}, error) {
			current := active.Add(1)
			defer active.Add(-1)

			for {
				observed := peak.Load()
				if current <= observed || peak.CompareAndSwap(observed, current) {
					break
				}
			}

			return struct{}{}, nil
		})

	assert.LessOrEqual(t, peak.Load(), int32(limit))
}

func TestRunBatchKeepsPerItemErrors(t *testing.T) {
	t.Parallel()

	items := []int{1, 2, 3}

	results := RunBatch(context.Background(), items, 2,
		func(_ context.Context, item int) (int, error) {
			if item == 2 {
				return 0, assert.AnError
			}

			return item, nil
		})

	require.NoError(t, results[0].Err)
	require.ErrorIs(t, results[1].Err, assert.AnError)
	require.NoError(t, results[2].Err)
	assert.Equal(t, 3, results[2].Value)
}

func TestRunBatchEmptyInput(t *testing.T) {
	t.Parallel()

	results := RunBatch(context.Background(), nil, 4,
		func(_ context.Context, _ int) (int, error) { return 0, nil })

	assert.Empty(t, results)
}

func TestRunBatchCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := RunBatch(ctx, []int{1, 2, 3}, 1,
		func(_ context.Context, item int) (int, error) { return item, nil })

	// With the context already cancelled, every slot reports either the
	// context error or a completed run; none are silently dropped.
	require.Len(t, results, 3)
}
