package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessor_Process(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}

	t.Run("Sequential", func(t *testing.T) {
		p, err := NewProcessor[int](10)
		require.NoError(t, err)

		var seen []int
		var batches []int
		err = p.Process(context.Background(), items, func(_ context.Context, batch []int, batchIndex int) error {
			batches = append(batches, batchIndex)
			seen = append(seen, batch...)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, items, seen)
		assert.Equal(t, []int{0, 1, 2}, batches)
	})

	t.Run("ErrorStops", func(t *testing.T) {
		p, _ := NewProcessor[int](10)
		calls := 0
		err := p.Process(context.Background(), items, func(_ context.Context, _ []int, batchIndex int) error {
			calls++
			if batchIndex == 1 {
				return errors.New("fail")
			}
			return nil
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch 1 failed")
		assert.Equal(t, 2, calls)
	})

	t.Run("Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := NewProcessorWithDefaults[int]()
		err := p.Process(ctx, items, func(context.Context, []int, int) error { return nil })
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("EmptyItems", func(t *testing.T) {
		p := NewProcessorWithDefaults[int]()
		called := false
		err := p.Process(context.Background(), nil, func(context.Context, []int, int) error {
			called = true
			return nil
		})
		require.NoError(t, err)
		assert.False(t, called)
	})

	t.Run("NilCallback", func(t *testing.T) {
		p := NewProcessorWithDefaults[int]()
		require.ErrorIs(t, p.Process(context.Background(), items, nil), ErrNilCallback)
	})

	t.Run("InvalidBatchSize", func(t *testing.T) {
		_, err := NewProcessor[int](0)
		require.ErrorIs(t, err, ErrInvalidBatchSize)
		_, err = NewProcessor[int](2000)
		require.ErrorIs(t, err, ErrInvalidBatchSize)
	})
}

func TestMap(t *testing.T) {
	p, _ := NewProcessor[int](4)
	var updates []float64
	p.WithProgressCallback(func(progress *Progress) {
		updates = append(updates, progress.PercentComplete())
	})

	out, err := Map(context.Background(), p, []int{1, 2, 3, 4, 5}, func(_ context.Context, chunk []int) ([]string, error) {
		res := make([]string, len(chunk))
		for i, v := range chunk {
			res[i] = string(rune('a' + v - 1))
		}
		return res, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, out)
	assert.Equal(t, []float64{80, 100}, updates)

	_, err = Map(context.Background(), p, []int{1, 2}, func(context.Context, []int) ([]string, error) {
		return []string{"only one"}, nil
	})
	require.ErrorIs(t, err, ErrResultMismatch)

	_, err = Map[int, string](context.Background(), p, []int{1}, nil)
	require.ErrorIs(t, err, ErrNilCallback)
}

func TestProgress(t *testing.T) {
	p := NewProgress(100, 10, 10)
	assert.Zero(t, p.PercentComplete())
	assert.False(t, p.IsComplete())

	p.AddProcessed(10)
	assert.InDelta(t, 10.0, p.PercentComplete(), 1e-12)
	assert.Equal(t, 1, p.ProcessedBatches)

	p.AddProcessed(90)
	assert.True(t, p.IsComplete())
	assert.GreaterOrEqual(t, p.ElapsedTime().Nanoseconds(), int64(0))

	snap := p.Snapshot()
	assert.Equal(t, 100, snap.ProcessedItems)
	assert.InDelta(t, 100.0, snap.PercentComplete, 1e-12)

	assert.Zero(t, NewProgress(0, 0, 10).PercentComplete())
}

func TestCalculateBatches(t *testing.T) {
	p, _ := NewProcessor[int](10)
	assert.Equal(t, [][2]int{{0, 10}, {10, 20}, {20, 25}}, p.CalculateBatches(25))
	assert.Empty(t, p.CalculateBatches(0))
	assert.Equal(t, 10, p.BatchSize())
}
