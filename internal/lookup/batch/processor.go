package batch

import (
	"context"
	"fmt"
)

// Batch size bounds.
const (
	DefaultBatchSize = 100
	MinBatchSize     = 1
	MaxBatchSize     = 1000
)

type constError string

func (e constError) Error() string { return string(e) }

// Processing errors.
var (
	ErrInvalidBatchSize = constError("batch size must be between 1 and 1000")
	ErrNilCallback      = constError("batch callback cannot be nil")
	ErrResultMismatch   = constError("batch result length does not match input")
)

// Callback processes one chunk. batchIndex is 0-based.
type Callback[T any] func(ctx context.Context, batch []T, batchIndex int) error

// MapFunc transforms one chunk and must return exactly one result per item.
type MapFunc[T, R any] func(ctx context.Context, batch []T) ([]R, error)

// ProgressCallback is invoked after each chunk completes.
type ProgressCallback func(progress *Progress)

// Processor runs chunks of a slice sequentially.
type Processor[T any] struct {
	batchSize  int
	onProgress ProgressCallback
}

// NewProcessor returns a processor with the given chunk size.
func NewProcessor[T any](batchSize int) (*Processor[T], error) {
	if batchSize < MinBatchSize || batchSize > MaxBatchSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, batchSize)
	}
	return &Processor[T]{batchSize: batchSize}, nil
}

// NewProcessorWithDefaults returns a processor with DefaultBatchSize.
func NewProcessorWithDefaults[T any]() *Processor[T] {
	return &Processor[T]{batchSize: DefaultBatchSize}
}

// WithProgressCallback sets the progress callback.
func (p *Processor[T]) WithProgressCallback(callback ProgressCallback) *Processor[T] {
	p.onProgress = callback
	return p
}

// BatchSize returns the configured chunk size.
func (p *Processor[T]) BatchSize() int {
	return p.batchSize
}

// Process runs callback over each chunk and stops on the first error or
// context cancellation. An empty slice is a no-op.
func (p *Processor[T]) Process(ctx context.Context, items []T, callback Callback[T]) error {
	if callback == nil {
		return ErrNilCallback
	}
	if len(items) == 0 {
		return nil
	}

	bounds := p.CalculateBatches(len(items))
	progress := NewProgress(len(items), len(bounds), p.batchSize)

	for i, b := range bounds {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunk := items[b[0]:b[1]]
		if err := callback(ctx, chunk, i); err != nil {
			return fmt.Errorf("batch %d failed: %w", i, err)
		}

		progress.AddProcessed(len(chunk))
		if p.onProgress != nil {
			p.onProgress(progress)
		}
	}
	return nil
}

// Map runs fn over each chunk of items and concatenates the results in
// input order. Any chunk error, or a chunk returning the wrong number of
// results, fails the whole call.
func Map[T, R any](ctx context.Context, p *Processor[T], items []T, fn MapFunc[T, R]) ([]R, error) {
	if fn == nil {
		return nil, ErrNilCallback
	}
	out := make([]R, 0, len(items))
	err := p.Process(ctx, items, func(ctx context.Context, chunk []T, _ int) error {
		res, err := fn(ctx, chunk)
		if err != nil {
			return err
		}
		if len(res) != len(chunk) {
			return fmt.Errorf("%w: got %d, want %d", ErrResultMismatch, len(res), len(chunk))
		}
		out = append(out, res...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CalculateBatches returns [start, end) bounds for totalItems.
func (p *Processor[T]) CalculateBatches(totalItems int) [][2]int {
	n := totalItems / p.batchSize
	if totalItems%p.batchSize > 0 {
		n++
	}
	bounds := make([][2]int, n)
	for i := range n {
		start := i * p.batchSize
		bounds[i] = [2]int{start, min(start+p.batchSize, totalItems)}
	}
	return bounds
}
