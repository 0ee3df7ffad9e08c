package app

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Parallel2 runs two fetches concurrently and returns both results or the
// first error. The shared context is canceled as soon as either fails.
//
// Example:
//
//	set, cards, err := Parallel2(ctx,
//	    func(ctx context.Context) (domain.Model, error) { return sets.Get(ctx, id) },
//	    func(ctx context.Context) (*domain.Page, error) { return cards.List(ctx, opts) },
//	)
func Parallel2[T1, T2 any](
	ctx context.Context,
	fn1 func(context.Context) (T1, error),
	fn2 func(context.Context) (T2, error),
) (result1 T1, result2 T2, err error) {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var fnErr error

		result1, fnErr = fn1(ctx)

		return fnErr
	})

	g.Go(func() error {
		var fnErr error

		result2, fnErr = fn2(ctx)

		return fnErr
	})

	err = g.Wait()
	if err != nil {
		var (
			zero1 T1
			zero2 T2
		)

		return zero1, zero2, err
	}

	return result1, result2, nil
}

// ForEach calls fn once per key with at most limit calls in flight and
// returns the results in key order. A limit <= 0 means unbounded. The
// first error cancels the remaining calls and is returned as-is, so
// typed exceptions survive the fan-out.
//
// Example:
//
//	models, err := ForEach(ctx, 8, ids, func(ctx context.Context, id string) (domain.Model, error) {
//	    return cards.Get(ctx, id)
//	})
func ForEach[T any](
	ctx context.Context,
	limit int,
	keys []string,
	fn func(context.Context, string) (T, error),
) ([]T, error) {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	results := make([]T, len(keys))

	for i, key := range keys {
		g.Go(func() error {
			result, err := fn(ctx, key)
			if err != nil {
				return err
			}

			results[i] = result

			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, err
	}

	return results, nil
}

// PartialResult holds a result or an error for partial success patterns.
type PartialResult[T any] struct {
	Key   string
	Value T
	Err   error
}

// ForEachPartial is ForEach without fail-fast: every key is attempted and
// each outcome is reported in key order. Keys still waiting for a slot
// when ctx ends report ctx.Err().
//
// Example:
//
//	for _, r := range ForEachPartial(ctx, 4, ids, fetch) {
//	    if r.Err != nil {
//	        failed = append(failed, r.Key)
//	    }
//	}
func ForEachPartial[T any](
	ctx context.Context,
	limit int,
	keys []string,
	fn func(context.Context, string) (T, error),
) []PartialResult[T] {
	if limit <= 0 {
		limit = max(len(keys), 1)
	}

	results := make([]PartialResult[T], len(keys))
	sem := make(chan struct{}, limit)

	var wg sync.WaitGroup

	for i, key := range keys {
		wg.Go(func() {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = PartialResult[T]{Key: key, Err: ctx.Err()}
				return
			}

			defer func() { <-sem }()

			value, err := fn(ctx, key)
			results[i] = PartialResult[T]{Key: key, Value: value, Err: err}
		})
	}

	wg.Wait()

	return results
}
