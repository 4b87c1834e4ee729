// Package workerpool is the small generic bounded pool shared by
// fingerprinting and collection, built on golang.org/x/sync/errgroup's
// SetLimit for an "N concurrent sessions at most, no more" bound (§5, §8
// property 7).
package workerpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run applies fn to every item in items, at most maxWorkers concurrently.
// The first non-nil error returned by fn cancels ctx for the remaining
// in-flight calls and is returned once all goroutines have exited; callers
// that must not abort on a single item's error should have fn swallow it
// and report failure some other way (as C2/C3 do per device).
func Run[T any](ctx context.Context, items []T, maxWorkers int, fn func(context.Context, T) error) error {
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for _, item := range items {
		item := item
		g.Go(func() error {
			return fn(gctx, item)
		})
	}

	return g.Wait()
}
