// Package parallel runs independent units of table work concurrently.
//
// Table and serializer operations fan out per column: every column is cast,
// taken or encoded on its own, so the work splits cleanly. Results always come
// back in input order. The first failure cancels the remaining work and is
// the error returned.
//
// The array and cast packages never use this package: a single array
// operation runs on the calling goroutine.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Map applies fn to every item with at most limit calls in flight and
// returns the results in input order. limit <= 0 means runtime.NumCPU().
//
// On error the returned slice still holds the results of the calls that
// succeeded, so callers can release what was built.
func Map[T, R any](
	ctx context.Context,
	limit int,
	items []T,
	fn func(context.Context, int, T) (R, error),
) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	results := make([]R, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(gctx, i, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	return results, g.Wait()
}
