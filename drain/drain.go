// Package drain consumes the entries of a conclist cursor
// from a pool of concurrent workers.
package drain

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/rogpeppe/lockfree/conclist"
)

// Func is called by Run for each entry of the cursor.
type Func[V any] func(ctx context.Context, e conclist.Entry[V]) error

// Run starts the given number of workers, each of which repeatedly
// takes the next entry from c and calls f with it, until the cursor
// is exhausted. Every entry is passed to exactly one call of f.
//
// If f returns an error, the context passed to the other workers is
// canceled, no further entries are taken, and Run returns the first
// error. Run also stops early if ctx is canceled.
//
// If workers is not positive, runtime.GOMAXPROCS(0) workers are used.
func Run[V any](ctx context.Context, c *conclist.Cursor[V], workers int, f Func[V]) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				e, ok := c.Next()
				if !ok {
					return nil
				}
				if err := f(ctx, e); err != nil {
					return err
				}
			}
		})
	}
	return g.Wait()
}

// RemoveAll removes every entry of c for which keep returns false,
// using the given number of workers. It returns the number of
// entries removed by this call.
func RemoveAll[V any](ctx context.Context, c *conclist.Cursor[V], workers int, keep func(V) bool) (int64, error) {
	var removed atomic.Int64
	err := Run(ctx, c, workers, func(ctx context.Context, e conclist.Entry[V]) error {
		v, ok := e.Get()
		if ok && !keep(v) && e.TryRemove() {
			removed.Add(1)
		}
		return nil
	})
	return removed.Load(), err
}
