package drain_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/rogpeppe/lockfree/conclist"
	"github.com/rogpeppe/lockfree/drain"
)

func newList(n int) *conclist.List[int] {
	l := conclist.New[int]()
	for i := range n {
		l.Add(i)
	}
	return l
}

func TestRunVisitsEachEntryOnce(t *testing.T) {
	const n = 5000
	l := newList(n)
	var mu sync.Mutex
	seen := make(map[int]int)
	err := drain.Run(context.Background(), l.Cursor(), 8, func(ctx context.Context, e conclist.Entry[int]) error {
		v, ok := e.Get()
		if !ok {
			return errors.New("entry unexpectedly removed")
		}
		mu.Lock()
		seen[v]++
		mu.Unlock()
		return nil
	})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(seen, n))
	for v, count := range seen {
		qt.Assert(t, qt.Equals(count, 1), qt.Commentf("value %d", v))
	}
}

func TestRunDefaultWorkers(t *testing.T) {
	l := newList(100)
	var count atomic.Int32
	err := drain.Run(context.Background(), l.Cursor(), 0, func(ctx context.Context, e conclist.Entry[int]) error {
		count.Add(1)
		return nil
	})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(count.Load(), int32(100)))
}

func TestRunEmpty(t *testing.T) {
	l := conclist.New[string]()
	err := drain.Run(context.Background(), l.Cursor(), 4, func(ctx context.Context, e conclist.Entry[string]) error {
		return errors.New("should not be called")
	})
	qt.Assert(t, qt.IsNil(err))
}

func TestRunStopsOnError(t *testing.T) {
	l := newList(10000)
	errBoom := errors.New("boom")
	var calls atomic.Int32
	err := drain.Run(context.Background(), l.Cursor(), 4, func(ctx context.Context, e conclist.Entry[int]) error {
		if calls.Add(1) == 10 {
			return errBoom
		}
		return nil
	})
	qt.Assert(t, qt.ErrorIs(err, errBoom))
	// Each worker stops after at most one more entry once the
	// group context has been canceled.
	qt.Assert(t, qt.IsTrue(calls.Load() < 10000))
}

func TestRunCanceledContext(t *testing.T) {
	l := newList(10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := drain.Run(ctx, l.Cursor(), 2, func(ctx context.Context, e conclist.Entry[int]) error {
		return nil
	})
	qt.Assert(t, qt.ErrorIs(err, context.Canceled))
}

func TestRemoveAll(t *testing.T) {
	l := newList(1000)
	removed, err := drain.RemoveAll(context.Background(), l.Cursor(), 4, func(v int) bool {
		return v%3 == 0
	})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(removed, int64(666)))
	qt.Assert(t, qt.Equals(l.Len(), int64(334)))
	l.ForEach(func(v int) {
		qt.Assert(t, qt.Equals(v%3, 0))
	})
}
