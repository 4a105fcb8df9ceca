package gatomic_test

import (
	"sync"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/rogpeppe/lockfree/gatomic"
)

type cell struct {
	next *int
}

func TestLoadStore(t *testing.T) {
	var c cell
	qt.Assert(t, qt.IsNil(gatomic.LoadPointer(&c.next)))
	x := 5
	gatomic.StorePointer(&c.next, &x)
	qt.Assert(t, qt.Equals(gatomic.LoadPointer(&c.next), &x))
}

func TestSwap(t *testing.T) {
	x, y := 1, 2
	c := cell{next: &x}
	old := gatomic.SwapPointer(&c.next, &y)
	qt.Assert(t, qt.Equals(old, &x))
	qt.Assert(t, qt.Equals(c.next, &y))
}

func TestCompareAndSwap(t *testing.T) {
	x, y := 1, 2
	c := cell{next: &x}
	qt.Assert(t, qt.IsFalse(gatomic.CompareAndSwapPointer(&c.next, &y, nil)))
	qt.Assert(t, qt.Equals(c.next, &x))
	qt.Assert(t, qt.IsTrue(gatomic.CompareAndSwapPointer(&c.next, &x, &y)))
	qt.Assert(t, qt.Equals(c.next, &y))
}

func TestCompareAndSwapConcurrent(t *testing.T) {
	var c cell
	const n = 50
	vals := make([]int, n)
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if gatomic.CompareAndSwapPointer(&c.next, nil, &vals[i]) {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	qt.Assert(t, qt.Equals(winners, 1))
	qt.Assert(t, qt.Not(qt.IsNil(gatomic.LoadPointer(&c.next))))
}
