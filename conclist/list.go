// Package conclist provides an unbounded, lock-free, insertion-ordered
// collection that may be used concurrently by any number of producers
// and consumers.
//
// Elements are kept in a singly linked list that grows at the head, so
// traversals visit elements newest first. Removal marks a node as a
// tombstone; tombstones are unlinked lazily by whichever traversal
// next passes over them. Clear does not touch the existing nodes at
// all: it swaps in a fresh generation and marks the old one closed, so
// its cost is independent of the number of elements.
//
// Scans (Contains, Remove, Replace, ForEach, All and cursors) are not
// linearizable with respect to concurrent mutation: a scan may or may
// not observe an element added or removed while it is running, and a
// scan ends early if the node it has just reached is removed before it
// can be inspected.
package conclist

import (
	"errors"
	"fmt"
	"iter"
	"sync/atomic"

	"github.com/rogpeppe/lockfree/gatomic"
)

// ErrAlreadyRemoved is returned by the Entry operations that
// require the entry to be present when it has already been removed
// or when its value was cleared by a concurrent removal.
var ErrAlreadyRemoved = errors.New("conclist: entry already removed")

// List is a concurrent insertion-ordered collection of values
// of type V. All methods may be called concurrently.
//
// A List must be created with New, NewWithFunc or Collect.
type List[V any] struct {
	// gen holds the current generation. It is only
	// accessed atomically.
	gen *generation[V]

	eq func(a, b V) bool
}

// generation holds one epoch of the list. A new generation is
// created by every call to Clear.
type generation[V any] struct {
	// root holds the most recently added node, or nil.
	// It is only accessed atomically.
	root *node[V]

	// size holds the approximate number of present elements.
	size atomic.Int64

	// closed is set when the generation has been superseded
	// by Clear. It never goes back to false.
	closed atomic.Bool
}

// New returns a new empty List that compares values with ==.
func New[V comparable]() *List[V] {
	return NewWithFunc(func(a, b V) bool {
		return a == b
	})
}

// NewWithFunc is like New except that it uses the given function to
// compare values instead of relying on ==. It panics if eq is nil.
func NewWithFunc[V any](eq func(a, b V) bool) *List[V] {
	if eq == nil {
		panic("conclist.NewWithFunc called with nil equality function")
	}
	return &List[V]{
		gen: &generation[V]{},
		eq:  eq,
	}
}

// Collect returns a new List holding all the values from seq.
// The values are added in sequence order, so traversing the
// result yields them in reverse.
func Collect[V comparable](seq iter.Seq[V]) *List[V] {
	l := New[V]()
	l.AddAll(seq)
	return l
}

// current returns the current generation.
func (l *List[V]) current() *generation[V] {
	return gatomic.LoadPointer(&l.gen)
}

// Add adds v to the head of the list.
//
// If Add races with Clear, v may end up in the generation that
// Clear discards, in which case it will not be seen by any
// subsequent traversal.
func (l *List[V]) Add(v V) {
	g := l.current()
	n := newNode(g, v)
	for {
		if g.closed.Load() {
			// The generation was cleared under us; retarget
			// to whichever generation is now current.
			g = l.current()
			n = newNode(g, v)
		}
		root := g.getRoot()
		gatomic.StorePointer(&n.prev, root)
		if gatomic.CompareAndSwapPointer(&g.root, root, n) || g.closed.Load() {
			break
		}
	}
	g.size.Add(1)
}

// AddAll adds all the values from seq in order.
func (l *List[V]) AddAll(seq iter.Seq[V]) {
	for v := range seq {
		l.Add(v)
	}
}

// Contains reports whether a value equal to v is present in the list.
func (l *List[V]) Contains(v V) bool {
	return l.find(v) != nil
}

// Remove removes the most recently added value equal to v and reports
// whether this call removed it. It returns false if no such value
// was found or if a concurrent caller removed it first.
func (l *List[V]) Remove(v V) bool {
	n := l.find(v)
	return n != nil && n.tryRemove()
}

// Replace replaces the most recently added value equal to old with new,
// keeping its position in the list. It reports whether the value was
// replaced.
func (l *List[V]) Replace(old, new V) bool {
	n := l.find(old)
	return n != nil && n.trySet(new)
}

// find returns the first node whose value is equal to v, or nil.
// The scan stops at the first node found not to be present.
func (l *List[V]) find(v V) *node[V] {
	g := l.current()
	for n := g.getRoot(); !g.closed.Load() && n != nil && n.present(); n = n.getPrev() {
		if p := gatomic.LoadPointer(&n.value); p != nil && l.eq(v, *p) {
			return n
		}
	}
	return nil
}

// ForEach calls f for each value in the list, newest first.
// Calls to f are made sequentially from the calling goroutine.
func (l *List[V]) ForEach(f func(V)) {
	for v := range l.All() {
		f(v)
	}
}

// All returns an iterator over the values in the list, newest first.
// The iterator reads the current generation when it starts and
// stops if that generation is cleared.
func (l *List[V]) All() iter.Seq[V] {
	return func(yield func(V) bool) {
		g := l.current()
		for n := g.getRoot(); !g.closed.Load() && n != nil; n = n.getPrev() {
			p := gatomic.LoadPointer(&n.value)
			if p == nil || !yield(*p) {
				return
			}
		}
	}
}

// Len returns the approximate number of elements in the list.
// The count is exact when there are no concurrent mutations.
func (l *List[V]) Len() int64 {
	return l.current().size.Load()
}

// Clear removes all elements from the list. It runs in constant time:
// existing nodes are abandoned rather than visited.
func (l *List[V]) Clear() {
	old := gatomic.SwapPointer(&l.gen, &generation[V]{})
	old.closed.Store(true)
}

// String implements fmt.Stringer.
func (l *List[V]) String() string {
	return fmt.Sprintf("conclist.List(len=%d)", l.Len())
}

// getRoot returns the newest present node in the generation, or nil.
// Any tombstones found at the head are unlinked as a side effect.
func (g *generation[V]) getRoot() *node[V] {
	root := gatomic.LoadPointer(&g.root)
	for root != nil && !root.present() {
		prev := gatomic.LoadPointer(&root.prev)
		if gatomic.CompareAndSwapPointer(&g.root, root, prev) {
			root = prev
		} else {
			root = gatomic.LoadPointer(&g.root)
		}
	}
	return root
}
