package conclist

import (
	"sync/atomic"

	"github.com/rogpeppe/lockfree/gatomic"
)

// node holds a single element of the list.
type node[V any] struct {
	// gen holds the generation the node was created for.
	gen *generation[V]

	// value points to the element. It is set to nil exactly
	// once, when the node is removed, and is only
	// accessed atomically.
	value *V

	// prev holds the next older node, or nil.
	// It only ever moves towards older nodes
	// and is only accessed atomically.
	prev *node[V]

	// removed is set after value has been cleared.
	removed atomic.Bool
}

func newNode[V any](g *generation[V], v V) *node[V] {
	return &node[V]{
		gen:   g,
		value: &v,
	}
}

func (n *node[V]) present() bool {
	return !n.removed.Load()
}

// getPrev returns the nearest older present node, or nil,
// unlinking any tombstones in between.
func (n *node[V]) getPrev() *node[V] {
	prev := gatomic.LoadPointer(&n.prev)
	for prev != nil && !prev.present() {
		pprev := gatomic.LoadPointer(&prev.prev)
		if gatomic.CompareAndSwapPointer(&n.prev, prev, pprev) {
			prev = pprev
		} else {
			prev = gatomic.LoadPointer(&n.prev)
		}
	}
	return prev
}

func (n *node[V]) get() (V, bool) {
	if p := gatomic.LoadPointer(&n.value); p != nil {
		return *p, true
	}
	return *new(V), false
}

// swap replaces the value of n with v and returns the previous
// value. It reports false if n has been removed.
func (n *node[V]) swap(v V) (V, bool) {
	nv := &v
	for {
		old := gatomic.LoadPointer(&n.value)
		if old == nil || !n.present() {
			return *new(V), false
		}
		if gatomic.CompareAndSwapPointer(&n.value, old, nv) {
			return *old, true
		}
	}
}

func (n *node[V]) trySet(v V) bool {
	_, ok := n.swap(v)
	return ok
}

// tryRemove clears the value of n and marks it as removed.
// Only the first call returns true.
func (n *node[V]) tryRemove() bool {
	for {
		old := gatomic.LoadPointer(&n.value)
		if old == nil {
			return false
		}
		if gatomic.CompareAndSwapPointer(&n.value, old, nil) {
			n.removed.Store(true)
			n.gen.size.Add(-1)
			return true
		}
	}
}

// Entry is a handle to a single element of a List, as returned by
// Cursor.Next. It remains valid after the element has been removed
// or the list has been cleared, although operations that require the
// element to be present will then fail.
//
// The zero Entry refers to no element and behaves as if removed.
type Entry[V any] struct {
	n *node[V]
}

// Get returns the value of the entry and reports whether the entry
// is still present.
func (e Entry[V]) Get() (V, bool) {
	if e.n == nil {
		return *new(V), false
	}
	return e.n.get()
}

// Present reports whether the entry has not been removed.
func (e Entry[V]) Present() bool {
	return e.n != nil && e.n.present()
}

// Set sets the value of the entry in place. It returns
// ErrAlreadyRemoved if the entry has been removed.
func (e Entry[V]) Set(v V) error {
	if !e.TrySet(v) {
		return ErrAlreadyRemoved
	}
	return nil
}

// TrySet is like Set but reports whether the value was set
// instead of returning an error.
func (e Entry[V]) TrySet(v V) bool {
	return e.n != nil && e.n.trySet(v)
}

// Replace sets the value of the entry and returns the value it
// replaced. It returns ErrAlreadyRemoved if the entry has been removed.
func (e Entry[V]) Replace(v V) (V, error) {
	if e.n == nil {
		return *new(V), ErrAlreadyRemoved
	}
	old, ok := e.n.swap(v)
	if !ok {
		return old, ErrAlreadyRemoved
	}
	return old, nil
}

// Remove removes the entry from its list. It returns
// ErrAlreadyRemoved if the entry has already been removed.
func (e Entry[V]) Remove() error {
	if !e.TryRemove() {
		return ErrAlreadyRemoved
	}
	return nil
}

// TryRemove removes the entry from its list and reports whether
// this call removed it.
func (e Entry[V]) TryRemove() bool {
	return e.n != nil && e.n.tryRemove()
}
