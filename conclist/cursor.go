package conclist

import (
	"errors"
	"iter"

	"github.com/rogpeppe/lockfree/gatomic"
)

// Cursor walks the elements of a List, newest first. It is bound to
// the generation that was current when it was created: it does not
// observe elements added after a subsequent Clear, and it stops
// producing entries once its own generation has been cleared.
//
// Next may be called concurrently: each element is returned
// to exactly one caller, so a Cursor can be used to share out
// the elements of a list between a set of workers.
type Cursor[V any] struct {
	gen *generation[V]

	// node holds the next node to return.
	// It is only accessed atomically.
	node *node[V]
}

// Cursor returns a new cursor positioned at the newest
// element of the list.
func (l *List[V]) Cursor() *Cursor[V] {
	g := l.current()
	return &Cursor[V]{
		gen:  g,
		node: g.getRoot(),
	}
}

// Next returns the next entry and advances the cursor. It reports
// false when there are no more entries or the cursor's generation
// has been cleared.
func (c *Cursor[V]) Next() (Entry[V], bool) {
	for {
		if c.gen.closed.Load() {
			return Entry[V]{}, false
		}
		curr := gatomic.LoadPointer(&c.node)
		if curr == nil {
			return Entry[V]{}, false
		}
		if gatomic.CompareAndSwapPointer(&c.node, curr, curr.getPrev()) {
			if c.gen.closed.Load() {
				return Entry[V]{}, false
			}
			return Entry[V]{n: curr}, true
		}
	}
}

// All returns an iterator over the remaining entries of the cursor.
// Consuming the iterator advances the cursor.
func (c *Cursor[V]) All() iter.Seq[Entry[V]] {
	return func(yield func(Entry[V]) bool) {
		for {
			e, ok := c.Next()
			if !ok || !yield(e) {
				return
			}
		}
	}
}

// ErrNoEntry is returned by Iterator methods that need a current
// entry when Next has not been called or has returned false.
var ErrNoEntry = errors.New("conclist: iterator has no current entry")

// Iterator provides sequential iteration over a List in the style
// of bufio.Scanner. Unlike Cursor, an Iterator must not be used
// concurrently.
type Iterator[V any] struct {
	cursor *Cursor[V]
	entry  Entry[V]
}

// Iterator returns an iterator positioned before the newest
// element of the list.
func (l *List[V]) Iterator() *Iterator[V] {
	return &Iterator[V]{
		cursor: l.Cursor(),
	}
}

// Next advances the iterator to the next entry and reports
// whether there is one.
func (it *Iterator[V]) Next() bool {
	it.entry, _ = it.cursor.Next()
	return it.entry.n != nil
}

// Entry returns the current entry. It returns the zero Entry
// before the first call to Next or after Next returns false.
func (it *Iterator[V]) Entry() Entry[V] {
	return it.entry
}

// Value returns the value of the current entry. It returns the zero
// value if the entry has been removed. It panics if there is no
// current entry.
func (it *Iterator[V]) Value() V {
	if it.entry.n == nil {
		panic("conclist.Iterator.Value called with no current entry")
	}
	v, _ := it.entry.Get()
	return v
}

// Remove removes the current entry.
func (it *Iterator[V]) Remove() error {
	if it.entry.n == nil {
		return ErrNoEntry
	}
	return it.entry.Remove()
}

// Set sets the value of the current entry in place.
func (it *Iterator[V]) Set(v V) error {
	if it.entry.n == nil {
		return ErrNoEntry
	}
	return it.entry.Set(v)
}
