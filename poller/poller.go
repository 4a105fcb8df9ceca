// Package poller provides a helper for tests that need to wait
// for a condition that becomes true asynchronously.
package poller

import (
	"testing"
	"time"
)

// Interval is the time WaitFor waits between successive polls.
var Interval = 5 * time.Millisecond

// WaitFor continuously calls poll until check returns true. It then polls for
// a little longer to make sure that poll still returns a value v such that check(v)
// is true. If the condition never happens, or the condition becomes true
// and then false, it invokes t.Fatal.
//
// If poll returns an error, WaitFor calls Fatal.
//
// WaitFor returns the last value that poll returned.
func WaitFor[T any](t testing.TB, timeout time.Duration, poll func() (T, error), check func(T) bool) T {
	t.Helper()
	get := func() T {
		t.Helper()
		v, err := poll()
		if err != nil {
			t.Fatalf("poll failed: %v", err)
		}
		return v
	}
	deadline := time.Now().Add(timeout)
	v := get()
	for !check(v) {
		if time.Now().After(deadline) {
			t.Fatalf("condition not satisfied after %v; last value %v", timeout, v)
		}
		time.Sleep(Interval)
		v = get()
	}
	settle := time.Now().Add(min(timeout/10, 50*time.Millisecond))
	for time.Now().Before(settle) {
		time.Sleep(Interval)
		v = get()
		if !check(v) {
			t.Fatalf("condition became false after being satisfied; value %v", v)
		}
	}
	return v
}
