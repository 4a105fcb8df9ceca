package conclist

import "testing"

func BenchmarkAdd(b *testing.B) {
	l := New[int]()
	for i := range b.N {
		l.Add(i)
	}
}

func BenchmarkAddParallel(b *testing.B) {
	l := New[int]()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			l.Add(i)
			i++
		}
	})
}

func BenchmarkAddRemove(b *testing.B) {
	l := New[int]()
	for i := range b.N {
		l.Add(i)
		l.Remove(i)
	}
}

func BenchmarkClear(b *testing.B) {
	l := New[int]()
	for i := range 10000 {
		l.Add(i)
	}
	b.ResetTimer()
	for range b.N {
		l.Clear()
	}
}
