package conclist_test

import (
	"fmt"
	"sync"

	"github.com/rogpeppe/lockfree/conclist"
)

func ExampleList() {
	l := conclist.New[string]()
	l.Add("one")
	l.Add("two")
	l.Add("three")
	l.Remove("two")
	for v := range l.All() {
		fmt.Println(v)
	}
	fmt.Println(l)
	// Output:
	// three
	// one
	// conclist.List(len=2)
}

func ExampleList_Clear() {
	l := conclist.New[int]()
	for i := range 5 {
		l.Add(i)
	}
	c := l.Cursor()
	l.Clear()
	l.Add(10)
	_, ok := c.Next()
	fmt.Println(ok, l.Len(), l.Contains(10))
	// Output:
	// false 1 true
}

// This example shares the elements of a list between
// several goroutines using a single cursor.
func ExampleCursor() {
	l := conclist.New[int]()
	for i := 1; i <= 100; i++ {
		l.Add(i)
	}
	c := l.Cursor()
	var (
		mu    sync.Mutex
		total int
		wg    sync.WaitGroup
	)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for e := range c.All() {
				v, _ := e.Get()
				mu.Lock()
				total += v
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	fmt.Println(total)
	// Output:
	// 5050
}

func ExampleIterator() {
	l := conclist.New[int]()
	for i := 1; i <= 4; i++ {
		l.Add(i)
	}
	for it := l.Iterator(); it.Next(); {
		if it.Value()%2 == 0 {
			it.Set(it.Value() * 10)
		}
	}
	l.ForEach(func(v int) {
		fmt.Print(v, " ")
	})
	fmt.Println()
	// Output:
	// 40 3 20 1
}
