// Package gatomic provides type-safe generic wrappers around the
// pointer operations in sync/atomic.
//
// Unlike atomic.Pointer, the functions operate on ordinary *T fields,
// so a struct can hold a plain pointer field that is read and written
// atomically without a wrapper type.
package gatomic

import (
	"sync/atomic"
	"unsafe"
)

// LoadPointer atomically loads *addr.
func LoadPointer[T any](addr **T) *T {
	return (*T)(atomic.LoadPointer(unsafePointer(addr)))
}

// StorePointer atomically stores val into *addr.
func StorePointer[T any](addr **T, val *T) {
	atomic.StorePointer(unsafePointer(addr), unsafe.Pointer(val))
}

// SwapPointer atomically stores new into *addr and returns the
// previous value.
func SwapPointer[T any](addr **T, new *T) (old *T) {
	return (*T)(atomic.SwapPointer(unsafePointer(addr), unsafe.Pointer(new)))
}

// CompareAndSwapPointer executes the compare-and-swap operation
// for a pointer value.
func CompareAndSwapPointer[T any](addr **T, old, new *T) (swapped bool) {
	return atomic.CompareAndSwapPointer(unsafePointer(addr), unsafe.Pointer(old), unsafe.Pointer(new))
}

func unsafePointer[T any](addr **T) *unsafe.Pointer {
	return (*unsafe.Pointer)(unsafe.Pointer(addr))
}
