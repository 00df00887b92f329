package array

import (
	"github.com/wippyai/arrayhandle/device"
	"github.com/wippyai/arrayhandle/portal"
	"github.com/wippyai/arrayhandle/storage"
	"github.com/wippyai/arrayhandle/value"
)

// Counting creates a read-only handle of n values start, start+step, ...
func Counting[S value.Scalar](start, step S, n int, opts ...Option) *Handle[S] {
	return computed[S](portal.NewCounting(start, step, n), opts)
}

// Implicit creates a read-only handle whose value i is fn(i). fn runs on
// whichever device reads the array and must be safe for concurrent calls.
func Implicit[T any](n int, fn func(int) T, opts ...Option) *Handle[T] {
	return computed[T](portal.NewImplicit(n, fn), opts)
}

// computed serves p to the control side and to every device. p computes its
// values from the index, so no copy is ever made.
func computed[T any](p portal.ConstPortal[T], opts []Option) *Handle[T] {
	ro := &readOnlySource[T]{
		size:    func() (int, error) { return p.NumberOfValues(), nil },
		control: func() (portal.ConstPortal[T], error) { return p, nil },
		device:  func(device.Tag) (portal.ConstPortal[T], error) { return p, nil },
	}
	return newHandle[T](storage.NewReadOnly(p), ro, opts)
}
