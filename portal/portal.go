// Package portal provides typed random-access views over logical arrays.
//
// A portal never owns its data. Basic portals view a slice, Counting and
// Implicit portals compute values from the index, and Composite portals
// gather components from up to four source portals. Composite, Counting and
// Implicit portals are read-only.
package portal

import (
	"iter"
)

// ConstPortal is a read-only view.
type ConstPortal[T any] interface {
	NumberOfValues() int
	Get(index int) T
}

// Portal is a read-write view.
type Portal[T any] interface {
	ConstPortal[T]
	Set(index int, value T)
}

// All returns a restartable sequence over every value of p.
func All[T any](p ConstPortal[T]) iter.Seq2[int, T] {
	return Range(p, 0, p.NumberOfValues())
}

// Range returns a restartable sequence over [begin, end) of p. Bounds are
// clamped to the portal.
func Range[T any](p ConstPortal[T], begin, end int) iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		n := p.NumberOfValues()
		lo, hi := max(begin, 0), min(end, n)
		for i := lo; i < hi; i++ {
			if !yield(i, p.Get(i)) {
				return
			}
		}
	}
}

// Values collects the values of p into a new slice.
func Values[T any](p ConstPortal[T]) []T {
	out := make([]T, p.NumberOfValues())
	for i := range out {
		out[i] = p.Get(i)
	}
	return out
}

// Copy copies min(len(src), len(dst)) values and returns the count.
func Copy[T any](dst Portal[T], src ConstPortal[T]) int {
	if d, ok := dst.(*Basic[T]); ok {
		if s, ok := src.(*Basic[T]); ok {
			return copy(d.data, s.data)
		}
	}
	n := min(dst.NumberOfValues(), src.NumberOfValues())
	for i := 0; i < n; i++ {
		dst.Set(i, src.Get(i))
	}
	return n
}

// Basic is a portal over a slice.
type Basic[T any] struct {
	data []T
}

// NewBasic wraps data without copying.
func NewBasic[T any](data []T) *Basic[T] {
	return &Basic[T]{data: data}
}

func (p *Basic[T]) NumberOfValues() int    { return len(p.data) }
func (p *Basic[T]) Get(index int) T        { return p.data[index] }
func (p *Basic[T]) Set(index int, value T) { p.data[index] = value }

// Slice returns the underlying slice.
func (p *Basic[T]) Slice() []T { return p.data }
