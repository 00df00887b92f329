package portal

import "github.com/wippyai/arrayhandle/value"

// Counting yields start + i*step.
type Counting[S value.Scalar] struct {
	start S
	step  S
	n     int
}

// NewCounting creates a counting portal of n values.
func NewCounting[S value.Scalar](start, step S, n int) *Counting[S] {
	return &Counting[S]{start: start, step: step, n: max(n, 0)}
}

func (p *Counting[S]) NumberOfValues() int { return p.n }
func (p *Counting[S]) Get(index int) S     { return p.start + S(index)*p.step }

// Implicit computes each value with a functor.
type Implicit[T any] struct {
	fn func(int) T
	n  int
}

// NewImplicit creates an implicit portal of n values.
func NewImplicit[T any](n int, fn func(int) T) *Implicit[T] {
	return &Implicit[T]{fn: fn, n: max(n, 0)}
}

func (p *Implicit[T]) NumberOfValues() int { return p.n }
func (p *Implicit[T]) Get(index int) T     { return p.fn(index) }
