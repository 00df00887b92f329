// Package storage owns host-resident array buffers.
//
// A Storage tracks a logical size and an allocated capacity. Allocate always
// replaces the buffer, so portals obtained before it no longer reflect the
// array. Shrink only lowers the logical size.
package storage

import (
	"github.com/wippyai/arrayhandle/errors"
	"github.com/wippyai/arrayhandle/portal"
)

// Storage is the control-side backing of an array.
type Storage[T any] interface {
	NumberOfValues() int
	Allocate(n int) error
	Shrink(n int) error
	ReleaseResources()
	PortalConst() portal.ConstPortal[T]
	Portal() (portal.Portal[T], error)
}

// Slicer is implemented by storages whose values sit in one contiguous slice.
type Slicer[T any] interface {
	Slice() []T
}

// Basic is a slice-backed Storage.
type Basic[T any] struct {
	data []T
	size int
	user bool
}

// New creates a storage of n zero values.
func New[T any](n int) *Basic[T] {
	n = max(n, 0)
	return &Basic[T]{data: make([]T, n), size: n}
}

// FromValues creates a storage holding a copy of values.
func FromValues[T any](values []T) *Basic[T] {
	data := make([]T, len(values))
	copy(data, values)
	return &Basic[T]{data: data, size: len(values)}
}

// FromUser adopts values without copying. The caller keeps ownership until the
// storage is reallocated.
func FromUser[T any](values []T) *Basic[T] {
	return &Basic[T]{data: values, size: len(values), user: true}
}

// NumberOfValues returns the logical size.
func (s *Basic[T]) NumberOfValues() int { return s.size }

// Capacity returns the allocated size.
func (s *Basic[T]) Capacity() int { return len(s.data) }

// IsUserMemory reports whether the buffer still belongs to the caller.
func (s *Basic[T]) IsUserMemory() bool { return s.user }

// Allocate replaces the buffer with n zero values.
func (s *Basic[T]) Allocate(n int) error {
	if n < 0 {
		return errors.New(errors.PhaseControl, errors.KindValue).
			Value(n).
			Detail("cannot allocate %d values", n).
			Build()
	}
	s.data = make([]T, n)
	s.size = n
	s.user = false
	return nil
}

// Shrink lowers the logical size, keeping the first n values and the capacity.
func (s *Basic[T]) Shrink(n int) error {
	if n < 0 {
		return errors.New(errors.PhaseControl, errors.KindValue).
			Value(n).
			Detail("cannot shrink to %d values", n).
			Build()
	}
	if n > s.size {
		return errors.SizeError(errors.PhaseControl, n, s.size)
	}
	s.size = n
	return nil
}

// ReleaseResources drops the buffer.
func (s *Basic[T]) ReleaseResources() {
	s.data = nil
	s.size = 0
	s.user = false
}

// Slice returns the live values.
func (s *Basic[T]) Slice() []T { return s.data[:s.size] }

// PortalConst returns a view of the live values.
func (s *Basic[T]) PortalConst() portal.ConstPortal[T] {
	return portal.NewBasic(s.data[:s.size])
}

// Portal returns a writable view of the live values.
func (s *Basic[T]) Portal() (portal.Portal[T], error) {
	return portal.NewBasic(s.data[:s.size]), nil
}
