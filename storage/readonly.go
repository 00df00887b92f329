package storage

import (
	"github.com/wippyai/arrayhandle/errors"
	"github.com/wippyai/arrayhandle/portal"
)

// ReadOnly is the storage of computed and composite arrays. Its values come
// from a portal; every write path fails with an unsupported-operation error.
type ReadOnly[T any] struct {
	source portal.ConstPortal[T]
}

// NewReadOnly wraps source.
func NewReadOnly[T any](source portal.ConstPortal[T]) *ReadOnly[T] {
	return &ReadOnly[T]{source: source}
}

func readOnlyError(op string) error {
	return errors.Unsupported(errors.PhaseControl, op+" on a read-only array")
}

func (s *ReadOnly[T]) NumberOfValues() int {
	if s.source == nil {
		return 0
	}
	return s.source.NumberOfValues()
}

func (s *ReadOnly[T]) Allocate(int) error { return readOnlyError("allocate") }
func (s *ReadOnly[T]) Shrink(int) error   { return readOnlyError("shrink") }

// ReleaseResources is a no-op: the source is not owned.
func (s *ReadOnly[T]) ReleaseResources() {}

func (s *ReadOnly[T]) PortalConst() portal.ConstPortal[T] {
	if s.source == nil {
		return portal.NewBasic[T](nil)
	}
	return s.source
}

func (s *ReadOnly[T]) Portal() (portal.Portal[T], error) {
	return nil, readOnlyError("writable portal")
}
