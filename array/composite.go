package array

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/wippyai/arrayhandle/device"
	"github.com/wippyai/arrayhandle/errors"
	"github.com/wippyai/arrayhandle/portal"
	"github.com/wippyai/arrayhandle/storage"
	"github.com/wippyai/arrayhandle/value"
)

// Component selects component Index of every value of a source array. Build
// one with Source.
type Component[C value.Scalar] struct {
	id      uuid.UUID
	tracker *device.Tracker
	index   int
	arity   int
	size    func() (int, error)
	control func() (portal.ComponentSource[C], error)
	device  func(device.Tag) (portal.ComponentSource[C], error)
}

// Source selects component index of h's values, converted to C.
func Source[C value.Scalar, T any](h *Handle[T], index int) Component[C] {
	if h == nil || !h.valid {
		return Component[C]{index: index}
	}
	return Component[C]{
		id:      h.id,
		tracker: h.tracker,
		index:   index,
		arity:   value.NumComponents[T](),
		size:    h.NumberOfValues,
		control: func() (portal.ComponentSource[C], error) {
			p, err := h.GetPortalConstControl()
			if err != nil {
				return nil, err
			}
			return portal.Components[T, C](p), nil
		},
		device: func(tag device.Tag) (portal.ComponentSource[C], error) {
			p, err := h.PrepareForInput(tag)
			if err != nil {
				return nil, err
			}
			return portal.Components[T, C](p), nil
		},
	}
}

// shape stands in for a source during validation.
type shape[C value.Scalar] struct {
	n     int
	arity int
}

func (s shape[C]) NumberOfValues() int      { return s.n }
func (s shape[C]) NumComponents() int       { return s.arity }
func (s shape[C]) Component(int, int) (c C) { return c }

// CompositeVector creates a read-only handle whose value i is the V built from
// component comps[j].index of value i of every source j. It takes 1 to 4
// sources, one per component of V, all of the same length. Nothing is built
// when validation fails.
//
// The handle reads its sources on every access, so later changes to a
// source are visible through it. The sources stay owned by the caller:
// ReleaseResources on the composite leaves their device buffers in place.
func CompositeVector[V any, C value.Scalar](comps ...Component[C]) (*Handle[V], error) {
	shapes := make([]portal.ComponentSource[C], len(comps))
	indices := make([]int, len(comps))
	for i, c := range comps {
		if c.size == nil {
			return nil, errors.New(errors.PhaseConstruct, errors.KindInternal).
				Path("source", fmt.Sprint(i)).
				Detail("source array is not constructed").
				Build()
		}
		n, err := c.size()
		if err != nil {
			return nil, err
		}
		shapes[i] = shape[C]{n: n, arity: c.arity}
		indices[i] = c.index
	}
	if _, err := portal.NewComposite[V, C](shapes, indices); err != nil {
		return nil, err
	}

	build := func(get func(Component[C]) (portal.ComponentSource[C], error)) (portal.ConstPortal[V], error) {
		sources := make([]portal.ComponentSource[C], len(comps))
		for i, c := range comps {
			s, err := get(c)
			if err != nil {
				return nil, err
			}
			sources[i] = s
		}
		p, err := portal.NewComposite[V, C](sources, indices)
		if err != nil {
			return nil, err
		}
		return p, nil
	}

	ro := &readOnlySource[V]{
		size: func() (int, error) {
			n, err := comps[0].size()
			if err != nil {
				return 0, err
			}
			for i, c := range comps[1:] {
				m, err := c.size()
				if err != nil {
					return 0, err
				}
				if m != n {
					return 0, errors.New(errors.PhaseControl, errors.KindInternal).
						Path("source", fmt.Sprint(i+1)).
						Detail("composite sources no longer have equal length: %d != %d", m, n).
						Build()
				}
			}
			return n, nil
		},
		control: func() (portal.ConstPortal[V], error) {
			return build(func(c Component[C]) (portal.ComponentSource[C], error) { return c.control() })
		},
		device: func(tag device.Tag) (portal.ConstPortal[V], error) {
			return build(func(c Component[C]) (portal.ComponentSource[C], error) { return c.device(tag) })
		},
	}

	return newHandle[V](storage.NewReadOnly[V](nil), ro, []Option{WithTracker(comps[0].tracker)}), nil
}
