package portal

import (
	"fmt"
	"reflect"

	"github.com/wippyai/arrayhandle/errors"
	"github.com/wippyai/arrayhandle/value"
)

// MaxCompositeSources is the largest number of source portals a Composite accepts.
const MaxCompositeSources = 4

// ComponentSource exposes single components of a portal's values.
type ComponentSource[C value.Scalar] interface {
	NumberOfValues() int
	NumComponents() int
	Component(index, component int) C
}

type components[T any, C value.Scalar] struct {
	p ConstPortal[T]
}

// Components adapts p into a component source.
func Components[T any, C value.Scalar](p ConstPortal[T]) ComponentSource[C] {
	return components[T, C]{p: p}
}

func (c components[T, C]) NumberOfValues() int { return c.p.NumberOfValues() }
func (c components[T, C]) NumComponents() int  { return value.NumComponents[T]() }

func (c components[T, C]) Component(index, component int) C {
	return value.Component[C](c.p.Get(index), component)
}

// Composite builds each V from one component of each source. It is read-only.
type Composite[V any, C value.Scalar] struct {
	sources    []ComponentSource[C]
	components []int
}

// NewComposite validates the sources and component map. Every source must
// have the same length and V must have one component per source.
func NewComposite[V any, C value.Scalar](sources []ComponentSource[C], components []int) (*Composite[V, C], error) {
	if len(sources) == 0 || len(sources) > MaxCompositeSources {
		return nil, errors.ValueError(errors.PhaseConstruct,
			fmt.Sprintf("composite needs 1-%d sources, got %d", MaxCompositeSources, len(sources)))
	}
	if len(components) != len(sources) {
		return nil, errors.ValueError(errors.PhaseConstruct,
			fmt.Sprintf("composite has %d sources but %d component indices", len(sources), len(components)))
	}
	if n := value.NumComponents[V](); n != len(sources) {
		return nil, errors.New(errors.PhaseConstruct, errors.KindValue).
			GoType(reflect.TypeFor[V]().String()).
			Detail("value type has %d components, composite has %d sources", n, len(sources)).
			Build()
	}

	size := sources[0].NumberOfValues()
	for i, src := range sources {
		if src.NumberOfValues() != size {
			return nil, errors.New(errors.PhaseConstruct, errors.KindValue).
				Path("source", fmt.Sprint(i)).
				Detail("all composite sources must be the same size: %d != %d", src.NumberOfValues(), size).
				Build()
		}
		if c := components[i]; c < 0 || c >= src.NumComponents() {
			return nil, errors.OutOfBounds(errors.PhaseConstruct, []string{"source", fmt.Sprint(i)}, c, src.NumComponents())
		}
	}

	return &Composite[V, C]{
		sources:    sources,
		components: components,
	}, nil
}

func (p *Composite[V, C]) NumberOfValues() int {
	return p.sources[0].NumberOfValues()
}

func (p *Composite[V, C]) Get(index int) V {
	var comps [MaxCompositeSources]C
	for i, src := range p.sources {
		comps[i] = src.Component(index, p.components[i])
	}
	return value.Compose[V](comps[:len(p.sources)]...)
}
