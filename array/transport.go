package array

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/wippyai/arrayhandle/device"
	"github.com/wippyai/arrayhandle/errors"
	"github.com/wippyai/arrayhandle/invoke"
)

// TransportTag says how an invocation slot reaches the device.
type TransportTag uint8

const (
	// None passes the slot unchanged.
	None TransportTag = iota
	// FieldIn reads one value per lane; the array must match the domain.
	FieldIn
	// FieldOut writes one value per lane into a fresh array of domain size.
	FieldOut
	// FieldInOut reads and writes one value per lane in place.
	FieldInOut
	// WholeArrayIn gives every lane read access to the whole array.
	WholeArrayIn
	// WholeArrayOut gives every lane write access to a fresh array of the
	// array's current size.
	WholeArrayOut
	// WholeArrayInOut gives every lane read-write access to the whole array.
	WholeArrayInOut
)

var transportNames = [...]string{
	None:            "none",
	FieldIn:         "field-in",
	FieldOut:        "field-out",
	FieldInOut:      "field-in-out",
	WholeArrayIn:    "whole-array-in",
	WholeArrayOut:   "whole-array-out",
	WholeArrayInOut: "whole-array-in-out",
}

func (t TransportTag) String() string {
	if int(t) < len(transportNames) {
		return transportNames[t]
	}
	return fmt.Sprintf("transport(%d)", uint8(t))
}

// Transportable is implemented by every *Handle.
type Transportable interface {
	ID() uuid.UUID
	NumberOfValues() (int, error)
	// Transport prepares the array on dev for a call over domain lanes and
	// returns the device portal.
	Transport(tag TransportTag, dev device.Tag, domain int) (any, error)
}

var _ Transportable = (*Handle[float64])(nil)

func (h *Handle[T]) checkDomain(tag TransportTag, domain int) error {
	n, err := h.NumberOfValues()
	if err != nil {
		return err
	}
	if n != domain {
		return errors.New(errors.PhaseInvoke, errors.KindValue).
			Path(h.path(tag.String())...).
			Value(n).
			Detail("input array has %d values, invocation domain is %d", n, domain).
			Build()
	}
	return nil
}

// Transport prepares h on dev according to tag.
func (h *Handle[T]) Transport(tag TransportTag, dev device.Tag, domain int) (any, error) {
	switch tag {
	case None:
		return h, nil
	case FieldIn:
		if err := h.checkDomain(tag, domain); err != nil {
			return nil, err
		}
		return h.PrepareForInput(dev)
	case FieldInOut:
		if err := h.checkDomain(tag, domain); err != nil {
			return nil, err
		}
		return h.PrepareForInPlace(dev)
	case FieldOut:
		return h.PrepareForOutput(dev, domain)
	case WholeArrayIn:
		return h.PrepareForInput(dev)
	case WholeArrayInOut:
		return h.PrepareForInPlace(dev)
	case WholeArrayOut:
		n, err := h.NumberOfValues()
		if err != nil {
			return nil, err
		}
		return h.PrepareForOutput(dev, n)
	}
	return nil, errors.InvalidInput(errors.PhaseInvoke, "unknown transport "+tag.String())
}

// Transport returns a slot transform that prepares slot k according to
// tags[k-1] on dev. Slots beyond tags, and slots tagged None, pass unchanged.
func Transport(dev device.Tag, domain int, tags ...TransportTag) invoke.TransformFunc {
	return func(k int, v any) (any, error) {
		tag := None
		if k-1 < len(tags) {
			tag = tags[k-1]
		}
		if tag == None {
			return v, nil
		}
		t, ok := v.(Transportable)
		if !ok {
			return nil, errors.TypeMismatch(errors.PhaseInvoke, []string{"slot", fmt.Sprint(k)},
				fmt.Sprintf("%T", v), "transport "+tag.String()+" needs an array")
		}
		return t.Transport(tag, dev, domain)
	}
}
