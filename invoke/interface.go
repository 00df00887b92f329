package invoke

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/wippyai/arrayhandle/errors"
)

// Interface is a fixed-arity argument list with an optional return value.
type Interface struct {
	slots  []any
	ret    any
	hasRet bool
}

// Make creates an interface whose slots are params, in order.
func Make(params ...any) *Interface {
	return &Interface{slots: slices.Clone(params)}
}

// Arity returns the number of slots.
func (fi *Interface) Arity() int { return len(fi.slots) }

func (fi *Interface) index(k int) int {
	if k < 1 || k > len(fi.slots) {
		panic(errors.OutOfBounds(errors.PhaseInvoke, []string{"slot", fmt.Sprint(k)}, k, len(fi.slots)))
	}
	return k - 1
}

// Parameter returns slot k. Slots are numbered from 1; an index outside
// [1, Arity()] panics.
func (fi *Interface) Parameter(k int) any {
	return fi.slots[fi.index(k)]
}

// SetParameter stores v in slot k.
func (fi *Interface) SetParameter(k int, v any) {
	fi.slots[fi.index(k)] = v
}

// Parameters returns a copy of all slots.
func (fi *Interface) Parameters() []any {
	return slices.Clone(fi.slots)
}

// Param returns slot k as T. It panics if the slot holds another type.
func Param[T any](fi *Interface, k int) T {
	v := fi.Parameter(k)
	t, ok := v.(T)
	if !ok && v != nil {
		panic(errors.TypeMismatch(errors.PhaseInvoke, []string{"slot", fmt.Sprint(k)},
			fmt.Sprintf("%T", v), "slot is not "+reflect.TypeFor[T]().String()))
	}
	return t
}

// Append returns a new interface with v added as the last slot. Like
// Replace, it carries over the captured return value.
func (fi *Interface) Append(v any) *Interface {
	slots := make([]any, len(fi.slots), len(fi.slots)+1)
	copy(slots, fi.slots)
	return &Interface{slots: append(slots, v), ret: fi.ret, hasRet: fi.hasRet}
}

// Replace returns a new interface with slot k set to v.
func (fi *Interface) Replace(k int, v any) *Interface {
	i := fi.index(k)
	out := &Interface{slots: slices.Clone(fi.slots), ret: fi.ret, hasRet: fi.hasRet}
	out.slots[i] = v
	return out
}

// ReturnValue returns the value captured by the last invocation.
func (fi *Interface) ReturnValue() (any, bool) {
	return fi.ret, fi.hasRet
}

// Return returns the captured return value as T.
func Return[T any](fi *Interface) (T, bool) {
	var zero T
	if !fi.hasRet {
		return zero, false
	}
	t, ok := fi.ret.(T)
	return t, ok
}

// TransformFunc maps slot k (from 1) to the value passed in its place.
type TransformFunc func(k int, v any) (any, error)

// Transform returns a new interface with every slot mapped through fn.
func (fi *Interface) Transform(fn TransformFunc) (*Interface, error) {
	out := &Interface{slots: make([]any, len(fi.slots))}
	for i, v := range fi.slots {
		t, err := fn(i+1, v)
		if err != nil {
			return nil, err
		}
		out.slots[i] = t
	}
	return out, nil
}

// ForEach calls fn for every slot in order and stops at the first error.
func (fi *Interface) ForEach(fn func(k int, v any) error) error {
	for i, v := range fi.slots {
		if err := fn(i+1, v); err != nil {
			return err
		}
	}
	return nil
}

// InvokeControl calls callable with the slots in the control convention.
// Errors returned by callable are passed through unchanged.
func (fi *Interface) InvokeControl(callable any) error {
	return fi.call(callable, false)
}

// InvokeExecution calls callable in the execution convention. A panic or
// returned error becomes an execution error.
func (fi *Interface) InvokeExecution(callable any) error {
	return fi.call(callable, true)
}

// TransformedInvoke transforms the slots with fn and invokes callable in the
// control convention. The return value is captured on fi.
func (fi *Interface) TransformedInvoke(callable any, fn TransformFunc) error {
	return fi.transformedCall(callable, fn, false)
}

// TransformedInvokeExecution is TransformedInvoke in the execution convention.
func (fi *Interface) TransformedInvokeExecution(callable any, fn TransformFunc) error {
	return fi.transformedCall(callable, fn, true)
}

func (fi *Interface) transformedCall(callable any, fn TransformFunc, execution bool) error {
	t, err := fi.Transform(fn)
	if err != nil {
		return err
	}
	if err := t.call(callable, execution); err != nil {
		return err
	}
	fi.ret, fi.hasRet = t.ret, t.hasRet
	return nil
}
