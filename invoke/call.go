package invoke

import (
	stderrors "errors"
	"fmt"
	"math"
	"reflect"

	"github.com/wippyai/arrayhandle/errors"
)

var errorType = reflect.TypeFor[error]()

type writeBack struct {
	slot int
	ptr  reflect.Value
}

func (fi *Interface) call(callable any, execution bool) (err error) {
	fv := reflect.ValueOf(callable)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		return errors.New(errors.PhaseInvoke, errors.KindTypeMismatch).
			GoType(fmt.Sprintf("%T", callable)).
			Detail("callable must be a function").
			Build()
	}
	ft := fv.Type()

	if n := ft.NumIn(); (!ft.IsVariadic() && n != len(fi.slots)) || (ft.IsVariadic() && len(fi.slots) < n-1) {
		return errors.New(errors.PhaseInvoke, errors.KindTypeMismatch).
			GoType(ft.String()).
			Detail("callable takes %d parameters, interface has %d", n, len(fi.slots)).
			Build()
	}

	args := make([]reflect.Value, len(fi.slots))
	var backs []writeBack
	for i, slot := range fi.slots {
		arg, byRef, err := argument(slot, paramType(ft, i), i+1)
		if err != nil {
			return err
		}
		args[i] = arg
		if byRef {
			backs = append(backs, writeBack{slot: i, ptr: arg})
		}
	}

	if execution {
		defer func() {
			if r := recover(); r != nil {
				err = errors.Execution("", fmt.Errorf("callable panicked: %v", r))
			}
		}()
	}

	fi.ret, fi.hasRet = nil, false
	out := fv.Call(args)

	for _, b := range backs {
		fi.slots[b.slot] = b.ptr.Elem().Interface()
	}

	var callErr error
	for i, r := range out {
		if i == len(out)-1 && ft.Out(i) == errorType {
			if !r.IsNil() {
				callErr = r.Interface().(error)
			}
			continue
		}
		if !fi.hasRet {
			fi.ret, fi.hasRet = r.Interface(), true
		}
	}

	if callErr != nil && execution {
		var e *errors.Error
		if stderrors.As(callErr, &e) && e.Kind == errors.KindExecution {
			return callErr
		}
		return errors.Execution("", callErr)
	}
	return callErr
}

func paramType(ft reflect.Type, i int) reflect.Type {
	if ft.IsVariadic() && i >= ft.NumIn()-1 {
		return ft.In(ft.NumIn() - 1).Elem()
	}
	return ft.In(i)
}

func nilable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

// argument converts slot k to a value of type pt. byRef reports that the
// result is a pointer to a copy of the slot that must be written back.
func argument(slot any, pt reflect.Type, k int) (arg reflect.Value, byRef bool, err error) {
	mismatch := func(detail string) error {
		return errors.TypeMismatch(errors.PhaseInvoke, []string{"slot", fmt.Sprint(k)},
			fmt.Sprintf("%T", slot), detail)
	}

	if slot == nil {
		if nilable(pt.Kind()) {
			return reflect.Zero(pt), false, nil
		}
		return reflect.Value{}, false, mismatch("nil slot for parameter of type " + pt.String())
	}

	sv := reflect.ValueOf(slot)
	st := sv.Type()

	switch {
	case st.AssignableTo(pt):
		return sv, false, nil
	case pt.Kind() == reflect.Pointer && st.AssignableTo(pt.Elem()):
		p := reflect.New(pt.Elem())
		p.Elem().Set(sv)
		return p, true, nil
	case isNumeric(st.Kind()) && isNumeric(pt.Kind()):
		cv, ok := coerce(sv, pt)
		if !ok {
			return reflect.Value{}, false, mismatch(fmt.Sprintf("value %v does not fit %s", slot, pt))
		}
		return cv, false, nil
	case st.Kind() == pt.Kind() && st.ConvertibleTo(pt):
		return sv.Convert(pt), false, nil
	}
	return reflect.Value{}, false, mismatch("cannot pass as " + pt.String())
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// coerce converts sv to pt when the value survives the round trip.
func coerce(sv reflect.Value, pt reflect.Type) (reflect.Value, bool) {
	if isFloatKind(sv.Kind()) && !isFloatKind(pt.Kind()) {
		f := sv.Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
			return reflect.Value{}, false
		}
	}
	if isSigned(sv.Kind()) && isUnsigned(pt.Kind()) && sv.Int() < 0 {
		return reflect.Value{}, false
	}
	cv := sv.Convert(pt)
	if isUnsigned(sv.Kind()) && isSigned(pt.Kind()) && cv.Int() < 0 {
		return reflect.Value{}, false
	}
	back := cv.Convert(sv.Type())
	if !back.Equal(sv) && !(isFloatKind(sv.Kind()) && math.IsNaN(sv.Float())) {
		return reflect.Value{}, false
	}
	return cv, true
}

func isFloatKind(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isSigned(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}
