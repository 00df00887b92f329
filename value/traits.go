package value

import (
	"fmt"
	"math"
	"reflect"
)

// NumComponents returns 1 for scalar V, N for an [N]Scalar array type and 0
// for anything else.
func NumComponents[V any]() int {
	_, n, ok := Shape(reflect.TypeFor[V]())
	if !ok {
		return 0
	}
	return n
}

// Shape reports the component kind and count of t.
func Shape(t reflect.Type) (reflect.Kind, int, bool) {
	if t == nil {
		return reflect.Invalid, 0, false
	}
	if isScalarKind(t.Kind()) {
		return t.Kind(), 1, true
	}
	if t.Kind() == reflect.Array && isScalarKind(t.Elem().Kind()) && t.Len() > 0 {
		return t.Elem().Kind(), t.Len(), true
	}
	return reflect.Invalid, 0, false
}

// CheckComponent returns an error unless i addresses a component of V.
func CheckComponent[V any](i int) error {
	n := NumComponents[V]()
	if n == 0 {
		return fmt.Errorf("%v has no numeric components", reflect.TypeFor[V]())
	}
	if i < 0 || i >= n {
		return fmt.Errorf("component %d out of range for %v (%d components)", i, reflect.TypeFor[V](), n)
	}
	return nil
}

// Component returns component i of v converted to C. It panics when v is not
// a scalar or scalar array, or i is out of range.
func Component[C Scalar](v any, i int) C {
	switch x := v.(type) {
	case float64:
		if i == 0 {
			return C(x)
		}
	case float32:
		if i == 0 {
			return C(x)
		}
	case int64:
		if i == 0 {
			return C(x)
		}
	case int32:
		if i == 0 {
			return C(x)
		}
	case Vector3:
		return C(x[i])
	case Id3:
		return C(x[i])
	}

	rv := reflect.ValueOf(v)
	switch {
	case isScalarKind(rv.Kind()):
		if i != 0 {
			panic(fmt.Sprintf("value: component %d of scalar %T", i, v))
		}
		return fromReflect[C](rv)
	case rv.Kind() == reflect.Array:
		return fromReflect[C](rv.Index(i))
	}
	panic(fmt.Sprintf("value: %T has no numeric components", v))
}

// Compose builds a V from its components.
func Compose[V any, C Scalar](comps ...C) V {
	var v V
	rv := reflect.ValueOf(&v).Elem()
	if rv.Kind() == reflect.Array {
		for i := 0; i < rv.Len() && i < len(comps); i++ {
			setReflect(rv.Index(i), comps[i])
		}
		return v
	}
	if len(comps) > 0 {
		setReflect(rv, comps[0])
	}
	return v
}

// Components returns every component of v as float64.
func Components(v any) []float64 {
	rv := reflect.ValueOf(v)
	if isScalarKind(rv.Kind()) {
		return []float64{fromReflect[float64](rv)}
	}
	if rv.Kind() == reflect.Array {
		out := make([]float64, rv.Len())
		for i := range out {
			out[i] = fromReflect[float64](rv.Index(i))
		}
		return out
	}
	return nil
}

// Equal compares a and b component-wise with a relative tolerance. Components
// that are both near zero compare equal; non-finite values never do.
func Equal[V any](a, b V, tolerance float64) bool {
	ca, cb := Components(a), Components(b)
	if ca == nil || len(ca) != len(cb) {
		return reflect.DeepEqual(a, b)
	}
	for i := range ca {
		v1, v2 := ca[i], cb[i]
		if math.Abs(v1) < 2*tolerance && math.Abs(v2) < 2*tolerance {
			continue
		}
		ratio := v1 / v2
		if !(ratio > 1-tolerance && ratio < 1+tolerance) {
			return false
		}
	}
	return true
}

func isScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func fromReflect[C Scalar](rv reflect.Value) C {
	switch rv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return C(rv.Int())
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return C(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return C(rv.Float())
	}
	panic(fmt.Sprintf("value: %v is not numeric", rv.Type()))
}

func setReflect[C Scalar](rv reflect.Value, c C) {
	switch rv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		rv.SetInt(int64(c))
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		rv.SetUint(uint64(c))
	case reflect.Float32, reflect.Float64:
		rv.SetFloat(float64(c))
	default:
		panic(fmt.Sprintf("value: %v is not numeric", rv.Type()))
	}
}
