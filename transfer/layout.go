package transfer

import (
	"encoding/binary"
	"reflect"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/arrayhandle/errors"
)

// elementLayout places values of one Go type in linear memory.
type elementLayout struct {
	stride uint32 // distance between consecutive values
	align  uint32
	packed uint32 // bytes written by the little-endian codec
}

// witType returns the wit type whose canonical layout matches t. Only
// fixed-size types without pointers are representable.
func witType(t reflect.Type) (wit.Type, bool) {
	switch t.Kind() {
	case reflect.Bool:
		return wit.Bool{}, true
	case reflect.Int8:
		return wit.S8{}, true
	case reflect.Uint8:
		return wit.U8{}, true
	case reflect.Int16:
		return wit.S16{}, true
	case reflect.Uint16:
		return wit.U16{}, true
	case reflect.Int32:
		return wit.S32{}, true
	case reflect.Uint32:
		return wit.U32{}, true
	case reflect.Int64:
		return wit.S64{}, true
	case reflect.Uint64:
		return wit.U64{}, true
	case reflect.Float32:
		return wit.F32{}, true
	case reflect.Float64:
		return wit.F64{}, true
	case reflect.Array:
		elem, ok := witType(t.Elem())
		if !ok {
			return nil, false
		}
		types := make([]wit.Type, t.Len())
		for i := range types {
			types[i] = elem
		}
		return &wit.TypeDef{Kind: &wit.Tuple{Types: types}}, true
	case reflect.Struct:
		fields := make([]wit.Field, 0, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			ft, ok := witType(f.Type)
			if !ok {
				return nil, false
			}
			fields = append(fields, wit.Field{Name: f.Name, Type: ft})
		}
		return &wit.TypeDef{Kind: &wit.Record{Fields: fields}}, true
	default:
		return nil, false
	}
}

// sizeAlign computes the canonical ABI size and alignment of t.
func sizeAlign(t wit.Type) (size, align uint32) {
	switch typ := t.(type) {
	case wit.Bool, wit.S8, wit.U8:
		return 1, 1
	case wit.S16, wit.U16:
		return 2, 2
	case wit.S32, wit.U32, wit.F32:
		return 4, 4
	case wit.S64, wit.U64, wit.F64:
		return 8, 8
	case *wit.TypeDef:
		switch kind := typ.Kind.(type) {
		case *wit.Tuple:
			return sequence(kind.Types)
		case *wit.Record:
			types := make([]wit.Type, len(kind.Fields))
			for i, f := range kind.Fields {
				types[i] = f.Type
			}
			return sequence(types)
		}
	}
	return 0, 1
}

func sequence(types []wit.Type) (size, align uint32) {
	align = 1
	for _, t := range types {
		s, a := sizeAlign(t)
		size = alignTo(size, a)
		size += s
		align = max(align, a)
	}
	return alignTo(size, align), align
}

func alignTo(v, align uint32) uint32 {
	return (v + align - 1) / align * align
}

// layoutOf returns the linear memory layout of T.
func layoutOf[T any]() (elementLayout, error) {
	t := reflect.TypeFor[T]()
	wt, ok := witType(t)
	packed := binary.Size(reflect.Zero(t).Interface())
	if !ok || packed < 0 {
		return elementLayout{}, errors.New(errors.PhaseTransfer, errors.KindUnsupported).
			GoType(t.String()).
			Device("wasm").
			Detail("element type has no fixed-size linear layout").
			Build()
	}
	size, align := sizeAlign(wt)
	return elementLayout{
		stride: max(size, 1),
		align:  align,
		packed: uint32(packed),
	}, nil
}
