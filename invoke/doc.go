// Package invoke packs heterogeneous call arguments and calls algorithms with
// them.
//
// An Interface is an ordered list of slots, addressed from 1, plus an optional
// return value. Append and Replace return new instances and leave the receiver
// unchanged. Invocation unpacks the slots positionally into any Go function:
//
//	fi := invoke.Make(in, out, 3.5)
//	err := fi.InvokeControl(func(in, out *array.Handle[float64], scale float64) error { ... })
//
// Slots are matched to parameters by assignability. A pointer parameter
// receives the address of a copy of its slot and the pointee is written back
// after the call. Numeric slots convert to other numeric parameter types when
// the conversion is lossless.
//
// InvokeExecution is the device calling convention: a panic or returned error
// inside the callable is reported as an execution error.
//
// TransformedInvoke maps every slot through a TransformFunc first; the array
// package uses it to turn array handles into device portals right before a
// device call. DynamicTransform resolves slots against an ordered candidate
// list and calls a continuation once per combination of resolved forms.
package invoke
