// Package errors provides structured error types for the arrayhandle library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the offending device, Go type, path and cause chain.
//
// The four categories raised by array handles and transfers are:
//
//	KindValue        bad size argument, length mismatch among composite sources
//	KindUnsupported  write, allocate or shrink on a read-only array
//	KindInternal     unconstructed handles, unreachable states
//	KindExecution    failure inside a device-side call, re-raised on the control side
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseTransfer, errors.KindValue).
//		Device("wasm").
//		GoType("float64").
//		Detail("cannot shrink %d values to %d", 10, 20).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.ValueError(errors.PhaseControl, "shrink beyond size")
//	err := errors.Unsupported(errors.PhaseControl, "composite arrays are read-only")
//
// All errors implement the standard error interface and support errors.Is/As.
// IsKind reports the category regardless of phase.
package errors
