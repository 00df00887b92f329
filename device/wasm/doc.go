// Package wasm provides the accelerator device: array buffers live in the
// linear memory of a wazero module instance, separate from the Go heap.
//
// Data reaches the device only through explicit copies into that memory, and
// leaves it only through explicit copies back, so freshness bookkeeping in the
// array package is exercised the same way it would be for a discrete device.
//
//	a, err := wasm.New(ctx, wasm.Config{MemoryLimitPages: 1024})
//	if err != nil { ... }
//	defer a.Close(ctx)
//	tracker.Register(a)
package wasm
