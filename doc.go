// Package arrayhandle moves typed arrays between a host ("control") environment
// and one or more execution devices, and marshals heterogeneous arguments into
// device calls.
//
// # Architecture Overview
//
//	arrayhandle/       Root package with byte-level device Memory and Allocator interfaces
//	├── value/         Scalars, Vec2/Vec3/Vec4 and component traits
//	├── portal/        Random-access views: basic, counting, implicit, composite
//	├── storage/       Host-resident buffers with size and capacity
//	├── device/        Device tags, adapters, executors and the tracker
//	│   └── wasm/      Device buffers inside a wazero linear memory
//	├── transfer/      Per-device movement between storage and device buffers
//	├── array/         The Handle façade, composite and computed arrays, transports
//	├── invoke/        Fixed-arity argument containers and invocation
//	├── dispatch/      Transport + invoke glue for device calls
//	├── config/        TOML configuration and logger setup
//	└── errors/        Structured error types
//
// # Quick Start
//
//	h := array.FromValues([]float64{1, 2, 3})
//	in, err := h.PrepareForInput(device.Parallel)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(in.Get(2)) // 3
//
// # Freshness
//
// Exactly one side, the control storage or one device, is authoritative at a
// time. Reading from a stale side copies first; writing to a side makes it
// authoritative and every other copy stale. Repeated input preparation on the
// same device copies at most once.
//
// # Thread Safety
//
// Handles are not safe for concurrent use. Callers serialize access to a
// handle; device executors may run many lanes in parallel inside one call.
package arrayhandle
