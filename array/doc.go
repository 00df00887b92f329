// Package array provides Handle, the façade that owns an array's control
// storage and its per-device buffers.
//
// A Handle keeps one Storage on the control side and creates at most one
// transfer.Transfer per device tag, on first use. Exactly one side is
// authoritative at a time:
//
//	Authority{Side: Control}           control storage holds the latest values
//	Authority{Side: Device, Device: d} device d holds the latest values
//
// Each device buffer additionally carries a fresh flag meaning "equal to the
// authoritative values". Reading a stale side first synchronizes it; writing a
// side makes it authoritative and every other side stale. Only the mutators
// (PrepareForInPlace, PrepareForOutput, Shrink, GetPortalControl and the
// synchronizing reads) change these flags.
//
// Handles are shared by pointer. A Handle is not safe for concurrent use; the
// caller serializes access.
//
// Counting, Implicit and CompositeVector build read-only handles. They accept
// reads on every device and reject every write path with an
// unsupported-operation error.
package array
