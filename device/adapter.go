package device

import (
	"context"

	"github.com/wippyai/arrayhandle"
)

// Adapter is the collaborator that owns one execution environment.
type Adapter interface {
	Tag() Tag
	// Synchronize blocks until work previously scheduled on the device has
	// completed and its memory is visible to the host.
	Synchronize() error
	Close(ctx context.Context) error
}

// HostAdapter is an environment whose buffers live in host memory. Copies into
// and out of it are split into [lo, hi) ranges by Partition.
type HostAdapter interface {
	Adapter
	Partition(n int, fn func(lo, hi int))
}

// LinearAdapter is an environment with its own byte-addressed memory.
type LinearAdapter interface {
	Adapter
	Memory() arrayhandle.Memory
	Allocator() arrayhandle.Allocator
}

// Executor runs kernel once per lane in [0, n). It returns after every lane
// has finished. Errors and panics from lanes are reported as one
// execution error.
type Executor interface {
	Schedule(n int, kernel func(i int) error) error
}

// ExecutorOf returns the Executor implemented by a, if any.
func ExecutorOf(a Adapter) (Executor, bool) {
	e, ok := a.(Executor)
	return e, ok
}
