package transfer

import (
	"github.com/wippyai/arrayhandle/device"
	"github.com/wippyai/arrayhandle/errors"
	"github.com/wippyai/arrayhandle/portal"
	"github.com/wippyai/arrayhandle/storage"
)

// Transfer owns the device buffer of one array on one device.
type Transfer[T any] interface {
	Device() device.Tag
	// NumberOfValues returns the logical length of the device buffer.
	NumberOfValues() int

	// LoadForInput copies control values to the device.
	LoadForInput(s storage.Storage[T]) (portal.ConstPortal[T], error)
	// LoadForInPlace copies control values to the device for modification.
	LoadForInPlace(s storage.Storage[T]) (portal.Portal[T], error)
	// AllocateForOutput provides a device buffer of n values. Previous device
	// content is discarded.
	AllocateForOutput(s storage.Storage[T], n int) (portal.Portal[T], error)
	// RetrieveOutputData reallocates s to the device length and copies the
	// device values into it.
	RetrieveOutputData(s storage.Storage[T]) error
	// Shrink lowers the device length.
	Shrink(n int) error

	PortalConst() portal.ConstPortal[T]
	Portal() (portal.Portal[T], error)

	// ReleaseResources frees the device buffer. Calling it again is a no-op.
	ReleaseResources()
	Stats() Stats
}

// Stats counts the copies a Transfer performed.
type Stats struct {
	ToDevice       int
	ToControl      int
	Allocations    int
	BytesToDevice  uint64
	BytesToControl uint64
}

// New creates the transfer matching a's capability.
func New[T any](a device.Adapter) (Transfer[T], error) {
	switch ad := a.(type) {
	case device.HostAdapter:
		return newHost[T](ad), nil
	case device.LinearAdapter:
		return newLinear[T](ad)
	case nil:
		return nil, errors.NotInitialized(errors.PhaseTransfer, "device adapter")
	default:
		return nil, errors.New(errors.PhaseTransfer, errors.KindUnsupported).
			Device(a.Tag().String()).
			Detail("adapter exposes neither host nor linear memory").
			Build()
	}
}

func shrinkCheck(tag device.Tag, n, size int) error {
	if n < 0 || n > size {
		e := errors.SizeError(errors.PhaseTransfer, n, size)
		e.Device = tag.String()
		return e
	}
	return nil
}

func negativeSize(tag device.Tag, n int) error {
	return errors.New(errors.PhaseTransfer, errors.KindValue).
		Device(tag.String()).
		Value(n).
		Detail("cannot allocate %d values", n).
		Build()
}
