package transfer

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/wippyai/arrayhandle/device"
	"github.com/wippyai/arrayhandle/portal"
	"github.com/wippyai/arrayhandle/storage"
)

// hostTransfer keeps the device buffer as a Go slice.
type hostTransfer[T any] struct {
	adapter  device.HostAdapter
	buf      []T
	size     int
	elemSize uint64
	stats    Stats
}

func newHost[T any](a device.HostAdapter) *hostTransfer[T] {
	return &hostTransfer[T]{
		adapter:  a,
		elemSize: uint64(reflect.TypeFor[T]().Size()),
	}
}

func (h *hostTransfer[T]) Device() device.Tag  { return h.adapter.Tag() }
func (h *hostTransfer[T]) NumberOfValues() int { return h.size }
func (h *hostTransfer[T]) Stats() Stats        { return h.stats }

// reserve sizes the buffer for n values, reusing capacity.
func (h *hostTransfer[T]) reserve(n int) {
	if n > cap(h.buf) || h.buf == nil {
		h.buf = make([]T, n)
		h.stats.Allocations++
	} else {
		h.buf = h.buf[:n]
	}
	h.size = n
}

func (h *hostTransfer[T]) load(s storage.Storage[T]) {
	n := s.NumberOfValues()
	h.reserve(n)

	if sl, ok := s.(storage.Slicer[T]); ok {
		src := sl.Slice()
		h.adapter.Partition(n, func(lo, hi int) { copy(h.buf[lo:hi], src[lo:hi]) })
	} else {
		src := s.PortalConst()
		h.adapter.Partition(n, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				h.buf[i] = src.Get(i)
			}
		})
	}

	h.stats.ToDevice++
	h.stats.BytesToDevice += uint64(n) * h.elemSize
	Logger().Debug("copied to device",
		zap.Stringer("device", h.Device()),
		zap.Int("values", n))
}

func (h *hostTransfer[T]) LoadForInput(s storage.Storage[T]) (portal.ConstPortal[T], error) {
	h.load(s)
	return h.PortalConst(), nil
}

func (h *hostTransfer[T]) LoadForInPlace(s storage.Storage[T]) (portal.Portal[T], error) {
	h.load(s)
	return h.Portal()
}

func (h *hostTransfer[T]) AllocateForOutput(_ storage.Storage[T], n int) (portal.Portal[T], error) {
	if n < 0 {
		return nil, negativeSize(h.Device(), n)
	}
	h.buf = make([]T, n)
	h.size = n
	h.stats.Allocations++
	return h.Portal()
}

func (h *hostTransfer[T]) RetrieveOutputData(s storage.Storage[T]) error {
	n := h.size
	if err := s.Allocate(n); err != nil {
		return err
	}
	dst, err := s.Portal()
	if err != nil {
		return err
	}

	if sl, ok := s.(storage.Slicer[T]); ok {
		out := sl.Slice()
		h.adapter.Partition(n, func(lo, hi int) { copy(out[lo:hi], h.buf[lo:hi]) })
	} else {
		h.adapter.Partition(n, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				dst.Set(i, h.buf[i])
			}
		})
	}

	h.stats.ToControl++
	h.stats.BytesToControl += uint64(n) * h.elemSize
	Logger().Debug("copied to control",
		zap.Stringer("device", h.Device()),
		zap.Int("values", n))
	return nil
}

func (h *hostTransfer[T]) Shrink(n int) error {
	if err := shrinkCheck(h.Device(), n, h.size); err != nil {
		return err
	}
	h.size = n
	return nil
}

func (h *hostTransfer[T]) PortalConst() portal.ConstPortal[T] {
	return portal.NewBasic(h.buf[:h.size])
}

func (h *hostTransfer[T]) Portal() (portal.Portal[T], error) {
	return portal.NewBasic(h.buf[:h.size]), nil
}

func (h *hostTransfer[T]) ReleaseResources() {
	h.buf = nil
	h.size = 0
}
