package transfer

import (
	"go.uber.org/zap"

	"github.com/wippyai/arrayhandle/device"
	"github.com/wippyai/arrayhandle/errors"
	"github.com/wippyai/arrayhandle/portal"
	"github.com/wippyai/arrayhandle/storage"
)

// LoadFunc produces the device portal of a read-only array.
type LoadFunc[T any] func(s storage.Storage[T]) (portal.ConstPortal[T], error)

// readOnly serves computed and composite arrays. Loading assembles a portal
// instead of copying values, so Stats stays zero.
type readOnly[T any] struct {
	tag     device.Tag
	load    LoadFunc[T]
	release func()
	current portal.ConstPortal[T]
	stats   Stats
}

// NewReadOnly creates a transfer for an array that cannot be written. load
// builds the device portal; release, if not nil, runs on ReleaseResources.
func NewReadOnly[T any](tag device.Tag, load LoadFunc[T], release func()) Transfer[T] {
	return &readOnly[T]{tag: tag, load: load, release: release}
}

func (r *readOnly[T]) Device() device.Tag { return r.tag }
func (r *readOnly[T]) Stats() Stats       { return r.stats }

func (r *readOnly[T]) NumberOfValues() int {
	if r.current == nil {
		return 0
	}
	return r.current.NumberOfValues()
}

func (r *readOnly[T]) unsupported(op string) error {
	return errors.New(errors.PhaseTransfer, errors.KindUnsupported).
		Device(r.tag.String()).
		Detail("%s on a read-only array", op).
		Build()
}

func (r *readOnly[T]) LoadForInput(s storage.Storage[T]) (portal.ConstPortal[T], error) {
	p, err := r.load(s)
	if err != nil {
		return nil, err
	}
	r.current = p
	Logger().Debug("assembled read-only portal",
		zap.Stringer("device", r.tag),
		zap.Int("values", p.NumberOfValues()))
	return p, nil
}

func (r *readOnly[T]) LoadForInPlace(storage.Storage[T]) (portal.Portal[T], error) {
	return nil, r.unsupported("in-place preparation")
}

func (r *readOnly[T]) AllocateForOutput(storage.Storage[T], int) (portal.Portal[T], error) {
	return nil, r.unsupported("output allocation")
}

func (r *readOnly[T]) RetrieveOutputData(storage.Storage[T]) error {
	return r.unsupported("output retrieval")
}

func (r *readOnly[T]) Shrink(int) error {
	return r.unsupported("shrink")
}

func (r *readOnly[T]) PortalConst() portal.ConstPortal[T] {
	if r.current == nil {
		return portal.NewBasic[T](nil)
	}
	return r.current
}

func (r *readOnly[T]) Portal() (portal.Portal[T], error) {
	return nil, r.unsupported("writable portal")
}

func (r *readOnly[T]) ReleaseResources() {
	if r.current == nil {
		return
	}
	r.current = nil
	if r.release != nil {
		r.release()
	}
}
