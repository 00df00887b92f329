package array

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/arrayhandle/device"
	"github.com/wippyai/arrayhandle/errors"
	"github.com/wippyai/arrayhandle/portal"
	"github.com/wippyai/arrayhandle/storage"
	"github.com/wippyai/arrayhandle/transfer"
)

// Option configures a handle at construction.
type Option func(*options)

type options struct {
	tracker *device.Tracker
}

// WithTracker selects the tracker that supplies device adapters. The default
// is device.DefaultTracker().
func WithTracker(t *device.Tracker) Option {
	return func(o *options) { o.tracker = t }
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracker == nil {
		o.tracker = device.DefaultTracker()
	}
	return o
}

type deviceState[T any] struct {
	xfer  transfer.Transfer[T]
	fresh bool
}

// readOnlySource supplies the values of a read-only handle.
type readOnlySource[T any] struct {
	size    func() (int, error)
	control func() (portal.ConstPortal[T], error)
	device  func(tag device.Tag) (portal.ConstPortal[T], error)
}

// Handle is an array whose values may live on the control side or on any
// device. The zero Handle is unconstructed and every operation on it fails.
type Handle[T any] struct {
	id      uuid.UUID
	tracker *device.Tracker
	store   storage.Storage[T]
	ro      *readOnlySource[T]
	devices map[device.Tag]*deviceState[T]
	auth    Authority
	valid   bool
}

func newHandle[T any](s storage.Storage[T], ro *readOnlySource[T], opts []Option) *Handle[T] {
	o := buildOptions(opts)
	return &Handle[T]{
		id:      uuid.New(),
		tracker: o.tracker,
		store:   s,
		ro:      ro,
		devices: make(map[device.Tag]*deviceState[T]),
		auth:    ControlAuthority,
		valid:   true,
	}
}

// New creates a handle of n zero values.
func New[T any](n int, opts ...Option) *Handle[T] {
	return newHandle[T](storage.New[T](n), nil, opts)
}

// FromValues creates a handle holding a copy of values.
func FromValues[T any](values []T, opts ...Option) *Handle[T] {
	return newHandle[T](storage.FromValues(values), nil, opts)
}

// FromUser creates a handle over caller-owned memory. The handle reads and
// writes values in place until it reallocates; in-place device preparation is
// rejected while the memory is still the caller's.
func FromUser[T any](values []T, opts ...Option) *Handle[T] {
	return newHandle[T](storage.FromUser(values), nil, opts)
}

// ID returns the handle's unique id.
func (h *Handle[T]) ID() uuid.UUID { return h.id }

// Authority returns the side holding the latest values.
func (h *Handle[T]) Authority() Authority { return h.auth }

// Capability reports whether the handle accepts writes.
func (h *Handle[T]) Capability() Capability {
	if h.ro != nil {
		return ReadOnly
	}
	return ReadWrite
}

// Fresh reports whether the buffer on tag holds the latest values.
func (h *Handle[T]) Fresh(tag device.Tag) bool {
	st, ok := h.devices[tag]
	if !ok {
		return false
	}
	return st.fresh || h.auth == OnDevice(tag)
}

// TransferStats returns the copy counters of the transfer for tag.
func (h *Handle[T]) TransferStats(tag device.Tag) (transfer.Stats, bool) {
	st, ok := h.devices[tag]
	if !ok {
		return transfer.Stats{}, false
	}
	return st.xfer.Stats(), true
}

func (h *Handle[T]) path(op string) []string {
	return []string{"array", h.id.String(), op}
}

func (h *Handle[T]) checkValid(op string) error {
	if h == nil || !h.valid {
		return errors.New(errors.PhaseControl, errors.KindInternal).
			Path("array", op).
			Detail("handle is not constructed").
			Build()
	}
	return nil
}

func (h *Handle[T]) checkWritable(op string) error {
	if err := h.checkValid(op); err != nil {
		return err
	}
	if h.ro != nil {
		return errors.New(errors.PhaseControl, errors.KindUnsupported).
			Path(h.path(op)...).
			Detail("%s on a read-only array", op).
			Build()
	}
	return nil
}

func (h *Handle[T]) userMemory() bool {
	u, ok := h.store.(interface{ IsUserMemory() bool })
	return ok && u.IsUserMemory()
}

// state returns the device state for tag, creating its transfer on first use.
func (h *Handle[T]) state(tag device.Tag) (*deviceState[T], error) {
	if st, ok := h.devices[tag]; ok {
		return st, nil
	}
	adapter, err := h.tracker.Adapter(tag)
	if err != nil {
		return nil, err
	}

	var xfer transfer.Transfer[T]
	if h.ro != nil {
		xfer = transfer.NewReadOnly[T](tag, func(storage.Storage[T]) (portal.ConstPortal[T], error) {
			return h.ro.device(tag)
		}, nil)
	} else {
		xfer, err = transfer.New[T](adapter)
		if err != nil {
			return nil, err
		}
	}

	st := &deviceState[T]{xfer: xfer}
	h.devices[tag] = st
	Logger().Debug("transfer created",
		zap.Stringer("array", h.id),
		zap.Stringer("device", tag))
	return st, nil
}

// syncToControl retrieves the authoritative device values into control
// storage. The device buffer stays fresh.
func (h *Handle[T]) syncToControl() error {
	if h.auth.Side != Device {
		return nil
	}
	st := h.devices[h.auth.Device]
	if err := st.xfer.RetrieveOutputData(h.store); err != nil {
		return err
	}
	Logger().Debug("retrieved from device",
		zap.Stringer("array", h.id),
		zap.Stringer("device", h.auth.Device),
		zap.Int("values", h.store.NumberOfValues()))
	st.fresh = true
	h.auth = ControlAuthority
	return nil
}

// takeAuthority makes tag authoritative and every other buffer stale.
func (h *Handle[T]) takeAuthority(tag device.Tag) {
	for t, st := range h.devices {
		st.fresh = t == tag
	}
	h.auth = OnDevice(tag)
}

func (h *Handle[T]) invalidateDevices() {
	for _, st := range h.devices {
		st.fresh = false
	}
}

// NumberOfValues returns the logical size of the authoritative side.
func (h *Handle[T]) NumberOfValues() (int, error) {
	if err := h.checkValid("size"); err != nil {
		return 0, err
	}
	if h.ro != nil {
		return h.ro.size()
	}
	if h.auth.Side == Device {
		return h.devices[h.auth.Device].xfer.NumberOfValues(), nil
	}
	return h.store.NumberOfValues(), nil
}

// PrepareForInput makes the buffer on tag current and returns a read-only
// device portal. A buffer that is already current is not copied again.
func (h *Handle[T]) PrepareForInput(tag device.Tag) (portal.ConstPortal[T], error) {
	if err := h.checkValid("input"); err != nil {
		return nil, err
	}
	st, err := h.state(tag)
	if err != nil {
		return nil, err
	}
	if h.ro != nil {
		return st.xfer.LoadForInput(h.store)
	}

	if h.auth.Side == Device {
		if h.auth.Device == tag {
			return st.xfer.PortalConst(), nil
		}
		if err := h.syncToControl(); err != nil {
			return nil, err
		}
	}
	if st.fresh {
		return st.xfer.PortalConst(), nil
	}

	p, err := st.xfer.LoadForInput(h.store)
	if err != nil {
		return nil, err
	}
	st.fresh = true
	return p, nil
}

// PrepareForInPlace makes the buffer on tag current and authoritative and
// returns a writable device portal.
func (h *Handle[T]) PrepareForInPlace(tag device.Tag) (portal.Portal[T], error) {
	if err := h.checkWritable("in-place"); err != nil {
		return nil, err
	}
	if h.userMemory() {
		return nil, errors.New(errors.PhaseControl, errors.KindUnsupported).
			Path(h.path("in-place")...).
			Device(tag.String()).
			Detail("arrays over caller memory cannot be modified in place on a device").
			Build()
	}
	st, err := h.state(tag)
	if err != nil {
		return nil, err
	}

	var p portal.Portal[T]
	switch {
	case h.auth == OnDevice(tag):
		p, err = st.xfer.Portal()
	default:
		if err = h.syncToControl(); err != nil {
			return nil, err
		}
		if st.fresh {
			p, err = st.xfer.Portal()
		} else {
			p, err = st.xfer.LoadForInPlace(h.store)
		}
	}
	if err != nil {
		return nil, err
	}
	h.takeAuthority(tag)
	return p, nil
}

// PrepareForOutput allocates n values on tag and returns a writable portal.
// Previous content is not preserved.
func (h *Handle[T]) PrepareForOutput(tag device.Tag, n int) (portal.Portal[T], error) {
	if err := h.checkWritable("output"); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, errors.New(errors.PhaseControl, errors.KindValue).
			Path(h.path("output")...).
			Value(n).
			Detail("cannot allocate %d values", n).
			Build()
	}
	st, err := h.state(tag)
	if err != nil {
		return nil, err
	}
	p, err := st.xfer.AllocateForOutput(h.store, n)
	if err != nil {
		return nil, err
	}
	h.takeAuthority(tag)
	Logger().Debug("allocated for output",
		zap.Stringer("array", h.id),
		zap.Stringer("device", tag),
		zap.Int("values", n))
	return p, nil
}

// GetPortalConstControl returns a read-only control portal, retrieving device
// values first if a device is authoritative.
func (h *Handle[T]) GetPortalConstControl() (portal.ConstPortal[T], error) {
	if err := h.checkValid("control"); err != nil {
		return nil, err
	}
	if h.ro != nil {
		return h.ro.control()
	}
	if err := h.syncToControl(); err != nil {
		return nil, err
	}
	return h.store.PortalConst(), nil
}

// GetPortalControl returns a writable control portal. Every device buffer
// becomes stale.
func (h *Handle[T]) GetPortalControl() (portal.Portal[T], error) {
	if err := h.checkWritable("control"); err != nil {
		return nil, err
	}
	if err := h.syncToControl(); err != nil {
		return nil, err
	}
	p, err := h.store.Portal()
	if err != nil {
		return nil, err
	}
	h.invalidateDevices()
	return p, nil
}

// Values returns a copy of the array's values.
func (h *Handle[T]) Values() ([]T, error) {
	p, err := h.GetPortalConstControl()
	if err != nil {
		return nil, err
	}
	return portal.Values(p), nil
}

// Shrink lowers the size to n, keeping the first n values. n must not exceed
// the authoritative size. Non-authoritative sides become stale.
func (h *Handle[T]) Shrink(n int) error {
	if err := h.checkWritable("shrink"); err != nil {
		return err
	}
	size, err := h.NumberOfValues()
	if err != nil {
		return err
	}
	if n < 0 || n > size {
		e := errors.SizeError(errors.PhaseControl, n, size)
		e.Path = h.path("shrink")
		return e
	}

	if h.auth.Side == Device {
		tag := h.auth.Device
		if err := h.devices[tag].xfer.Shrink(n); err != nil {
			return err
		}
		h.takeAuthority(tag)
		return nil
	}
	if err := h.store.Shrink(n); err != nil {
		return err
	}
	h.invalidateDevices()
	return nil
}

// ReleaseResources frees every device buffer. Values held by an
// authoritative device are retrieved first, so control storage stays
// complete. Calling it again is a no-op.
func (h *Handle[T]) ReleaseResources() error {
	if h == nil || !h.valid {
		return nil
	}
	err := h.syncToControl()
	if err != nil {
		Logger().Warn("retrieving device values before release failed",
			zap.Stringer("array", h.id),
			zap.Stringer("device", h.auth.Device),
			zap.Error(err))
	}
	for tag, st := range h.devices {
		st.xfer.ReleaseResources()
		delete(h.devices, tag)
	}
	h.auth = ControlAuthority
	return err
}
