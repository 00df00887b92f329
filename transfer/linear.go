package transfer

import (
	"encoding/binary"
	"math"

	"go.uber.org/zap"

	"github.com/wippyai/arrayhandle"
	"github.com/wippyai/arrayhandle/device"
	"github.com/wippyai/arrayhandle/errors"
	"github.com/wippyai/arrayhandle/portal"
	"github.com/wippyai/arrayhandle/storage"
)

// linearTransfer keeps the device buffer in a linear memory block.
type linearTransfer[T any] struct {
	adapter  device.LinearAdapter
	layout   elementLayout
	ptr      uint32
	capacity int
	size     int
	stats    Stats
}

func newLinear[T any](a device.LinearAdapter) (*linearTransfer[T], error) {
	layout, err := layoutOf[T]()
	if err != nil {
		return nil, err
	}
	return &linearTransfer[T]{adapter: a, layout: layout}, nil
}

func (l *linearTransfer[T]) Device() device.Tag  { return l.adapter.Tag() }
func (l *linearTransfer[T]) NumberOfValues() int { return l.size }
func (l *linearTransfer[T]) Stats() Stats        { return l.stats }

func (l *linearTransfer[T]) bytes(n int) uint32 {
	return uint32(n) * l.layout.stride
}

// reserve ensures a block for n values, reusing the current block when it is
// large enough.
func (l *linearTransfer[T]) reserve(n int) error {
	if n < 0 {
		return negativeSize(l.Device(), n)
	}
	if uint64(n)*uint64(l.layout.stride) > 1<<32-1 {
		return errors.AllocationFailed(errors.PhaseTransfer, ^uint32(0), l.layout.align)
	}
	if n <= l.capacity && l.ptr != 0 {
		l.size = n
		return nil
	}
	l.free()
	l.size = 0
	if n == 0 {
		return nil
	}
	ptr, err := l.adapter.Allocator().Alloc(l.bytes(n), l.layout.align)
	if err != nil {
		return err
	}
	l.ptr = ptr
	l.capacity = n
	l.size = n
	l.stats.Allocations++
	return nil
}

func (l *linearTransfer[T]) free() {
	if l.ptr == 0 {
		return
	}
	l.adapter.Allocator().Free(l.ptr, l.bytes(l.capacity), l.layout.align)
	l.ptr = 0
	l.capacity = 0
}

func (l *linearTransfer[T]) load(s storage.Storage[T]) error {
	n := s.NumberOfValues()
	if err := l.reserve(n); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}

	src := s.PortalConst()
	buf := make([]byte, l.bytes(n))
	for i := 0; i < n; i++ {
		off := uint32(i) * l.layout.stride
		if _, err := binary.Encode(buf[off:off+l.layout.packed], binary.LittleEndian, src.Get(i)); err != nil {
			return errors.Wrap(errors.PhaseTransfer, errors.KindInternal, err, "encode value")
		}
	}
	if err := l.adapter.Memory().Write(l.ptr, buf); err != nil {
		return errors.Wrap(errors.PhaseTransfer, errors.KindOutOfBounds, err, "write device buffer")
	}

	l.stats.ToDevice++
	l.stats.BytesToDevice += uint64(len(buf))
	Logger().Debug("copied to device",
		zap.Stringer("device", l.Device()),
		zap.Int("values", n),
		zap.Int("bytes", len(buf)),
		zap.Uint32("ptr", l.ptr))
	return nil
}

func (l *linearTransfer[T]) LoadForInput(s storage.Storage[T]) (portal.ConstPortal[T], error) {
	if err := l.load(s); err != nil {
		return nil, err
	}
	return l.PortalConst(), nil
}

func (l *linearTransfer[T]) LoadForInPlace(s storage.Storage[T]) (portal.Portal[T], error) {
	if err := l.load(s); err != nil {
		return nil, err
	}
	return l.Portal()
}

func (l *linearTransfer[T]) AllocateForOutput(_ storage.Storage[T], n int) (portal.Portal[T], error) {
	if err := l.reserve(n); err != nil {
		return nil, err
	}
	if n > 0 {
		// Discarded content must not leak into the new buffer.
		if err := l.adapter.Memory().Write(l.ptr, make([]byte, l.bytes(n))); err != nil {
			return nil, errors.Wrap(errors.PhaseTransfer, errors.KindOutOfBounds, err, "clear device buffer")
		}
	}
	return l.Portal()
}

func (l *linearTransfer[T]) RetrieveOutputData(s storage.Storage[T]) error {
	n := l.size
	if err := s.Allocate(n); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	dst, err := s.Portal()
	if err != nil {
		return err
	}

	buf, err := l.adapter.Memory().Read(l.ptr, l.bytes(n))
	if err != nil {
		return errors.Wrap(errors.PhaseTransfer, errors.KindOutOfBounds, err, "read device buffer")
	}
	for i := 0; i < n; i++ {
		off := uint32(i) * l.layout.stride
		var v T
		if _, err := binary.Decode(buf[off:off+l.layout.packed], binary.LittleEndian, &v); err != nil {
			return errors.Wrap(errors.PhaseTransfer, errors.KindInternal, err, "decode value")
		}
		dst.Set(i, v)
	}

	l.stats.ToControl++
	l.stats.BytesToControl += uint64(len(buf))
	Logger().Debug("copied to control",
		zap.Stringer("device", l.Device()),
		zap.Int("values", n),
		zap.Int("bytes", len(buf)))
	return nil
}

func (l *linearTransfer[T]) Shrink(n int) error {
	if err := shrinkCheck(l.Device(), n, l.size); err != nil {
		return err
	}
	l.size = n
	return nil
}

func (l *linearTransfer[T]) PortalConst() portal.ConstPortal[T] {
	return &linearPortal[T]{mem: l.adapter.Memory(), ptr: l.ptr, layout: l.layout, n: l.size}
}

func (l *linearTransfer[T]) Portal() (portal.Portal[T], error) {
	return &linearPortal[T]{mem: l.adapter.Memory(), ptr: l.ptr, layout: l.layout, n: l.size}, nil
}

func (l *linearTransfer[T]) ReleaseResources() {
	l.free()
	l.size = 0
}

// linearPortal reads and writes values in place in linear memory. Access
// failures indicate a released or out-of-range buffer and panic.
type linearPortal[T any] struct {
	mem    arrayhandle.Memory
	ptr    uint32
	layout elementLayout
	n      int
}

func (p *linearPortal[T]) NumberOfValues() int { return p.n }

func (p *linearPortal[T]) offset(i int) uint32 {
	if i < 0 || i >= p.n {
		panic(errors.OutOfBounds(errors.PhaseExecution, []string{"wasm"}, i, p.n))
	}
	return p.ptr + uint32(i)*p.layout.stride
}

func (p *linearPortal[T]) Get(i int) T {
	off := p.offset(i)
	if v, ok, err := readWord[T](p.mem, off); ok {
		if err != nil {
			panic(errors.Wrap(errors.PhaseExecution, errors.KindOutOfBounds, err, "device read"))
		}
		return v
	}

	data, err := p.mem.Read(off, p.layout.packed)
	if err != nil {
		panic(errors.Wrap(errors.PhaseExecution, errors.KindOutOfBounds, err, "device read"))
	}
	var v T
	if _, err := binary.Decode(data, binary.LittleEndian, &v); err != nil {
		panic(errors.Wrap(errors.PhaseExecution, errors.KindInternal, err, "decode value"))
	}
	return v
}

func (p *linearPortal[T]) Set(i int, v T) {
	off := p.offset(i)
	if ok, err := writeWord(p.mem, off, v); ok {
		if err != nil {
			panic(errors.Wrap(errors.PhaseExecution, errors.KindOutOfBounds, err, "device write"))
		}
		return
	}

	data := make([]byte, p.layout.packed)
	if _, err := binary.Encode(data, binary.LittleEndian, v); err != nil {
		panic(errors.Wrap(errors.PhaseExecution, errors.KindInternal, err, "encode value"))
	}
	if err := p.mem.Write(off, data); err != nil {
		panic(errors.Wrap(errors.PhaseExecution, errors.KindOutOfBounds, err, "device write"))
	}
}

// readWord reads 32- and 64-bit scalars with a single memory access. ok is
// false for every other element type.
func readWord[T any](mem arrayhandle.Memory, off uint32) (v T, ok bool, err error) {
	switch p := any(&v).(type) {
	case *float64:
		var u uint64
		u, err = mem.ReadU64(off)
		*p = math.Float64frombits(u)
	case *int64:
		var u uint64
		u, err = mem.ReadU64(off)
		*p = int64(u)
	case *uint64:
		*p, err = mem.ReadU64(off)
	case *float32:
		var u uint32
		u, err = mem.ReadU32(off)
		*p = math.Float32frombits(u)
	case *int32:
		var u uint32
		u, err = mem.ReadU32(off)
		*p = int32(u)
	case *uint32:
		*p, err = mem.ReadU32(off)
	default:
		return v, false, nil
	}
	return v, true, err
}

// writeWord is the store counterpart of readWord.
func writeWord[T any](mem arrayhandle.Memory, off uint32, v T) (bool, error) {
	switch x := any(v).(type) {
	case float64:
		return true, mem.WriteU64(off, math.Float64bits(x))
	case int64:
		return true, mem.WriteU64(off, uint64(x))
	case uint64:
		return true, mem.WriteU64(off, x)
	case float32:
		return true, mem.WriteU32(off, math.Float32bits(x))
	case int32:
		return true, mem.WriteU32(off, uint32(x))
	case uint32:
		return true, mem.WriteU32(off, x)
	}
	return false, nil
}
