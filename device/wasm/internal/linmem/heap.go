package linmem

import (
	"errors"
	"slices"
	"sync"

	"github.com/tetratelabs/wazero/api"
)

// PageSize is the wasm page size in bytes.
const PageSize = 65536

// base keeps offset 0 unused so that a zero pointer never names a block.
const base = 16

var (
	ErrClosed    = errors.New("heap closed")
	ErrExhausted = errors.New("linear memory exhausted")
)

type block struct {
	ptr  uint32
	size uint32
}

// Heap allocates blocks inside a linear memory.
type Heap struct {
	mem    api.Memory
	live   map[uint32]uint32
	free   []block
	top    uint32
	inUse  uint32
	mu     sync.Mutex
	closed bool
}

// NewHeap creates a heap over mem.
func NewHeap(mem api.Memory) *Heap {
	return &Heap{
		mem:  mem,
		live: make(map[uint32]uint32),
		free: make([]block, 0, 16),
		top:  base,
	}
}

func alignUp(v, align uint32) uint32 {
	if align <= 1 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}

// Alloc returns the offset of a block of at least size bytes aligned to align.
// Freed blocks are reused first fit; otherwise the block is carved from the
// top of the heap and memory grows as needed.
func (h *Heap) Alloc(size, align uint32) (uint32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return 0, ErrClosed
	}
	size = max(alignUp(size, 8), 8)

	for i, b := range h.free {
		if b.size >= size && alignUp(b.ptr, align) == b.ptr {
			h.free = append(h.free[:i], h.free[i+1:]...)
			h.live[b.ptr] = b.size
			h.inUse += b.size
			return b.ptr, nil
		}
	}

	ptr := alignUp(h.top, align)
	end := uint64(ptr) + uint64(size)
	if cur := uint64(h.mem.Size()); end > cur {
		need := (end - cur + PageSize - 1) / PageSize
		if need > 0xffff {
			return 0, ErrExhausted
		}
		if _, ok := h.mem.Grow(uint32(need)); !ok {
			return 0, ErrExhausted
		}
	}
	if ptr > h.top {
		// Alignment padding goes on the free list so top can fold back over it.
		h.free = append(h.free, block{ptr: h.top, size: ptr - h.top})
	}
	h.top = uint32(end)
	h.live[ptr] = size
	h.inUse += size
	return ptr, nil
}

// Free returns a block to the heap. Unknown or zero pointers are ignored.
// The block size is the one recorded by Alloc.
func (h *Heap) Free(ptr, _, _ uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()

	size, ok := h.live[ptr]
	if h.closed || !ok {
		return
	}
	delete(h.live, ptr)
	h.inUse -= size

	if ptr+size != h.top {
		h.free = append(h.free, block{ptr: ptr, size: size})
		return
	}
	h.top = ptr
	for {
		i := slices.IndexFunc(h.free, func(b block) bool { return b.ptr+b.size == h.top })
		if i < 0 {
			break
		}
		h.top = h.free[i].ptr
		h.free = slices.Delete(h.free, i, i+1)
	}
}

// InUse returns the number of bytes held by live blocks.
func (h *Heap) InUse() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.inUse
}

// Blocks returns the number of live blocks.
func (h *Heap) Blocks() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}

// Top returns the first offset past the highest block.
func (h *Heap) Top() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.top
}

// Close drops all bookkeeping. Later allocations fail with ErrClosed.
func (h *Heap) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.free = nil
	h.live = nil
	h.inUse = 0
}
