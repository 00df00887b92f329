package wasm

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/arrayhandle"
	"github.com/wippyai/arrayhandle/device"
	"github.com/wippyai/arrayhandle/device/wasm/internal/linmem"
	"github.com/wippyai/arrayhandle/errors"
)

// memoryModule declares one page of memory with no maximum, exported as "memory".
var memoryModule = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: min 1
	0x07, 0x0a, 0x01, 0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, 0x02, 0x00, // export "memory"
}

// Config holds configuration for the wasm device.
type Config struct {
	// MemoryLimitPages caps the linear memory in 64KB pages.
	// 0 means the wazero default (65536 pages = 4GB).
	MemoryLimitPages uint32
}

// Adapter is the device.LinearAdapter backed by a wazero linear memory.
type Adapter struct {
	runtime wazero.Runtime
	module  api.Module
	memory  *linmem.Memory
	heap    *linmem.Heap
	mu      sync.Mutex
	closed  bool
}

var (
	_ device.LinearAdapter = (*Adapter)(nil)
	_ device.Executor      = (*Adapter)(nil)
)

// New creates a wazero runtime and instantiates the memory module.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	mod, err := rt.InstantiateWithConfig(ctx, memoryModule, wazero.NewModuleConfig().WithName("arrayhandle-device"))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseDevice, errors.KindInternal, err, "instantiate device memory")
	}
	mem := mod.ExportedMemory("memory")
	if mem == nil {
		_ = rt.Close(ctx)
		return nil, errors.NotFound(errors.PhaseDevice, "export", "memory")
	}

	Logger().Debug("wasm device ready",
		zap.Uint32("pages", mem.Size()/linmem.PageSize),
		zap.Uint32("limit_pages", cfg.MemoryLimitPages))

	return &Adapter{
		runtime: rt,
		module:  mod,
		memory:  linmem.Wrap(mem),
		heap:    linmem.NewHeap(mem),
	}, nil
}

func (a *Adapter) Tag() device.Tag { return device.Wasm }

// Memory returns the device address space.
func (a *Adapter) Memory() arrayhandle.Memory { return a.memory }

// Allocator returns the device heap.
func (a *Adapter) Allocator() arrayhandle.Allocator { return allocator{a} }

// Synchronize is a no-op: device calls run to completion before returning.
func (a *Adapter) Synchronize() error { return nil }

// BytesInUse returns the bytes held by live device buffers.
func (a *Adapter) BytesInUse() uint32 { return a.heap.InUse() }

// Buffers returns the number of live device buffers.
func (a *Adapter) Buffers() int { return a.heap.Blocks() }

// Pages returns the current linear memory size in pages.
func (a *Adapter) Pages() uint32 { return a.memory.Size() / linmem.PageSize }

// Schedule runs the lanes in order on the calling goroutine. A failing lane
// stops the call.
func (a *Adapter) Schedule(n int, kernel func(i int) error) error {
	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return errors.NotInitialized(errors.PhaseExecution, "wasm device")
	}
	for i := 0; i < n; i++ {
		if err := lane(kernel, i); err != nil {
			return errors.Execution(device.Wasm.String(), err)
		}
	}
	return nil
}

func lane(kernel func(int) error, i int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lane %d panicked: %v", i, r)
		}
	}()
	if err := kernel(i); err != nil {
		return fmt.Errorf("lane %d: %w", i, err)
	}
	return nil
}

// Close releases the runtime and every device buffer.
func (a *Adapter) Close(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.heap.Close()
	return a.runtime.Close(ctx)
}

// allocator reports heap failures as allocation errors.
type allocator struct{ a *Adapter }

func (al allocator) Alloc(size, align uint32) (uint32, error) {
	ptr, err := al.a.heap.Alloc(size, align)
	if err != nil {
		e := errors.AllocationFailed(errors.PhaseDevice, size, align)
		e.Device = device.Wasm.String()
		e.Cause = err
		return 0, e
	}
	return ptr, nil
}

func (al allocator) Free(ptr, size, align uint32) {
	al.a.heap.Free(ptr, size, align)
}
