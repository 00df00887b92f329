// Package linmem adapts a wazero linear memory for array buffers.
//
// Memory implements arrayhandle.Memory over api.Memory. Heap is a first-fit
// allocator that carves blocks out of the same memory, growing it page by
// page when no free block fits.
package linmem
