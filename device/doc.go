// Package device defines the execution environments an array can be placed in.
//
// A Tag names one environment from a closed set:
//
//	Serial    host memory, one lane at a time
//	Parallel  host memory, lanes partitioned across goroutines
//	Wasm      a wazero linear memory (see package device/wasm)
//
// Each environment is served by an Adapter registered in a Tracker. Host
// adapters implement HostAdapter and keep device buffers in the Go heap.
// Linear adapters implement LinearAdapter and expose a byte-addressed memory
// with its own allocator. Every adapter also implements Executor, which runs a
// kernel over n lanes and reports lane failures as a single execution error.
package device
