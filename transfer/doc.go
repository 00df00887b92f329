// Package transfer moves array data between control storage and one device.
//
// A Transfer owns the device-side buffer of a single array on a single device.
// New selects the implementation from the adapter's capability:
//
//	device.HostAdapter    buffer is a Go slice; copies are partitioned by the adapter
//	device.LinearAdapter  buffer is a block of linear memory; values are encoded
//	                      little-endian at a stride taken from the wit layout of T
//
// NewReadOnly serves computed and composite arrays, whose device portal is
// assembled rather than copied and which reject every write path.
//
// Transfers do not track freshness. The array package decides when a load is
// needed; a Transfer performs the copy it is asked for and counts it in Stats.
package transfer
