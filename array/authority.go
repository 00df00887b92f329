package array

import "github.com/wippyai/arrayhandle/device"

// Side names which environment holds the authoritative values.
type Side uint8

const (
	Control Side = iota
	Device
)

// Authority records the single authoritative side of a handle.
type Authority struct {
	Side   Side
	Device device.Tag
}

// ControlAuthority is the authority of a handle whose control storage is current.
var ControlAuthority = Authority{Side: Control}

// OnDevice returns the authority of device tag.
func OnDevice(tag device.Tag) Authority {
	return Authority{Side: Device, Device: tag}
}

func (a Authority) String() string {
	if a.Side == Control {
		return "control"
	}
	return "device:" + a.Device.String()
}

// Capability says whether a handle accepts writes.
type Capability uint8

const (
	ReadWrite Capability = iota
	ReadOnly
)

func (c Capability) String() string {
	if c == ReadOnly {
		return "read-only"
	}
	return "read-write"
}
