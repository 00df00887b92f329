package device

import (
	"strconv"
	"strings"

	"github.com/wippyai/arrayhandle/errors"
)

// Tag identifies an execution environment.
type Tag uint8

const (
	Undefined Tag = iota
	Serial
	Parallel
	Wasm
)

var tagNames = [...]string{
	Undefined: "undefined",
	Serial:    "serial",
	Parallel:  "parallel",
	Wasm:      "wasm",
}

// All lists every concrete tag in declaration order.
var All = []Tag{Serial, Parallel, Wasm}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "tag(" + strconv.Itoa(int(t)) + ")"
}

// Valid reports whether t names a concrete environment.
func (t Tag) Valid() bool {
	return t > Undefined && t <= Wasm
}

// ParseTag converts a name such as "serial" to its Tag.
func ParseTag(s string) (Tag, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, t := range All {
		if tagNames[t] == name {
			return t, nil
		}
	}
	return Undefined, errors.NotFound(errors.PhaseDevice, "device", s)
}
