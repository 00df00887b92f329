package device

import (
	"context"
	"fmt"

	"github.com/wippyai/arrayhandle/errors"
)

// SerialAdapter runs every lane on the calling goroutine.
type SerialAdapter struct{}

// NewSerial creates a serial adapter.
func NewSerial() *SerialAdapter { return &SerialAdapter{} }

func (*SerialAdapter) Tag() Tag                        { return Serial }
func (*SerialAdapter) Synchronize() error              { return nil }
func (*SerialAdapter) Close(ctx context.Context) error { return nil }

// Partition calls fn once over the whole range.
func (*SerialAdapter) Partition(n int, fn func(lo, hi int)) {
	if n > 0 {
		fn(0, n)
	}
}

// Schedule runs the lanes in order and stops at the first failure.
func (*SerialAdapter) Schedule(n int, kernel func(i int) error) error {
	for i := 0; i < n; i++ {
		if err := runLane(kernel, i); err != nil {
			return errors.New(errors.PhaseExecution, errors.KindExecution).
				Device(Serial.String()).
				Path(fmt.Sprintf("lane %d", i)).
				Detail("device call failed").
				Cause(err).
				Build()
		}
	}
	return nil
}

// runLane converts a panicking lane into an error.
func runLane(kernel func(int) error, i int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lane %d panicked: %v", i, r)
		}
	}()
	return kernel(i)
}
