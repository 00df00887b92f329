// Package dispatch launches device calls over array arguments. A Dispatcher
// transports every array slot to its device, hands the callable the device
// executor as a trailing argument and runs it in the execution convention.
package dispatch

import (
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/arrayhandle/array"
	"github.com/wippyai/arrayhandle/device"
	"github.com/wippyai/arrayhandle/errors"
	"github.com/wippyai/arrayhandle/invoke"
)

// Dispatcher runs calls on one device of a tracker.
type Dispatcher struct {
	tracker *device.Tracker
	tag     device.Tag
}

// New creates a dispatcher for device tag. A nil tracker means
// device.DefaultTracker().
func New(tracker *device.Tracker, tag device.Tag) *Dispatcher {
	if tracker == nil {
		tracker = device.DefaultTracker()
	}
	return &Dispatcher{tracker: tracker, tag: tag}
}

// Device returns the tag calls run on.
func (d *Dispatcher) Device() device.Tag { return d.tag }

// Invoke transports args according to tags, appends the device executor as
// the last argument and calls launch with the result. Slots past tags are
// passed unchanged. domain is the number of lanes; field transports require
// arrays of exactly that size.
//
// The returned interface holds the arguments as launched, with launch's
// return value captured.
func (d *Dispatcher) Invoke(domain int, args *invoke.Interface, tags []array.TransportTag, launch any) (*invoke.Interface, error) {
	if domain < 0 {
		return nil, errors.New(errors.PhaseInvoke, errors.KindValue).
			Device(d.tag.String()).
			Value(domain).
			Detail("invocation domain cannot be negative").
			Build()
	}
	adapter, err := d.tracker.Adapter(d.tag)
	if err != nil {
		return nil, err
	}
	exec, ok := device.ExecutorOf(adapter)
	if !ok {
		return nil, errors.Unsupported(errors.PhaseInvoke, d.tag.String()+" adapter cannot execute kernels")
	}

	start := time.Now()
	fi := args.Append(exec)
	if err := fi.TransformedInvokeExecution(launch, array.Transport(d.tag, domain, tags...)); err != nil {
		Logger().Debug("dispatch failed",
			zap.Stringer("device", d.tag),
			zap.Int("domain", domain),
			zap.Error(err))
		return nil, err
	}
	if err := adapter.Synchronize(); err != nil {
		return nil, errors.Execution(d.tag.String(), err)
	}
	Logger().Debug("dispatched",
		zap.Stringer("device", d.tag),
		zap.Int("domain", domain),
		zap.Int("args", args.Arity()),
		zap.Duration("elapsed", time.Since(start)))
	return fi, nil
}

// Map runs fn once per lane of domain on d's device. It is the common launch
// shape for callables that only need the lane index.
func (d *Dispatcher) Map(domain int, fn func(i int) error) error {
	_, err := d.Invoke(domain, invoke.Make(), nil, func(exec device.Executor) error {
		return exec.Schedule(domain, fn)
	})
	return err
}
