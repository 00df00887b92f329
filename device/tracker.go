package device

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/arrayhandle/errors"
)

// Tracker maps tags to the adapters serving them.
type Tracker struct {
	adapters map[Tag]Adapter
	mu       sync.RWMutex
}

// NewTracker creates a tracker holding the given adapters.
func NewTracker(adapters ...Adapter) *Tracker {
	t := &Tracker{adapters: make(map[Tag]Adapter, len(adapters))}
	for _, a := range adapters {
		t.Register(a)
	}
	return t
}

// Register installs a, replacing any adapter with the same tag.
func (t *Tracker) Register(a Adapter) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.adapters[a.Tag()] = a
	Logger().Debug("adapter registered", zap.Stringer("device", a.Tag()))
}

// Adapter returns the adapter registered for tag.
func (t *Tracker) Adapter(tag Tag) (Adapter, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.adapters[tag]
	if !ok {
		return nil, errors.NotFound(errors.PhaseDevice, "device", tag.String())
	}
	return a, nil
}

// Executor returns the executor for tag.
func (t *Tracker) Executor(tag Tag) (Executor, error) {
	a, err := t.Adapter(tag)
	if err != nil {
		return nil, err
	}
	e, ok := ExecutorOf(a)
	if !ok {
		return nil, errors.Unsupported(errors.PhaseDevice, tag.String()+" adapter cannot execute kernels")
	}
	return e, nil
}

// Tags returns the registered tags in ascending order.
func (t *Tracker) Tags() []Tag {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tags := make([]Tag, 0, len(t.adapters))
	for tag := range t.adapters {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

// Close closes every adapter and empties the tracker.
func (t *Tracker) Close(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var err error
	for tag, a := range t.adapters {
		err = multierr.Append(err, a.Close(ctx))
		delete(t.adapters, tag)
	}
	return err
}

var (
	defaultTracker     *Tracker
	defaultTrackerOnce sync.Once
	defaultTrackerMu   sync.RWMutex
)

// DefaultTracker returns the process-wide tracker. Unless replaced with
// SetDefaultTracker it serves Serial and Parallel.
func DefaultTracker() *Tracker {
	defaultTrackerOnce.Do(func() {
		defaultTrackerMu.Lock()
		if defaultTracker == nil {
			defaultTracker = NewTracker(NewSerial(), NewParallel(0, 0))
		}
		defaultTrackerMu.Unlock()
	})
	defaultTrackerMu.RLock()
	defer defaultTrackerMu.RUnlock()
	return defaultTracker
}

// SetDefaultTracker replaces the process-wide tracker.
func SetDefaultTracker(t *Tracker) {
	defaultTrackerOnce.Do(func() {})
	defaultTrackerMu.Lock()
	defaultTracker = t
	defaultTrackerMu.Unlock()
}
