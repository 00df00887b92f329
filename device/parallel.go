package device

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/arrayhandle/errors"
)

// DefaultGrain is the smallest range a parallel worker is given.
const DefaultGrain = 1024

// ParallelAdapter splits lanes into contiguous ranges handled by goroutines.
type ParallelAdapter struct {
	workers int
	grain   int
}

// NewParallel creates a parallel adapter. Non-positive workers selects
// GOMAXPROCS; non-positive grain selects DefaultGrain.
func NewParallel(workers, grain int) *ParallelAdapter {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if grain <= 0 {
		grain = DefaultGrain
	}
	return &ParallelAdapter{workers: workers, grain: grain}
}

func (*ParallelAdapter) Tag() Tag                        { return Parallel }
func (*ParallelAdapter) Synchronize() error              { return nil }
func (*ParallelAdapter) Close(ctx context.Context) error { return nil }

// Workers returns the maximum number of concurrent ranges.
func (p *ParallelAdapter) Workers() int { return p.workers }

// Grain returns the minimum range length.
func (p *ParallelAdapter) Grain() int { return p.grain }

// ranges splits [0, n) into at most p.workers chunks of at least p.grain.
func (p *ParallelAdapter) ranges(n int) [][2]int {
	if n <= 0 {
		return nil
	}
	chunks := min(p.workers, (n+p.grain-1)/p.grain)
	chunks = max(chunks, 1)
	size := (n + chunks - 1) / chunks

	out := make([][2]int, 0, chunks)
	for lo := 0; lo < n; lo += size {
		out = append(out, [2]int{lo, min(lo+size, n)})
	}
	return out
}

// Partition runs fn concurrently over disjoint ranges covering [0, n).
func (p *ParallelAdapter) Partition(n int, fn func(lo, hi int)) {
	rs := p.ranges(n)
	if len(rs) == 1 {
		fn(rs[0][0], rs[0][1])
		return
	}
	var wg sync.WaitGroup
	for _, r := range rs {
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(r[0], r[1])
	}
	wg.Wait()
}

// Schedule runs every lane and combines the failures of all ranges.
func (p *ParallelAdapter) Schedule(n int, kernel func(i int) error) error {
	rs := p.ranges(n)
	errs := make([]error, len(rs))

	var wg sync.WaitGroup
	for k, r := range rs {
		wg.Add(1)
		go func(k, lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				if err := runLane(kernel, i); err != nil {
					errs[k] = multierr.Append(errs[k], err)
				}
			}
		}(k, r[0], r[1])
	}
	wg.Wait()

	err := multierr.Combine(errs...)
	if err == nil {
		return nil
	}
	Logger().Debug("parallel lanes failed",
		zap.Int("lanes", n),
		zap.Int("failures", len(multierr.Errors(err))))
	return errors.Execution(Parallel.String(), err)
}
