package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/arrayhandle/array"
	"github.com/wippyai/arrayhandle/device"
	"github.com/wippyai/arrayhandle/dispatch"
	"github.com/wippyai/arrayhandle/invoke"
	"github.com/wippyai/arrayhandle/portal"
)

type result struct {
	err      error
	device   device.Tag
	n        int
	toDevice int
	toHost   int
	bytes    uint64
	elapsed  time.Duration
}

func (r result) status() string {
	if r.err != nil {
		return "FAIL: " + r.err.Error()
	}
	return "ok"
}

func double(src portal.ConstPortal[float64], dst portal.Portal[float64], exec device.Executor) error {
	return exec.Schedule(src.NumberOfValues(), func(i int) error {
		dst.Set(i, 2*src.Get(i))
		return nil
	})
}

// runBench doubles n values on tag and reads them back.
func runBench(tr *device.Tracker, tag device.Tag, n int) result {
	r := result{device: tag, n: n}
	start := time.Now()

	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i) + 0.5
	}
	in := array.FromValues(values, array.WithTracker(tr))
	out := array.New[float64](0, array.WithTracker(tr))
	defer func() {
		_ = in.ReleaseResources()
		_ = out.ReleaseResources()
	}()

	_, err := dispatch.New(tr, tag).Invoke(n, invoke.Make(in, out),
		[]array.TransportTag{array.FieldIn, array.FieldOut}, double)
	if err != nil {
		r.err = err
		r.elapsed = time.Since(start)
		return r
	}

	got, err := out.Values()
	if err != nil {
		r.err = err
		r.elapsed = time.Since(start)
		return r
	}
	r.elapsed = time.Since(start)
	if len(got) != n {
		r.err = fmt.Errorf("read back %d values, want %d", len(got), n)
		return r
	}
	for i, v := range got {
		if v != 2*values[i] {
			r.err = fmt.Errorf("value %d is %v, want %v", i, v, 2*values[i])
			return r
		}
	}

	for _, h := range []*array.Handle[float64]{in, out} {
		if s, ok := h.TransferStats(tag); ok {
			r.toDevice += s.ToDevice
			r.toHost += s.ToControl
			r.bytes += s.BytesToDevice + s.BytesToControl
		}
	}
	return r
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#90EE90"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

var columns = []string{"device", "n", "to device", "to host", "bytes", "elapsed", "status"}

func (r result) cells() []string {
	return []string{
		r.device.String(),
		fmt.Sprint(r.n),
		fmt.Sprint(r.toDevice),
		fmt.Sprint(r.toHost),
		fmt.Sprint(r.bytes),
		r.elapsed.Round(time.Microsecond).String(),
		r.status(),
	}
}

// renderTable lays results out in aligned columns. styled adds colors.
func renderTable(results []result, styled bool) string {
	rows := [][]string{columns}
	for _, r := range results {
		rows = append(rows, r.cells())
	}
	widths := make([]int, len(columns))
	for _, row := range rows {
		for i, c := range row {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}

	var b strings.Builder
	for ri, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cell := lipgloss.NewStyle().Width(widths[i]+2).Render(c)
			if styled {
				switch {
				case ri == 0:
					cell = headerStyle.Render(cell)
				case i == len(row)-1 && results[ri-1].err != nil:
					cell = failStyle.Render(cell)
				case i == len(row)-1:
					cell = okStyle.Render(cell)
				}
			}
			cells[i] = cell
		}
		b.WriteString(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, cells...), " "))
		b.WriteByte('\n')
	}
	return b.String()
}
