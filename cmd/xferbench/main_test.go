package main

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/arrayhandle/config"
	"github.com/wippyai/arrayhandle/device"
)

func testTracker(t *testing.T) *device.Tracker {
	t.Helper()
	ctx := context.Background()
	cfg := config.Default()
	cfg.Parallel = config.ParallelConfig{Workers: 2, Grain: 64}
	cfg.Wasm.MemoryLimitPages = 16
	tr, err := cfg.NewTracker(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close(ctx) })
	return tr
}

func TestRunBench(t *testing.T) {
	tr := testTracker(t)
	for _, tag := range device.All {
		t.Run(tag.String(), func(t *testing.T) {
			r := runBench(tr, tag, 1000)
			require.NoError(t, r.err)
			assert.Equal(t, 1, r.toDevice)
			assert.Equal(t, 1, r.toHost)
			assert.Equal(t, "ok", r.status())
		})
	}
}

func TestRunBench_Empty(t *testing.T) {
	r := runBench(testTracker(t), device.Serial, 0)
	assert.NoError(t, r.err)
}

func TestSelectDevices(t *testing.T) {
	cfg := config.Default()

	tags, err := selectDevices(cfg, "all")
	require.NoError(t, err)
	assert.Equal(t, device.All, tags)

	tags, err = selectDevices(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, []device.Tag{device.Serial}, tags, "empty flag uses the configured default")

	loaded, err := config.Parse(`default_device = "wasm"`)
	require.NoError(t, err)
	tags, err = selectDevices(loaded, "")
	require.NoError(t, err)
	assert.Equal(t, []device.Tag{device.Wasm}, tags)

	tags, err = selectDevices(cfg, "wasm")
	require.NoError(t, err)
	assert.Equal(t, []device.Tag{device.Wasm}, tags)

	_, err = selectDevices(cfg, "gpu")
	assert.Error(t, err)

	cfg.Wasm.Enabled = false
	_, err = selectDevices(cfg, "wasm")
	assert.Error(t, err)
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]result{
		{device: device.Serial, n: 10, toDevice: 1, toHost: 1, bytes: 160},
		{device: device.Wasm, n: 10, err: assert.AnError},
	}, false)
	assert.Contains(t, out, "device")
	assert.Contains(t, out, "serial")
	assert.Contains(t, out, "160")
	assert.Contains(t, out, "FAIL: "+assert.AnError.Error())
}

func TestInteractiveModel_PreselectsDefault(t *testing.T) {
	tr := testTracker(t)
	assert.Equal(t, 2, newInteractiveModel(tr, device.All, device.Wasm, 1).selected)
	assert.Equal(t, 0, newInteractiveModel(tr, []device.Tag{device.Serial}, device.Wasm, 1).selected)
}

func TestInteractiveModel(t *testing.T) {
	tr := testTracker(t)
	m := newInteractiveModel(tr, device.All, device.Serial, 64)

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, m.selected)
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.selected)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.running)

	msg := cmd()
	m.Update(msg)
	assert.False(t, m.running)
	require.Len(t, m.results, 1)
	assert.Equal(t, device.Parallel, m.results[0].device)
	assert.NoError(t, m.results[0].err)
	assert.Contains(t, m.View(), "parallel")

	m.input.SetValue("abc")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Error(t, m.err)
}
