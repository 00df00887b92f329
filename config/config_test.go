package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wippyai/arrayhandle/device"
	"github.com/wippyai/arrayhandle/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, device.Serial, cfg.DefaultDevice)
	assert.True(t, cfg.Wasm.Enabled)
	assert.Equal(t, []device.Tag{device.Serial, device.Parallel, device.Wasm}, cfg.Devices())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arrayhandle.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
default_device = " Parallel "

[parallel]
workers = 4
grain = 128

[wasm]
memory_limit_pages = 32

[log]
level = "DEBUG"
format = "json"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, device.Parallel, cfg.DefaultDevice)
	assert.Equal(t, ParallelConfig{Workers: 4, Grain: 128}, cfg.Parallel)
	assert.Equal(t, WasmConfig{Enabled: true, MemoryLimitPages: 32}, cfg.Wasm)
	assert.Equal(t, LogConfig{Level: "debug", Format: "json"}, cfg.Log)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindInvalidInput))
}

func TestParse_KeepsDefaults(t *testing.T) {
	cfg, err := Parse(`
[wasm]
enabled = false
`)
	require.NoError(t, err)
	want := Default()
	want.Wasm.Enabled = false
	assert.Equal(t, want, cfg)
	assert.Equal(t, []device.Tag{device.Serial, device.Parallel}, cfg.Devices())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"syntax", `default_device = `},
		{"unknown device", `default_device = "gpu"`},
		{"unknown key", `threads = 4`},
		{"negative workers", "[parallel]\nworkers = -1"},
		{"negative grain", "[parallel]\ngrain = -8"},
		{"zero pages", "[wasm]\nmemory_limit_pages = 0"},
		{"too many pages", "[wasm]\nmemory_limit_pages = 70000"},
		{"wasm default but disabled", "default_device = \"wasm\"\n[wasm]\nenabled = false"},
		{"bad level", "[log]\nlevel = \"loud\""},
		{"bad format", "[log]\nformat = \"xml\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.toml)
			require.Error(t, err)
			assert.True(t, errors.IsKind(err, errors.KindInvalidInput), err.Error())
		})
	}
}

func TestLogConfig_Build(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		t.Run(format, func(t *testing.T) {
			l, err := LogConfig{Level: "info", Format: format}.Build()
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(zap.InfoLevel))
			assert.False(t, l.Core().Enabled(zap.DebugLevel))
		})
	}

	_, err := LogConfig{Level: "info", Format: "yaml"}.Build()
	assert.Error(t, err)
}

func TestApplyLogger(t *testing.T) {
	ApplyLogger(zap.NewNop())
}

func TestNewTracker(t *testing.T) {
	ctx := context.Background()

	cfg := Default()
	cfg.Parallel = ParallelConfig{Workers: 2, Grain: 16}
	cfg.Wasm.MemoryLimitPages = 8
	tr, err := cfg.NewTracker(ctx)
	require.NoError(t, err)
	defer tr.Close(ctx)
	assert.Equal(t, cfg.Devices(), tr.Tags())

	a, err := tr.Adapter(device.Parallel)
	require.NoError(t, err)
	p := a.(*device.ParallelAdapter)
	assert.Equal(t, 2, p.Workers())
	assert.Equal(t, 16, p.Grain())

	cfg.Wasm.Enabled = false
	tr2, err := cfg.NewTracker(ctx)
	require.NoError(t, err)
	defer tr2.Close(ctx)
	_, err = tr2.Adapter(device.Wasm)
	assert.True(t, errors.IsKind(err, errors.KindNotFound))

	cfg.Parallel.Workers = -3
	_, err = cfg.NewTracker(ctx)
	assert.Error(t, err)
}
