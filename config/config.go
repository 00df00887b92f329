// Package config loads arrayhandle settings from TOML and turns them into a
// device tracker and loggers.
package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/arrayhandle/array"
	"github.com/wippyai/arrayhandle/device"
	"github.com/wippyai/arrayhandle/device/wasm"
	"github.com/wippyai/arrayhandle/dispatch"
	"github.com/wippyai/arrayhandle/errors"
	"github.com/wippyai/arrayhandle/transfer"
)

// Config is the full set of settings.
type Config struct {
	DefaultDevice device.Tag
	Parallel      ParallelConfig
	Wasm          WasmConfig
	Log           LogConfig
}

// ParallelConfig sizes the parallel adapter. Zero values select the
// adapter defaults.
type ParallelConfig struct {
	Workers int
	Grain   int
}

// WasmConfig controls the Wasm adapter.
type WasmConfig struct {
	Enabled          bool
	MemoryLimitPages uint32
}

// LogConfig selects the logger built by Build.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // console or json
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		DefaultDevice: device.Serial,
		Wasm: WasmConfig{
			Enabled:          true,
			MemoryLimitPages: 256,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

type fileConfig struct {
	DefaultDevice string `toml:"default_device"`
	Parallel      struct {
		Workers int `toml:"workers"`
		Grain   int `toml:"grain"`
	} `toml:"parallel"`
	Wasm struct {
		Enabled          bool   `toml:"enabled"`
		MemoryLimitPages uint32 `toml:"memory_limit_pages"`
	} `toml:"wasm"`
	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
}

// Load reads path over Default. Keys absent from the file keep their
// default values.
func Load(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "load "+path)
	}
	return overlay(Default(), raw, meta)
}

// Parse is Load for TOML text.
func Parse(data string) (Config, error) {
	var raw fileConfig
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse config")
	}
	return overlay(Default(), raw, meta)
}

func overlay(cfg Config, raw fileConfig, meta toml.MetaData) (Config, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.InvalidInput(errors.PhaseConfig, "unknown keys: "+strings.Join(keys, ", "))
	}

	if meta.IsDefined("default_device") {
		tag, err := device.ParseTag(raw.DefaultDevice)
		if err != nil {
			return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "default_device")
		}
		cfg.DefaultDevice = tag
	}
	if meta.IsDefined("parallel", "workers") {
		cfg.Parallel.Workers = raw.Parallel.Workers
	}
	if meta.IsDefined("parallel", "grain") {
		cfg.Parallel.Grain = raw.Parallel.Grain
	}
	if meta.IsDefined("wasm", "enabled") {
		cfg.Wasm.Enabled = raw.Wasm.Enabled
	}
	if meta.IsDefined("wasm", "memory_limit_pages") {
		cfg.Wasm.MemoryLimitPages = raw.Wasm.MemoryLimitPages
	}
	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.ToLower(strings.TrimSpace(raw.Log.Level))
	}
	if meta.IsDefined("log", "format") {
		cfg.Log.Format = strings.ToLower(strings.TrimSpace(raw.Log.Format))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the settings can build a tracker and logger.
func (c Config) Validate() error {
	if !c.DefaultDevice.Valid() {
		return errors.InvalidInput(errors.PhaseConfig, "default_device: "+c.DefaultDevice.String())
	}
	if c.DefaultDevice == device.Wasm && !c.Wasm.Enabled {
		return errors.InvalidInput(errors.PhaseConfig, "default_device is wasm but the wasm device is disabled")
	}
	if c.Parallel.Workers < 0 {
		return errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("parallel.workers: %d", c.Parallel.Workers))
	}
	if c.Parallel.Grain < 0 {
		return errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("parallel.grain: %d", c.Parallel.Grain))
	}
	if c.Wasm.Enabled && c.Wasm.MemoryLimitPages == 0 {
		return errors.InvalidInput(errors.PhaseConfig, "wasm.memory_limit_pages must be positive")
	}
	if c.Wasm.MemoryLimitPages > 65536 {
		return errors.InvalidInput(errors.PhaseConfig,
			fmt.Sprintf("wasm.memory_limit_pages: %d exceeds 65536", c.Wasm.MemoryLimitPages))
	}
	return c.Log.validate()
}

func (l LogConfig) validate() error {
	if _, err := zapcore.ParseLevel(l.Level); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "log.level")
	}
	switch l.Format {
	case "console", "json":
		return nil
	}
	return errors.InvalidInput(errors.PhaseConfig, "log.format must be console or json, got "+l.Format)
}

// Build creates a logger writing to stderr.
func (l LogConfig) Build() (*zap.Logger, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}
	level, _ := zapcore.ParseLevel(l.Level)

	zc := zap.NewProductionConfig()
	if l.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

// ApplyLogger installs l in every package that logs.
func ApplyLogger(l *zap.Logger) {
	array.SetLogger(l.Named("array"))
	transfer.SetLogger(l.Named("transfer"))
	device.SetLogger(l.Named("device"))
	wasm.SetLogger(l.Named("wasm"))
	dispatch.SetLogger(l.Named("dispatch"))
}

// Devices returns the tags NewTracker registers, in ascending order.
func (c Config) Devices() []device.Tag {
	tags := []device.Tag{device.Serial, device.Parallel}
	if c.Wasm.Enabled {
		tags = append(tags, device.Wasm)
	}
	return tags
}

// NewTracker builds a tracker with the serial and parallel adapters and,
// when enabled, a Wasm adapter. The caller closes it.
func (c Config) NewTracker(ctx context.Context) (*device.Tracker, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	adapters := []device.Adapter{
		device.NewSerial(),
		device.NewParallel(c.Parallel.Workers, c.Parallel.Grain),
	}
	if c.Wasm.Enabled {
		w, err := wasm.New(ctx, wasm.Config{MemoryLimitPages: c.Wasm.MemoryLimitPages})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, w)
	}
	return device.NewTracker(adapters...), nil
}
