// Command xferbench moves arrays through every configured device, doubles
// them there and checks the values that come back.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/wippyai/arrayhandle/config"
	"github.com/wippyai/arrayhandle/device"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to a TOML config file")
		deviceName  = flag.String("device", "", "Device to run on (all|serial|parallel|wasm); empty uses default_device")
		size        = flag.Int("n", 1<<16, "Number of values")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if err := run(*configFile, *deviceName, *size, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// selectDevices resolves the -device flag against the configured devices.
// An empty name selects the configured default device.
func selectDevices(cfg config.Config, name string) ([]device.Tag, error) {
	switch name {
	case "":
		return []device.Tag{cfg.DefaultDevice}, nil
	case "all":
		return cfg.Devices(), nil
	}
	tag, err := device.ParseTag(name)
	if err != nil {
		return nil, err
	}
	for _, t := range cfg.Devices() {
		if t == tag {
			return []device.Tag{tag}, nil
		}
	}
	return nil, fmt.Errorf("device %s is disabled in the configuration", tag)
}

func run(configFile, deviceName string, n int, interactive bool) error {
	ctx := context.Background()

	if n < 0 {
		return fmt.Errorf("-n must not be negative, got %d", n)
	}
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	logger, err := cfg.Log.Build()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	config.ApplyLogger(logger)

	tags, err := selectDevices(cfg, deviceName)
	if err != nil {
		return err
	}
	tr, err := cfg.NewTracker(ctx)
	if err != nil {
		return err
	}
	defer tr.Close(ctx)

	tty := term.IsTerminal(int(os.Stdout.Fd()))
	if interactive {
		if !tty {
			return fmt.Errorf("-i needs a terminal")
		}
		def := cfg.DefaultDevice
		if len(tags) == 1 {
			def = tags[0]
		}
		return runInteractive(tr, cfg.Devices(), def, n)
	}

	results := make([]result, 0, len(tags))
	failed := 0
	for _, tag := range tags {
		r := runBench(tr, tag, n)
		if r.err != nil {
			failed++
		}
		results = append(results, r)
	}
	fmt.Print(renderTable(results, tty))
	if failed > 0 {
		return fmt.Errorf("%d of %d devices failed", failed, len(results))
	}
	return nil
}
