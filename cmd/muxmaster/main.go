// Command castmux is the entrypoint for the batch transcoder CLI. It
// parses flags, loads an optional YAML config file underneath them,
// validates configuration and paths, and either runs system diagnostics
// (--check) or dispatches the transcoding batch.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/castmux/transcoder/internal/check"
	"github.com/castmux/transcoder/internal/config"
	"github.com/castmux/transcoder/internal/dispatcher"
	"github.com/castmux/transcoder/internal/display"
	"github.com/castmux/transcoder/internal/logging"
	"github.com/castmux/transcoder/internal/pipeline"
)

// version is set at build time via -ldflags (e.g. Makefile).
var version = "2.0.0-dev"

func main() {
	os.Exit(run())
}

func run() int {
	// 1. Load config from defaults, an optional YAML file, then CLI flags;
	// exit on parse or validation error.
	cfg := loadConfig()
	if err := config.ParseFlags(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "castmux: %v\n", err)
		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "castmux: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "castmux: %v\n", err)
		return 1
	}
	defer log.Close()

	display.PrintBanner()

	// 2. If the user asked for system diagnostics, run them and exit.
	if cfg.CheckOnly {
		check.Run(log)
		return 0
	}

	// 3. Resolve and validate paths: input must exist, output is created
	// if needed, and output must not be nested inside input.
	inputAbs, err := absPath(cfg.RootDirectory)
	if err != nil {
		log.Error("Input not found: %s", cfg.RootDirectory)
		return 1
	}
	outputAbs := inputAbs
	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
			log.Error("Cannot create output directory: %s", cfg.OutputDir)
			return 1
		}
		outputAbs, err = absPath(cfg.OutputDir)
		if err != nil {
			log.Error("Cannot resolve output path: %s", cfg.OutputDir)
			return 1
		}
	}
	if err := cfg.ValidatePaths(inputAbs, outputAbs); err != nil {
		log.Error("%v", err)
		log.Error("Choose an output path outside: %s", cfg.RootDirectory)
		return 1
	}

	log.Info("=== castmux v%s (%s) ===", version, cfg.String())
	log.Info("Root: %s", cfg.RootDirectory)
	log.Info("")

	// 4. Ensure the configured encoders exist in the linked codec library
	// before admitting any job.
	if err := check.Deps(&cfg); err != nil {
		log.Error("%v", err)
		return 1
	}

	files, err := pipeline.Discover(cfg.RootDirectory)
	if err != nil {
		log.Error("File discovery failed: %v", err)
		return 1
	}
	log.Info("Found %d file(s)", len(files))

	// 5. Dispatch the batch, cancelling cleanly on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	disp := dispatcher.New(&cfg, log)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Received interrupt, finishing current files...")
		disp.Cancel()
		cancel()
	}()

	stats := disp.Run(ctx, files)

	log.Info("==============================")
	log.Info("Done: %d encoded, %d skipped, %d failed", stats.Encoded, stats.Skipped, stats.Failed)
	if stats.TotalInputBytes > 0 {
		log.Info("Space saved: %d bytes", stats.SpaceSaved())
	}

	if stats.Failed > 0 {
		return 1
	}
	return 0
}

// loadConfig starts from DefaultConfig and layers an optional YAML file on
// top, matching the defaults -> file -> flags assembly order. A missing
// file is not an error; an unreadable one found by FindFile is reported
// but non-fatal, since flags alone can still fully specify a run.
func loadConfig() config.Config {
	path := config.FindFile()
	if path == "" {
		return config.DefaultConfig()
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "castmux: %v, using defaults\n", err)
		return config.DefaultConfig()
	}
	return cfg
}

// absPath returns the absolute path with symlinks resolved, for comparing
// input vs output hierarchy.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
