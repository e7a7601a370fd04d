// Package cmd holds the startup helpers shared by duality-sheet commands:
// environment-then-flags configuration and a telemetry-wrapped run loop.
package cmd

import (
	"context"
	"errors"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/duality-sheet/internal/platform/config"
	"github.com/louisbranch/duality-sheet/internal/platform/otel"
)

// Service names reported as the OpenTelemetry service.name resource.
const (
	ServiceSheet    = "sheet"
	ServiceImporter = "compendium-importer"
)

const defaultTelemetryShutdown = 5 * time.Second

// ParseConfig loads environment defaults into cfg. Flags registered
// afterwards with the loaded values as defaults override them.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunOption configures RunWithTelemetry.
type RunOption func(*runConfig)

type runConfig struct {
	shutdownTimeout time.Duration
	setup           func(context.Context, string) (func(context.Context) error, error)
}

// WithTelemetryShutdown bounds how long exporters may flush on exit.
func WithTelemetryShutdown(timeout time.Duration) RunOption {
	return func(c *runConfig) {
		if timeout > 0 {
			c.shutdownTimeout = timeout
		}
	}
}

// RunWithTelemetry installs OpenTelemetry providers for service, runs run and
// flushes the providers once run returns.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error, opts ...RunOption) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return errors.New("service name is required")
	}
	if run == nil {
		return errors.New("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := runConfig{shutdownTimeout: defaultTelemetryShutdown, setup: otel.Setup}
	for _, opt := range opts {
		opt(&cfg)
	}

	shutdown, err := cfg.setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Printf("%s telemetry shutdown: %v", service, err)
		}
	}()
	return run(ctx)
}
