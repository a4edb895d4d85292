// Package cmd holds the startup plumbing shared by the homechain binaries.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/louisbranch/homechain/internal/platform/config"
	"github.com/louisbranch/homechain/internal/platform/otel"
	"github.com/louisbranch/homechain/internal/platform/timeouts"
	"go.uber.org/zap"
)

// Binary names. They double as the OpenTelemetry service name and the zap
// logger name.
const (
	ServiceHomechain    = "homechain"
	ServiceHomechainctl = "homechainctl"
	ServiceSeed         = "seed"
)

// ParseConfig fills cfg from the environment. Binaries bind flags using the
// env values as defaults and then call ParseArgs, so a flag beats its env var.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses args into fs. A nil args slice parses as empty rather
// than falling back to os.Args.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry installs the tracer provider for service, runs run and
// flushes pending spans within timeouts.Shutdown once run returns. Flush
// failures are logged, never returned.
func RunWithTelemetry(ctx context.Context, service string, logger *zap.Logger, run func(context.Context) error) error {
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
	if logger == nil {
		logger = zap.NewNop()
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return fmt.Errorf("set up telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			logger.Warn("flush traces", zap.String("service", service), zap.Error(err))
		}
	}()
	return run(ctx)
}
