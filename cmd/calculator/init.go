package main

import (
	"context"
	"errors"

	"reactive-calculator/internal/keypad"
	"reactive-calculator/internal/observability"
	"reactive-calculator/internal/session"
)

// initTelemetry sets up OTel traces, metrics and log export when enabled and
// registers the domain metric instruments either way. The returned function
// shuts every provider down.
func initTelemetry(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	var shutdowns []func(context.Context) error

	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return errors.Join(errs...)
	}

	if cfg.OTelEnabled {
		inits := []func(context.Context, string) (func(context.Context) error, error){
			observability.InitTracing,
			observability.InitMetrics,
			observability.InitLogging,
		}
		for _, start := range inits {
			fn, err := start(ctx, cfg.ServiceName)
			if err != nil {
				_ = shutdown(ctx)
				return nil, err
			}
			shutdowns = append(shutdowns, fn)
		}
	}

	if err := initMetrics(); err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	return shutdown, nil
}

// initMetrics creates the application-specific metric instruments. Add new
// domain InitMetrics calls here as the project grows.
func initMetrics() error {
	if err := session.InitMetrics(); err != nil {
		return err
	}

	if err := keypad.InitMetrics(); err != nil {
		return err
	}

	return nil
}
