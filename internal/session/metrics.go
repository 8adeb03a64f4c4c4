package session

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metric instruments. They start as no-ops so a Manager works before
// InitMetrics runs; InitMetrics swaps in the real instruments.
var (
	transitionCounter   metric.Int64Counter       = noop.Int64Counter{}
	transitionHistogram metric.Float64Histogram   = noop.Float64Histogram{}
	activeSessions      metric.Int64UpDownCounter = noop.Int64UpDownCounter{}
	resultGauge         metric.Float64Gauge       = noop.Float64Gauge{}
)

// InitMetrics registers the session instruments on the global meter
// provider. Call it once at startup, after observability.InitMetrics.
func InitMetrics() error {
	meter := otel.Meter("session")

	var err error

	transitionCounter, err = meter.Int64Counter("calculator.transitions.total",
		metric.WithDescription("Total number of calculator state transitions applied"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return fmt.Errorf("creating transition counter: %w", err)
	}

	transitionHistogram, err = meter.Float64Histogram("calculator.transition.duration",
		metric.WithDescription("Duration of calculator state transitions in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1),
	)
	if err != nil {
		return fmt.Errorf("creating transition histogram: %w", err)
	}

	activeSessions, err = meter.Int64UpDownCounter("calculator.sessions.active",
		metric.WithDescription("Number of live calculator sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return fmt.Errorf("creating active sessions counter: %w", err)
	}

	resultGauge, err = meter.Float64Gauge("calculator.last_result",
		metric.WithDescription("The most recent solved result"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("creating result gauge: %w", err)
	}

	return nil
}
