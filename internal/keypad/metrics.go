package keypad

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metric instruments, no-ops until InitMetrics runs.
var (
	pressCounter metric.Int64Counter = noop.Int64Counter{}
	errorCounter metric.Int64Counter = noop.Int64Counter{}
)

// InitMetrics registers the keypad API instruments. Call this once at
// startup (after observability.InitMetrics).
func InitMetrics() error {
	meter := otel.Meter("keypad")

	var err error

	pressCounter, err = meter.Int64Counter("keypad.presses.total",
		metric.WithDescription("Total number of keypad presses received over the REST API"),
		metric.WithUnit("{press}"),
	)
	if err != nil {
		return fmt.Errorf("creating press counter: %w", err)
	}

	errorCounter, err = meter.Int64Counter("keypad.errors.total",
		metric.WithDescription("Total number of failed keypad API requests"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("creating error counter: %w", err)
	}

	return nil
}
