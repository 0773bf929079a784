// Package otel bootstraps the OpenTelemetry providers used by the client
// instrumentation in this module. It is intended to be called once from the
// embedding application's main.
package otel

import (
	"context"
)

// Start installs the global tracer and meter providers, returning a
// function that shuts both down flushing any buffered telemetry.
func Start(ctx context.Context) (ShutdownFunc, error) {
	tracingShutdownFunc, err := startTracerProvider(ctx)
	if err != nil {
		return nil, err
	}

	metricsShutdownFunc, err := startMetricsProvider(ctx)
	if err != nil {
		return nil, err
	}

	return func() error {
		if err := tracingShutdownFunc(); err != nil {
			return err
		}

		return metricsShutdownFunc()
	}, nil
}
