// Package otel configures OpenTelemetry tracing and metrics for commands.
package otel

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/louisbranch/duality-sheet/internal/platform/config"
)

type settings struct {
	MetricsDisabled bool   `env:"DUALITY_SHEET_METRICS_DISABLED"`
	TracingEnabled  bool   `env:"DUALITY_SHEET_OTEL_ENABLED" envDefault:"true"`
	Endpoint        string `env:"DUALITY_SHEET_OTEL_ENDPOINT"`
}

// Setup initialises OpenTelemetry for the given service.
//
// Unless DUALITY_SHEET_METRICS_DISABLED is set, metrics are recorded through a
// Prometheus exporter on the default registry so promhttp can serve them.
//
// Tracing is opt-in: when DUALITY_SHEET_OTEL_ENDPOINT is empty or
// DUALITY_SHEET_OTEL_ENABLED is false, no span exporter is installed.
//
// The returned shutdown function flushes pending spans and metrics and should
// be deferred by the caller.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	var shutdownFuncs []func(context.Context) error
	shutdown = func(ctx context.Context) error {
		var errs []error
		for _, fn := range shutdownFuncs {
			if e := fn(ctx); e != nil {
				errs = append(errs, e)
			}
		}
		return errors.Join(errs...)
	}

	var env settings
	if err := config.ParseEnv(&env); err != nil {
		return shutdown, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return shutdown, err
	}

	if !env.MetricsDisabled {
		exporter, err := promexporter.New()
		if err != nil {
			return shutdown, err
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		otel.SetMeterProvider(mp)
		shutdownFuncs = append(shutdownFuncs, mp.Shutdown)
	}

	if !env.TracingEnabled || env.Endpoint == "" {
		return shutdown, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(env.Endpoint),
	)
	if err != nil {
		return shutdown, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	shutdownFuncs = append(shutdownFuncs, tp.Shutdown)

	return shutdown, nil
}
