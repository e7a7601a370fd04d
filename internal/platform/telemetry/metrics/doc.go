// Package metrics defines the operational instruments recorded by the sheet
// service.
//
// Instruments are created through the OpenTelemetry metrics API. Commands
// install a Prometheus-backed meter provider via platform/otel, so every
// counter and histogram here is scrapeable from /metrics. Tests build a
// Metrics from their own sdkmetric.ManualReader to inspect recorded values.
package metrics
