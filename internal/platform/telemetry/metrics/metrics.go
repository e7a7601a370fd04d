package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/louisbranch/duality-sheet"

// Metrics holds every instrument recorded by the sheet service. All fields are
// safe for concurrent use.
type Metrics struct {
	// Derivations counts full derivation runs. Attribute: converged (bool).
	Derivations metric.Int64Counter
	// DerivationPasses records how many fixed-point passes each run needed.
	DerivationPasses metric.Int64Histogram
	// HealCorrections counts validation corrections. Attribute: rule.
	HealCorrections metric.Int64Counter
	// AutosaveWrites counts persisted saves.
	AutosaveWrites metric.Int64Counter
	// AutosaveFailures counts saves that returned an error.
	AutosaveFailures metric.Int64Counter
	// LiveReconnects counts reconnect attempts on the live channel.
	LiveReconnects metric.Int64Counter
	// LiveMessages counts inbound live messages. Attribute: type.
	LiveMessages metric.Int64Counter
	// HTTPRequestDuration records handler latency in seconds.
	// Attributes: method, route, status.
	HTTPRequestDuration metric.Float64Histogram
}

// New creates all instruments from mp.
func New(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	m := &Metrics{}
	var err error

	if m.Derivations, err = meter.Int64Counter("sheet.derivations",
		metric.WithDescription("Derivation runs."),
	); err != nil {
		return nil, err
	}
	if m.DerivationPasses, err = meter.Int64Histogram("sheet.derivation.passes",
		metric.WithDescription("Fixed-point passes per derivation run."),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 4, 5, 10),
	); err != nil {
		return nil, err
	}
	if m.HealCorrections, err = meter.Int64Counter("sheet.heal.corrections",
		metric.WithDescription("Corrections applied by validation rules."),
	); err != nil {
		return nil, err
	}
	if m.AutosaveWrites, err = meter.Int64Counter("sheet.autosave.writes",
		metric.WithDescription("Character documents persisted by autosave."),
	); err != nil {
		return nil, err
	}
	if m.AutosaveFailures, err = meter.Int64Counter("sheet.autosave.failures",
		metric.WithDescription("Autosave writes that failed."),
	); err != nil {
		return nil, err
	}
	if m.LiveReconnects, err = meter.Int64Counter("sheet.live.reconnects",
		metric.WithDescription("Live channel reconnect attempts."),
	); err != nil {
		return nil, err
	}
	if m.LiveMessages, err = meter.Int64Counter("sheet.live.messages",
		metric.WithDescription("Inbound live channel messages."),
	); err != nil {
		return nil, err
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram("sheet.http.request.duration",
		metric.WithDescription("HTTP request latency."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns instruments bound to the global meter provider. Call it
// after platform/otel.Setup so the Prometheus exporter is installed.
func Default() *Metrics {
	defaultOnce.Do(func() {
		m, err := New(otel.GetMeterProvider())
		if err != nil {
			panic("metrics: create default instruments: " + err.Error())
		}
		defaultMetrics = m
	})
	return defaultMetrics
}

// RecordDerivation records one derivation run.
func (m *Metrics) RecordDerivation(ctx context.Context, passes int, converged bool) {
	if m == nil {
		return
	}
	m.Derivations.Add(ctx, 1, metric.WithAttributes(attribute.Bool("converged", converged)))
	m.DerivationPasses.Record(ctx, int64(passes))
}

// RecordCorrection records one validation correction by rule name.
func (m *Metrics) RecordCorrection(ctx context.Context, rule string) {
	if m == nil {
		return
	}
	m.HealCorrections.Add(ctx, 1, metric.WithAttributes(attribute.String("rule", rule)))
}

// RecordAutosave records a save outcome.
func (m *Metrics) RecordAutosave(ctx context.Context, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.AutosaveFailures.Add(ctx, 1)
		return
	}
	m.AutosaveWrites.Add(ctx, 1)
}

// RecordLiveMessage counts one inbound live message by type.
func (m *Metrics) RecordLiveMessage(ctx context.Context, messageType string) {
	if m == nil {
		return
	}
	m.LiveMessages.Add(ctx, 1, metric.WithAttributes(attribute.String("type", messageType)))
}

// RecordLiveReconnect counts one reconnect attempt.
func (m *Metrics) RecordLiveReconnect(ctx context.Context) {
	if m == nil {
		return
	}
	m.LiveReconnects.Add(ctx, 1)
}
