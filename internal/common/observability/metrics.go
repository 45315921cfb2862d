package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability owns the otel meter provider. Its instruments are exported
// through the same Prometheus registry that serves /metrics.
type Observability struct {
	meterProvider         *metric.MeterProvider
	orchestrationCounter  otelmetric.Int64Counter
	orchestrationDuration otelmetric.Float64Histogram
}

// New builds the provider. A nil *Observability is valid and records nothing.
func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	counter, err := meter.Int64Counter(
		"orchestrations",
		otelmetric.WithDescription("Orchestrations processed"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"orchestration.duration",
		otelmetric.WithDescription("End-to-end orchestration duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Observability{
		meterProvider:         provider,
		orchestrationCounter:  counter,
		orchestrationDuration: duration,
	}, nil
}

// RecordOrchestration records one finished orchestration.
func (o *Observability) RecordOrchestration(ctx context.Context, d time.Duration, intentSource string, fallbacks int) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("intent_source", intentSource),
		attribute.Bool("degraded", fallbacks > 0),
	)
	o.orchestrationCounter.Add(ctx, 1, attrs)
	o.orchestrationDuration.Record(ctx, float64(d.Milliseconds()), attrs)
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	return o.meterProvider.Shutdown(ctx)
}
