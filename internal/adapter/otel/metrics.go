package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "storyforge"

// Metrics holds the StoryForge metric instruments. A nil *Metrics records
// nothing.
type Metrics struct {
	Generations        metric.Int64Counter
	Feedback           metric.Int64Counter
	Fallbacks          metric.Int64Counter
	StoreFailures      metric.Int64Counter
	GenerationDuration metric.Float64Histogram
}

// NewMetrics creates the instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsFrom(otel.GetMeterProvider())
}

// NewMetricsFrom creates the instruments on mp.
func NewMetricsFrom(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Generations, err = meter.Int64Counter("storyforge.generations",
		metric.WithDescription("Story map generations by outcome"))
	if err != nil {
		return nil, err
	}

	m.Feedback, err = meter.Int64Counter("storyforge.feedback",
		metric.WithDescription("Feedback applications by source and intent"))
	if err != nil {
		return nil, err
	}

	m.Fallbacks, err = meter.Int64Counter("storyforge.feedback.fallbacks",
		metric.WithDescription("Feedback requests served by the heuristic fallback"))
	if err != nil {
		return nil, err
	}

	m.StoreFailures, err = meter.Int64Counter("storyforge.store.failures",
		metric.WithDescription("Document store operations that failed"))
	if err != nil {
		return nil, err
	}

	m.GenerationDuration, err = meter.Float64Histogram("storyforge.generation.duration_seconds",
		metric.WithDescription("Generator round-trip latency in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordGeneration counts one generation and its latency.
func (m *Metrics) RecordGeneration(ctx context.Context, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.Generations.Add(ctx, 1, attrs)
	m.GenerationDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordFeedback counts one applied feedback request.
func (m *Metrics) RecordFeedback(ctx context.Context, source, intent string) {
	if m == nil {
		return
	}
	m.Feedback.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("intent", intent),
	))
}

// RecordFallback counts a generator failure absorbed by the heuristics.
func (m *Metrics) RecordFallback(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.Fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordStoreFailure counts a failed store operation.
func (m *Metrics) RecordStoreFailure(ctx context.Context, op string) {
	if m == nil {
		return
	}
	m.StoreFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}
