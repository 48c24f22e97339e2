package downstream

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	callDuration metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.callDuration, err = meter.Float64Histogram(
		"downstream_call_duration_seconds",
		metric.WithDescription("Downstream service call duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create downstream_call_duration histogram: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordCall(ctx context.Context, target string, durationSeconds float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.callDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("target", target),
		attribute.String("status", status),
	))
}
