package adapters

import (
	"context"
	"time"

	"github.com/dejobratic/orderintake/internal/kafka"
	"github.com/dejobratic/orderintake/internal/orders/ports"
	"github.com/dejobratic/orderintake/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableEventBus struct {
	bus     ports.EventBus
	metrics *kafka.Metrics
}

func NewObservableEventBus(bus ports.EventBus, metrics *kafka.Metrics) *ObservableEventBus {
	return &ObservableEventBus{
		bus:     bus,
		metrics: metrics,
	}
}

func (e *ObservableEventBus) PublishOrderPlaced(ctx context.Context, invoiceID string) error {
	ctx, span := telemetry.StartSpan(ctx, "EventBus.PublishOrderPlaced")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.invoice_id", invoiceID),
		attribute.String("event.type", "order.placed"),
	)

	start := time.Now()
	err := e.bus.PublishOrderPlaced(ctx, invoiceID)
	duration := time.Since(start).Seconds()

	e.metrics.RecordPublish(ctx, "order.placed", duration, err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (e *ObservableEventBus) PublishDispatchFailed(ctx context.Context, invoiceID string, reason string) error {
	ctx, span := telemetry.StartSpan(ctx, "EventBus.PublishDispatchFailed")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.invoice_id", invoiceID),
		attribute.String("event.type", "order.dispatch_failed"),
		attribute.String("failure.reason", reason),
	)

	start := time.Now()
	err := e.bus.PublishDispatchFailed(ctx, invoiceID, reason)
	duration := time.Since(start).Seconds()

	e.metrics.RecordPublish(ctx, "order.dispatch_failed", duration, err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}
