package adapters

import (
	"context"
	"time"

	"github.com/dejobratic/orderintake/internal/downstream"
	"github.com/dejobratic/orderintake/internal/orders/domain"
	"github.com/dejobratic/orderintake/internal/orders/ports"
	"github.com/dejobratic/orderintake/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// ObservableLedgerForwarder decorates a ledger forwarder with a span and
// downstream call metrics.
type ObservableLedgerForwarder struct {
	next    ports.LedgerForwarder
	metrics *downstream.Metrics
}

func NewObservableLedgerForwarder(next ports.LedgerForwarder, metrics *downstream.Metrics) *ObservableLedgerForwarder {
	return &ObservableLedgerForwarder{next: next, metrics: metrics}
}

func (f *ObservableLedgerForwarder) Forward(ctx context.Context, sub *domain.OrderSubmission) domain.ForwardOutcome {
	ctx, span := telemetry.StartSpan(ctx, "LedgerForwarder.Forward")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.invoice_id", sub.InvoiceID),
		attribute.String("target", "ledger"),
	)

	start := time.Now()
	outcome := f.next.Forward(ctx, sub)
	duration := time.Since(start).Seconds()

	f.metrics.RecordCall(ctx, "ledger", duration, outcome.Succeeded)

	if !outcome.Succeeded {
		telemetry.AddSpanAttributes(span, attribute.String("outcome.detail", outcome.ErrorDetail))
		return outcome
	}

	telemetry.SetSpanSuccess(span)
	return outcome
}

// ObservableCourierDispatcher decorates the courier gate with a span and
// downstream call metrics.
type ObservableCourierDispatcher struct {
	next    ports.CourierDispatcher
	metrics *downstream.Metrics
}

func NewObservableCourierDispatcher(next ports.CourierDispatcher, metrics *downstream.Metrics) *ObservableCourierDispatcher {
	return &ObservableCourierDispatcher{next: next, metrics: metrics}
}

func (d *ObservableCourierDispatcher) Dispatch(ctx context.Context, sub *domain.OrderSubmission) (*domain.Consignment, error) {
	ctx, span := telemetry.StartSpan(ctx, "CourierDispatcher.Dispatch")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.invoice_id", sub.InvoiceID),
		attribute.String("target", "courier"),
	)

	start := time.Now()
	consignment, err := d.next.Dispatch(ctx, sub)
	duration := time.Since(start).Seconds()

	d.metrics.RecordCall(ctx, "courier", duration, err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.AddSpanAttributes(span, attribute.String("consignment.id", consignment.ConsignmentID))
	telemetry.SetSpanSuccess(span)
	return consignment, nil
}

// ObservableConversionReporter decorates a conversion reporter with a span and
// downstream call metrics.
type ObservableConversionReporter struct {
	next    ports.ConversionReporter
	metrics *downstream.Metrics
}

func NewObservableConversionReporter(next ports.ConversionReporter, metrics *downstream.Metrics) *ObservableConversionReporter {
	return &ObservableConversionReporter{next: next, metrics: metrics}
}

func (r *ObservableConversionReporter) Report(ctx context.Context, sub *domain.OrderSubmission) domain.ForwardOutcome {
	ctx, span := telemetry.StartSpan(ctx, "ConversionReporter.Report")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.event_id", sub.EventID),
		attribute.String("target", "conversion"),
	)

	start := time.Now()
	outcome := r.next.Report(ctx, sub)
	duration := time.Since(start).Seconds()

	r.metrics.RecordCall(ctx, "conversion", duration, outcome.Succeeded)

	if !outcome.Succeeded {
		telemetry.AddSpanAttributes(span, attribute.String("outcome.detail", outcome.ErrorDetail))
		return outcome
	}

	telemetry.SetSpanSuccess(span)
	return outcome
}
