package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/dejobratic/orderintake/internal/orders/domain"
	"github.com/dejobratic/orderintake/internal/orders/metrics"
	"github.com/dejobratic/orderintake/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableCommandHandler struct {
	handler CommandHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCommandHandler(handler CommandHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCommandHandler {
	return &ObservableCommandHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableCommandHandler) Handle(ctx context.Context, cmd PlaceOrderCommand) (*domain.OrderResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "PlaceOrderCommand.Handle")
	defer span.End()

	start := time.Now()
	var success bool
	defer func() {
		duration := time.Since(start).Seconds()
		o.metrics.RecordIntakeDuration(ctx, duration)
		o.metrics.RecordOrderPlaced(ctx, success)
	}()

	o.logger.InfoContext(ctx, "processing order submission",
		"source", cmd.Fields["source"],
		"client_ip", cmd.ClientIP,
	)

	result, err := o.handler.Handle(ctx, cmd)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "order submission failed",
			"error", err,
			"client_ip", cmd.ClientIP,
		)
		return nil, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.String("order.event_id", result.EventID),
		attribute.String("order.invoice_id", result.InvoiceID),
		attribute.String("order.ledger_status", result.LedgerStatus),
		attribute.String("order.conversion_status", result.ConversionStatus),
	)

	o.logger.InfoContext(ctx, "order placed",
		"event_id", result.EventID,
		"invoice_id", result.InvoiceID,
		"ledger_status", result.LedgerStatus,
		"conversion_status", result.ConversionStatus,
	)

	success = true
	telemetry.SetSpanSuccess(span)

	return result, nil
}
