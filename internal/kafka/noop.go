package kafka

import (
	"context"
	"log/slog"
)

// NoopEventBus logs events without sending them to Kafka. Used when no brokers
// are configured.
type NoopEventBus struct{}

// NewNoopEventBus returns a new no-op event publisher.
func NewNoopEventBus() *NoopEventBus {
	return &NoopEventBus{}
}

func (n *NoopEventBus) PublishOrderPlaced(_ context.Context, invoiceID string) error {
	slog.Debug("event::order_placed", "invoice_id", invoiceID)
	return nil
}

func (n *NoopEventBus) PublishDispatchFailed(_ context.Context, invoiceID string, reason string) error {
	slog.Debug("event::order_dispatch_failed", "invoice_id", invoiceID, "reason", reason)
	return nil
}
