package ports

import "context"

// EventBus defines the contract for publishing order lifecycle events.
type EventBus interface {
	PublishOrderPlaced(ctx context.Context, invoiceID string) error
	PublishDispatchFailed(ctx context.Context, invoiceID string, reason string) error
}
