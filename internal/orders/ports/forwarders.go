package ports

import (
	"context"

	"github.com/dejobratic/orderintake/internal/orders/domain"
)

// LedgerForwarder writes the submission to the bookkeeping service.
// Best-effort: failures are captured in the outcome, never returned as errors.
type LedgerForwarder interface {
	Forward(ctx context.Context, sub *domain.OrderSubmission) domain.ForwardOutcome
}

// ConversionReporter reports a purchase event to the ad-attribution service,
// keyed by the submission's event id for downstream deduplication. Best-effort,
// same isolation contract as the ledger.
type ConversionReporter interface {
	Report(ctx context.Context, sub *domain.OrderSubmission) domain.ForwardOutcome
}

// CourierDispatcher creates a delivery consignment. This is the mandatory gate:
// a returned error (always a *domain.DispatchError) fails the whole request.
type CourierDispatcher interface {
	Dispatch(ctx context.Context, sub *domain.OrderSubmission) (*domain.Consignment, error)
}
