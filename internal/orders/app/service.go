package app

import (
	"context"
	"log/slog"

	"github.com/dejobratic/orderintake/internal/orders/app/commands"
	"github.com/dejobratic/orderintake/internal/orders/domain"
	"github.com/dejobratic/orderintake/internal/orders/metrics"
	"github.com/dejobratic/orderintake/internal/orders/ports"
)

// Service bundles the intake use case for the API.
type Service struct {
	placeOrderHandler commands.CommandHandler
	idemStore         ports.IdempotencyStore
}

// NewService wires required dependencies.
func NewService(
	ledger ports.LedgerForwarder,
	courier ports.CourierDispatcher,
	conversion ports.ConversionReporter,
	events ports.EventBus,
	idem ports.IdempotencyStore,
	defaults domain.Defaults,
	logger *slog.Logger,
	metrics *metrics.Metrics,
) *Service {
	coreHandler := commands.NewPlaceOrderCommandHandler(ledger, courier, conversion, events, defaults)
	observableHandler := commands.NewObservableCommandHandler(coreHandler, logger, metrics)

	return &Service{
		placeOrderHandler: observableHandler,
		idemStore:         idem,
	}
}

// PlaceOrder runs the full intake pipeline for one submission.
func (s *Service) PlaceOrder(ctx context.Context, cmd commands.PlaceOrderCommand) (*domain.OrderResult, error) {
	return s.placeOrderHandler.Handle(ctx, cmd)
}

// SaveIdempotentResponse writes response details for a client-supplied event id.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error {
	return s.idemStore.Save(ctx, key, response)
}

// GetIdempotentResponse retrieves previously stored response data.
func (s *Service) GetIdempotentResponse(ctx context.Context, key string) (*ports.StoredResponse, error) {
	return s.idemStore.Get(ctx, key)
}
