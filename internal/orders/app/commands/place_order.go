package commands

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/dejobratic/orderintake/internal/orders/domain"
	"github.com/dejobratic/orderintake/internal/orders/ports"
)

// PlaceOrderCommand carries the raw submission fields plus the request context
// captured at the HTTP edge.
type PlaceOrderCommand struct {
	Fields    map[string]string
	UserAgent string
	ClientIP  string
}

type CommandHandler interface {
	Handle(ctx context.Context, cmd PlaceOrderCommand) (*domain.OrderResult, error)
}

// PlaceOrderCommandHandler runs the intake pipeline: normalize the submission,
// fan it out to the three downstream systems, and compose the response once
// all outcomes are known. The courier is the only fatal gate; the ledger and
// conversion forwarders are best-effort and run concurrently with it.
type PlaceOrderCommandHandler struct {
	ledger     ports.LedgerForwarder
	courier    ports.CourierDispatcher
	conversion ports.ConversionReporter
	events     ports.EventBus
	defaults   domain.Defaults
}

// NewPlaceOrderCommandHandler wires the forwarders. ledger and conversion may
// be nil when their endpoints are not configured; their outcomes then read as
// skipped.
func NewPlaceOrderCommandHandler(
	ledger ports.LedgerForwarder,
	courier ports.CourierDispatcher,
	conversion ports.ConversionReporter,
	events ports.EventBus,
	defaults domain.Defaults,
) *PlaceOrderCommandHandler {
	return &PlaceOrderCommandHandler{
		ledger:     ledger,
		courier:    courier,
		conversion: conversion,
		events:     events,
		defaults:   defaults,
	}
}

func (h *PlaceOrderCommandHandler) Handle(ctx context.Context, cmd PlaceOrderCommand) (*domain.OrderResult, error) {
	meta := domain.RequestMeta{UserAgent: cmd.UserAgent, ClientIP: cmd.ClientIP}
	sub, err := domain.NewSubmission(cmd.Fields, meta, h.defaults)
	if err != nil {
		return nil, err
	}

	// sub is read-only from here on; the goroutines below share it without
	// synchronization. Each downstream call is attempted exactly once.
	var ledgerOutcome, conversionOutcome domain.ForwardOutcome

	g := new(errgroup.Group)
	if h.ledger != nil {
		g.Go(func() error {
			ledgerOutcome = h.ledger.Forward(ctx, sub)
			return nil
		})
	}
	if h.conversion != nil {
		g.Go(func() error {
			conversionOutcome = h.conversion.Report(ctx, sub)
			return nil
		})
	}

	consignment, dispatchErr := h.courier.Dispatch(ctx, sub)

	// The best-effort calls never return errors; Wait only synchronizes.
	_ = g.Wait()

	if dispatchErr != nil {
		// Publish failures are recorded by the observable bus; they never
		// change the response.
		_ = h.events.PublishDispatchFailed(ctx, sub.InvoiceID, dispatchErr.Error())
		return nil, dispatchErr
	}

	result := domain.ComposeResult(sub, consignment, ledgerOutcome, conversionOutcome)

	_ = h.events.PublishOrderPlaced(ctx, sub.InvoiceID)

	return result, nil
}
