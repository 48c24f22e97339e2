package commands_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/dejobratic/orderintake/internal/orders/app/commands"
	"github.com/dejobratic/orderintake/internal/orders/domain"
)

var testDefaults = domain.Defaults{
	Product:        "Classic Bundle",
	PriceMinor:     1990,
	ShippingMethod: "free",
	SourceURL:      "https://shop.example.com/checkout",
	Currency:       "BDT",
}

func validFields() map[string]string {
	return map[string]string{
		"name":    "Rahim Uddin",
		"phone":   "01712345678",
		"address": "House 12, Road 5",
	}
}

type mockLedger struct {
	calls   atomic.Int64
	outcome domain.ForwardOutcome
}

func (m *mockLedger) Forward(_ context.Context, _ *domain.OrderSubmission) domain.ForwardOutcome {
	m.calls.Add(1)
	return m.outcome
}

type mockConversion struct {
	calls   atomic.Int64
	lastSub *domain.OrderSubmission
	outcome domain.ForwardOutcome
}

func (m *mockConversion) Report(_ context.Context, sub *domain.OrderSubmission) domain.ForwardOutcome {
	m.calls.Add(1)
	m.lastSub = sub
	return m.outcome
}

type mockCourier struct {
	calls       atomic.Int64
	consignment *domain.Consignment
	err         error
}

func (m *mockCourier) Dispatch(_ context.Context, _ *domain.OrderSubmission) (*domain.Consignment, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.consignment, nil
}

type mockEventBus struct {
	placed     []string
	failed     []string
	publishErr error
}

func (m *mockEventBus) PublishOrderPlaced(_ context.Context, invoiceID string) error {
	m.placed = append(m.placed, invoiceID)
	return m.publishErr
}

func (m *mockEventBus) PublishDispatchFailed(_ context.Context, invoiceID string, _ string) error {
	m.failed = append(m.failed, invoiceID)
	return m.publishErr
}

func okCourier() *mockCourier {
	return &mockCourier{consignment: &domain.Consignment{ConsignmentID: "C-1", TrackingCode: "TRK", Status: "in_review"}}
}

func TestPlaceOrder(t *testing.T) {
	t.Run("places order when every downstream call succeeds", func(t *testing.T) {
		ledger := &mockLedger{outcome: domain.OutcomeOK()}
		conv := &mockConversion{outcome: domain.OutcomeOK()}
		courier := okCourier()
		events := &mockEventBus{}
		handler := commands.NewPlaceOrderCommandHandler(ledger, courier, conv, events, testDefaults)

		result, err := handler.Handle(context.Background(), commands.PlaceOrderCommand{Fields: validFields()})

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if !result.OK {
			t.Error("expected ok result")
		}
		if result.Consignment == nil || result.Consignment.ConsignmentID != "C-1" {
			t.Errorf("expected consignment payload, got %+v", result.Consignment)
		}
		if result.LedgerStatus != "ok" || result.ConversionStatus != "ok" {
			t.Errorf("expected ok statuses, got ledger=%q conversion=%q", result.LedgerStatus, result.ConversionStatus)
		}
		if len(events.placed) != 1 || events.placed[0] != result.InvoiceID {
			t.Errorf("expected order placed event for %s, got %v", result.InvoiceID, events.placed)
		}
	})

	t.Run("validation failure performs zero downstream calls", func(t *testing.T) {
		ledger := &mockLedger{outcome: domain.OutcomeOK()}
		conv := &mockConversion{outcome: domain.OutcomeOK()}
		courier := okCourier()
		handler := commands.NewPlaceOrderCommandHandler(ledger, courier, conv, &mockEventBus{}, testDefaults)

		fields := validFields()
		fields["phone"] = "12345"

		_, err := handler.Handle(context.Background(), commands.PlaceOrderCommand{Fields: fields})

		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got: %v", err)
		}
		if n := ledger.calls.Load() + conv.calls.Load() + courier.calls.Load(); n != 0 {
			t.Errorf("expected zero downstream calls, got %d", n)
		}
	})

	t.Run("courier failure is fatal regardless of best-effort outcomes", func(t *testing.T) {
		ledger := &mockLedger{outcome: domain.OutcomeOK()}
		conv := &mockConversion{outcome: domain.OutcomeOK()}
		courier := &mockCourier{err: &domain.DispatchError{Detail: "invalid api key"}}
		events := &mockEventBus{}
		handler := commands.NewPlaceOrderCommandHandler(ledger, courier, conv, events, testDefaults)

		result, err := handler.Handle(context.Background(), commands.PlaceOrderCommand{Fields: validFields()})

		var dispatchErr *domain.DispatchError
		if !errors.As(err, &dispatchErr) {
			t.Fatalf("expected DispatchError, got: %v", err)
		}
		if result != nil {
			t.Errorf("expected nil result, got %+v", result)
		}
		if len(events.failed) != 1 {
			t.Errorf("expected dispatch failed event, got %v", events.failed)
		}
		// Best-effort calls still run; only the gate decides the response.
		if ledger.calls.Load() != 1 || conv.calls.Load() != 1 {
			t.Errorf("expected best-effort calls to be attempted, got ledger=%d conversion=%d",
				ledger.calls.Load(), conv.calls.Load())
		}
	})

	t.Run("ledger failure does not fail the request and conversion proceeds", func(t *testing.T) {
		ledger := &mockLedger{outcome: domain.OutcomeFailed("sheet quota exceeded")}
		conv := &mockConversion{outcome: domain.OutcomeOK()}
		handler := commands.NewPlaceOrderCommandHandler(ledger, okCourier(), conv, &mockEventBus{}, testDefaults)

		result, err := handler.Handle(context.Background(), commands.PlaceOrderCommand{Fields: validFields()})

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if !result.OK {
			t.Error("expected ok result despite ledger failure")
		}
		if result.LedgerStatus != "sheet quota exceeded" {
			t.Errorf("expected ledger failure detail, got %q", result.LedgerStatus)
		}
		if result.ConversionStatus != "ok" {
			t.Errorf("expected conversion ok, got %q", result.ConversionStatus)
		}
		if conv.calls.Load() != 1 {
			t.Errorf("expected conversion to be attempted, got %d calls", conv.calls.Load())
		}
	})

	t.Run("unconfigured forwarders report skipped", func(t *testing.T) {
		handler := commands.NewPlaceOrderCommandHandler(nil, okCourier(), nil, &mockEventBus{}, testDefaults)

		result, err := handler.Handle(context.Background(), commands.PlaceOrderCommand{Fields: validFields()})

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if result.LedgerStatus != "skipped" || result.ConversionStatus != "skipped" {
			t.Errorf("expected skipped statuses, got ledger=%q conversion=%q", result.LedgerStatus, result.ConversionStatus)
		}
	})

	t.Run("client-supplied event id reaches the conversion reporter unchanged", func(t *testing.T) {
		conv := &mockConversion{outcome: domain.OutcomeOK()}
		handler := commands.NewPlaceOrderCommandHandler(&mockLedger{outcome: domain.OutcomeOK()}, okCourier(), conv, &mockEventBus{}, testDefaults)

		fields := validFields()
		fields["event_id"] = "evt-client-42"

		result, err := handler.Handle(context.Background(), commands.PlaceOrderCommand{Fields: fields})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if result.EventID != "evt-client-42" {
			t.Errorf("expected event id evt-client-42, got %s", result.EventID)
		}
		if conv.lastSub == nil || conv.lastSub.EventID != "evt-client-42" {
			t.Errorf("expected conversion to see event id evt-client-42, got %+v", conv.lastSub)
		}
	})

	t.Run("event publish failure never fails the request", func(t *testing.T) {
		events := &mockEventBus{publishErr: errors.New("kafka unavailable")}
		handler := commands.NewPlaceOrderCommandHandler(&mockLedger{outcome: domain.OutcomeOK()}, okCourier(), &mockConversion{outcome: domain.OutcomeOK()}, events, testDefaults)

		result, err := handler.Handle(context.Background(), commands.PlaceOrderCommand{Fields: validFields()})

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if !result.OK {
			t.Error("expected ok result despite publish failure")
		}
	})
}
