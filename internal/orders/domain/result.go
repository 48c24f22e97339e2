package domain

import "fmt"

// Consignment is the courier's acknowledgement of a dispatched order.
type Consignment struct {
	ConsignmentID string `json:"consignment_id"`
	TrackingCode  string `json:"tracking_code"`
	Status        string `json:"status"`
}

// DispatchError reports a failure of the mandatory courier gate. It is the only
// error that can fail a request once validation has passed.
type DispatchError struct {
	Detail string
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("courier dispatch failed: %s", e.Detail)
}

// OrderResult is the client-facing aggregation of the three downstream
// outcomes. OK mirrors the courier outcome; the best-effort calls surface only
// as status strings.
type OrderResult struct {
	OK               bool         `json:"ok"`
	EventID          string       `json:"event_id"`
	InvoiceID        string       `json:"invoice"`
	Consignment      *Consignment `json:"consignment,omitempty"`
	LedgerStatus     string       `json:"ledger_status"`
	ConversionStatus string       `json:"conversion_status"`
}

// ComposeResult builds the final response once all three outcomes are known.
func ComposeResult(sub *OrderSubmission, consignment *Consignment, ledger, conversion ForwardOutcome) *OrderResult {
	return &OrderResult{
		OK:               true,
		EventID:          sub.EventID,
		InvoiceID:        sub.InvoiceID,
		Consignment:      consignment,
		LedgerStatus:     ledger.StatusText(),
		ConversionStatus: conversion.StatusText(),
	}
}
