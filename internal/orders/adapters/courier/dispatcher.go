// Package courier creates delivery consignments with the courier service.
// Dispatch is the mandatory gate of the intake pipeline: any failure here is
// returned as a *domain.DispatchError and fails the whole request.
package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dejobratic/orderintake/internal/orders/domain"
)

// Dispatcher talks to the courier's create_order endpoint using API-key and
// secret-key headers.
type Dispatcher struct {
	baseURL   string
	apiKey    string
	secretKey string
	client    *http.Client
}

// NewDispatcher constructs a Dispatcher with service credentials.
func NewDispatcher(baseURL, apiKey, secretKey string, client *http.Client) *Dispatcher {
	return &Dispatcher{
		baseURL:   baseURL,
		apiKey:    apiKey,
		secretKey: secretKey,
		client:    client,
	}
}

type createOrderRequest struct {
	Invoice          string `json:"invoice"`
	RecipientName    string `json:"recipient_name"`
	RecipientPhone   string `json:"recipient_phone"`
	RecipientAddress string `json:"recipient_address"`
	CODAmount        int64  `json:"cod_amount"`
	ItemDescription  string `json:"item_description"`
	Note             string `json:"note,omitempty"`
}

type createOrderResponse struct {
	Status      int    `json:"status"`
	Message     string `json:"message"`
	Consignment struct {
		ConsignmentID json.Number `json:"consignment_id"`
		TrackingCode  string      `json:"tracking_code"`
		Status        string      `json:"status"`
	} `json:"consignment"`
}

func (d *Dispatcher) Dispatch(ctx context.Context, sub *domain.OrderSubmission) (*domain.Consignment, error) {
	payload := createOrderRequest{
		Invoice:          sub.InvoiceID,
		RecipientName:    sub.Name,
		RecipientPhone:   sub.PhoneNormalized,
		RecipientAddress: sub.Address,
		CODAmount:        sub.PriceMinor,
		ItemDescription:  sub.Product,
	}
	if sub.DeliveryZone != domain.ZoneUnspecified {
		payload.Note = fmt.Sprintf("delivery zone: %s", sub.DeliveryZone)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &domain.DispatchError{Detail: fmt.Sprintf("encode payload: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/create_order", bytes.NewReader(body))
	if err != nil {
		return nil, &domain.DispatchError{Detail: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", d.apiKey)
	req.Header.Set("Secret-Key", d.secretKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &domain.DispatchError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	var decoded createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &domain.DispatchError{Detail: fmt.Sprintf("decode response (status %d): %v", resp.StatusCode, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.DispatchError{Detail: rejectionDetail(decoded, resp.StatusCode)}
	}

	if decoded.Status != http.StatusOK {
		return nil, &domain.DispatchError{Detail: rejectionDetail(decoded, resp.StatusCode)}
	}

	if decoded.Consignment.ConsignmentID.String() == "" {
		return nil, &domain.DispatchError{Detail: "response missing consignment id"}
	}

	return &domain.Consignment{
		ConsignmentID: decoded.Consignment.ConsignmentID.String(),
		TrackingCode:  decoded.Consignment.TrackingCode,
		Status:        decoded.Consignment.Status,
	}, nil
}

func rejectionDetail(decoded createOrderResponse, httpStatus int) string {
	if decoded.Message != "" {
		return decoded.Message
	}
	if decoded.Status != 0 {
		return fmt.Sprintf("courier rejected the order with status %d", decoded.Status)
	}
	return fmt.Sprintf("courier returned status %d", httpStatus)
}
