// Package ledger forwards accepted submissions to the bookkeeping endpoint.
// The forward is best-effort: every failure mode collapses into a
// ForwardOutcome and never aborts the request.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dejobratic/orderintake/internal/orders/domain"
)

// Forwarder posts the submission as a flat form-encoded key-value set.
type Forwarder struct {
	url    string
	client *http.Client
}

// NewForwarder constructs a Forwarder for the given ledger endpoint.
func NewForwarder(endpoint string, client *http.Client) *Forwarder {
	return &Forwarder{url: endpoint, client: client}
}

func (f *Forwarder) Forward(ctx context.Context, sub *domain.OrderSubmission) domain.ForwardOutcome {
	form := url.Values{}
	form.Set("name", sub.Name)
	form.Set("phone", sub.PhoneNormalized)
	form.Set("address", sub.Address)
	form.Set("delivery", string(sub.DeliveryZone))
	form.Set("product", sub.Product)
	form.Set("price", strconv.FormatInt(sub.PriceMinor, 10))
	form.Set("shipping", sub.ShippingMethod)
	form.Set("source", sub.SourceURL)
	form.Set("userAgent", sub.UserAgent)
	form.Set("event_id", sub.EventID)
	form.Set("invoice", sub.InvoiceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.OutcomeFailed(fmt.Sprintf("build ledger request: %v", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.client.Do(req)
	if err != nil {
		return domain.OutcomeFailed(fmt.Sprintf("ledger request: %v", err))
	}
	defer resp.Body.Close()

	// The ledger may answer with plain text; a JSON body is optional.
	var body struct {
		OK    *bool  `json:"ok"`
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if body.Error != "" {
			return domain.OutcomeFailed(body.Error)
		}
		return domain.OutcomeFailed(fmt.Sprintf("ledger returned status %d", resp.StatusCode))
	}

	if body.OK != nil && !*body.OK {
		detail := body.Error
		if detail == "" {
			detail = "ledger rejected the order"
		}
		return domain.OutcomeFailed(detail)
	}

	return domain.OutcomeOK()
}
