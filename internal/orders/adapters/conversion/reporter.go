// Package conversion reports purchase events to the ad-attribution service.
// Reports are best-effort and deduplicated downstream by the submission's
// event id.
package conversion

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dejobratic/orderintake/internal/orders/domain"
)

// Reporter posts purchase events to the pixel's events endpoint.
type Reporter struct {
	graphURL      string
	pixelID       string
	accessToken   string
	testEventCode string
	client        *http.Client
	now           func() time.Time
}

// NewReporter constructs a Reporter with pixel credentials. testEventCode is
// optional and only set on staging pixels.
func NewReporter(graphURL, pixelID, accessToken, testEventCode string, client *http.Client) *Reporter {
	return &Reporter{
		graphURL:      graphURL,
		pixelID:       pixelID,
		accessToken:   accessToken,
		testEventCode: testEventCode,
		client:        client,
		now:           time.Now,
	}
}

type eventEnvelope struct {
	Data          []purchaseEvent `json:"data"`
	TestEventCode string          `json:"test_event_code,omitempty"`
}

type purchaseEvent struct {
	EventName      string     `json:"event_name"`
	EventTime      int64      `json:"event_time"`
	EventID        string     `json:"event_id"`
	ActionSource   string     `json:"action_source"`
	EventSourceURL string     `json:"event_source_url"`
	UserData       userData   `json:"user_data"`
	CustomData     customData `json:"custom_data"`
}

type userData struct {
	Phones          []string `json:"ph"`
	ClientIP        string   `json:"client_ip_address,omitempty"`
	ClientUserAgent string   `json:"client_user_agent,omitempty"`
}

type customData struct {
	Currency string  `json:"currency"`
	Value    float64 `json:"value"`
}

func (r *Reporter) Report(ctx context.Context, sub *domain.OrderSubmission) domain.ForwardOutcome {
	envelope := eventEnvelope{
		Data: []purchaseEvent{{
			EventName:      "Purchase",
			EventTime:      r.now().Unix(),
			EventID:        sub.EventID,
			ActionSource:   "website",
			EventSourceURL: sub.SourceURL,
			UserData: userData{
				Phones:          []string{HashIdentifier(sub.PhoneNormalized)},
				ClientIP:        sub.ClientIP,
				ClientUserAgent: sub.UserAgent,
			},
			CustomData: customData{
				Currency: sub.Currency,
				Value:    float64(sub.PriceMinor),
			},
		}},
		TestEventCode: r.testEventCode,
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return domain.OutcomeFailed(fmt.Sprintf("encode conversion payload: %v", err))
	}

	endpoint := fmt.Sprintf("%s/%s/events?access_token=%s", r.graphURL, r.pixelID, url.QueryEscape(r.accessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.OutcomeFailed(fmt.Sprintf("build conversion request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return domain.OutcomeFailed(fmt.Sprintf("conversion request: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error.Message != "" {
			return domain.OutcomeFailed(apiErr.Error.Message)
		}
		return domain.OutcomeFailed(fmt.Sprintf("conversion endpoint returned status %d", resp.StatusCode))
	}

	return domain.OutcomeOK()
}

// HashIdentifier lowercases, trims, and sha256-hashes a user identifier the
// way the attribution service expects for match keys.
func HashIdentifier(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
