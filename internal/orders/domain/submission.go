package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DeliveryZone classifies where a consignment is delivered relative to the home city.
type DeliveryZone string

const (
	ZoneInside      DeliveryZone = "inside"
	ZoneOutside     DeliveryZone = "outside"
	ZoneUnspecified DeliveryZone = "unspecified"
)

// ValidationError reports a malformed or missing required field in a submission.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Defaults supplies the fallback values applied to optional submission fields.
type Defaults struct {
	Product        string
	PriceMinor     int64
	ShippingMethod string
	SourceURL      string
	Currency       string
}

// RequestMeta carries transport-level context captured at the HTTP edge.
type RequestMeta struct {
	UserAgent string
	ClientIP  string
}

// OrderSubmission is the validated, normalized order. It is built once per
// request and read-only afterwards; persistence belongs to the downstream
// systems it is forwarded to.
type OrderSubmission struct {
	Name            string
	PhoneRaw        string
	PhoneNormalized string
	Address         string
	DeliveryZone    DeliveryZone
	Product         string
	PriceMinor      int64
	Currency        string
	ShippingMethod  string
	SourceURL       string
	UserAgent       string
	ClientIP        string
	EventID         string
	InvoiceID       string
}

var (
	mobilePattern   = regexp.MustCompile(`^01[3-9]\d{8}$`)
	nonDigits       = regexp.MustCompile(`\D`)
	invoiceSanitize = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

// NewSubmission validates and normalizes raw submission fields into an
// OrderSubmission. The only fatal conditions are an empty name or address and
// a phone that does not match the local mobile pattern after normalization;
// every other field falls back to a default.
func NewSubmission(raw map[string]string, meta RequestMeta, defaults Defaults) (*OrderSubmission, error) {
	name := strings.TrimSpace(raw["name"])
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "is required"}
	}

	address := strings.TrimSpace(raw["address"])
	if address == "" {
		return nil, &ValidationError{Field: "address", Message: "is required"}
	}

	phoneRaw := strings.TrimSpace(raw["phone"])
	phone := NormalizePhone(phoneRaw)
	if !mobilePattern.MatchString(phone) {
		return nil, &ValidationError{Field: "phone", Message: "must be a valid local mobile number"}
	}

	price := defaults.PriceMinor
	if v := strings.TrimSpace(raw["price"]); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed > 0 {
			price = parsed
		}
	}

	product := strings.TrimSpace(raw["product"])
	if product == "" {
		product = defaults.Product
	}

	shipping := strings.TrimSpace(raw["shipping"])
	if shipping == "" {
		shipping = defaults.ShippingMethod
	}

	source := strings.TrimSpace(raw["source"])
	if source == "" {
		source = defaults.SourceURL
	}

	userAgent := strings.TrimSpace(raw["userAgent"])
	if userAgent == "" {
		userAgent = meta.UserAgent
	}

	eventID := strings.TrimSpace(raw["event_id"])
	if eventID == "" {
		eventID = uuid.NewString()
	}

	invoiceID := invoiceSanitize.ReplaceAllString(strings.TrimSpace(raw["invoice"]), "")
	if invoiceID == "" {
		// Also covers a client value that sanitizes away entirely; the invoice
		// id must never be empty.
		invoiceID = deriveInvoiceID(eventID, time.Now().UTC())
	}

	return &OrderSubmission{
		Name:            name,
		PhoneRaw:        phoneRaw,
		PhoneNormalized: phone,
		Address:         address,
		DeliveryZone:    ParseDeliveryZone(raw["delivery"]),
		Product:         product,
		PriceMinor:      price,
		Currency:        defaults.Currency,
		ShippingMethod:  shipping,
		SourceURL:       source,
		UserAgent:       userAgent,
		ClientIP:        meta.ClientIP,
		EventID:         eventID,
		InvoiceID:       invoiceID,
	}, nil
}

// NormalizePhone strips non-digit characters and collapses the international
// country-code prefixes (00880… with 15 digits, 880… with 13 digits) to the
// local leading-zero eleven-digit form. The result is not guaranteed valid;
// callers match it against the mobile pattern.
func NormalizePhone(input string) string {
	digits := nonDigits.ReplaceAllString(input, "")

	switch {
	case strings.HasPrefix(digits, "00880") && len(digits) == 15:
		return digits[4:]
	case strings.HasPrefix(digits, "880") && len(digits) == 13:
		return digits[2:]
	default:
		return digits
	}
}

// ParseDeliveryZone maps free text to a delivery zone. Unknown text is
// ZoneUnspecified; the exact inside/outside pricing rule lives with the courier.
func ParseDeliveryZone(text string) DeliveryZone {
	folded := strings.ToLower(strings.TrimSpace(text))
	switch {
	case strings.Contains(folded, "inside"):
		return ZoneInside
	case strings.Contains(folded, "outside"):
		return ZoneOutside
	default:
		return ZoneUnspecified
	}
}

func deriveInvoiceID(eventID string, now time.Time) string {
	slice := invoiceSanitize.ReplaceAllString(eventID, "")
	if len(slice) > 8 {
		slice = slice[:8]
	}
	return fmt.Sprintf("%s-%s", now.Format("20060102"), slice)
}
