package ports

import "context"

// StoredResponse contains the response data to replay for a reused event id.
type StoredResponse struct {
	StatusCode int
	Body       []byte
	InvoiceID  string
}

// IdempotencyStore lets clients retry a submission with the same event id and
// receive the original response instead of a duplicate order.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*StoredResponse, error)
	Save(ctx context.Context, key string, response StoredResponse) error
}
