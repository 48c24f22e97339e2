// Package redis implements the idempotency store on Redis so response replay
// survives process restarts. Entries expire after a configurable TTL.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	rd "github.com/redis/go-redis/v9"

	"github.com/dejobratic/orderintake/internal/orders/ports"
)

// Store keeps stored responses as Redis hashes keyed by event id.
type Store struct {
	client *rd.Client
	ttl    time.Duration
}

// NewStore creates a Redis-backed idempotency store.
func NewStore(client *rd.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func storeKey(eventID string) string {
	return fmt.Sprintf("orderintake:idem:%s", eventID)
}

// Get returns the stored response for a given event id if present.
func (s *Store) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	fields, err := s.client.HGetAll(ctx, storeKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("idempotency get: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	statusCode, err := strconv.Atoi(fields["status_code"])
	if err != nil {
		return nil, fmt.Errorf("idempotency get: corrupt status code %q", fields["status_code"])
	}

	return &ports.StoredResponse{
		StatusCode: statusCode,
		Body:       []byte(fields["body"]),
		InvoiceID:  fields["invoice_id"],
	}, nil
}

// Save stores the response for an event id and refreshes the key TTL.
func (s *Store) Save(ctx context.Context, key string, response ports.StoredResponse) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, storeKey(key),
		"status_code", strconv.Itoa(response.StatusCode),
		"body", string(response.Body),
		"invoice_id", response.InvoiceID,
	)
	if s.ttl > 0 {
		pipe.Expire(ctx, storeKey(key), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("idempotency save: %w", err)
	}
	return nil
}

// Ping reports whether the backing Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(ctx).Err()
}
