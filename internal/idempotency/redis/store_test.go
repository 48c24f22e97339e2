//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	rd "github.com/redis/go-redis/v9"
	testredis "github.com/testcontainers/testcontainers-go/modules/redis"

	idemredis "github.com/dejobratic/orderintake/internal/idempotency/redis"
	"github.com/dejobratic/orderintake/internal/orders/ports"
)

func setupTestRedis(t *testing.T) *rd.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	opts, err := rd.ParseURL(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}

	client := rd.NewClient(opts)
	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func TestStoreSaveAndGet(t *testing.T) {
	client := setupTestRedis(t)
	store := idemredis.NewStore(client, time.Hour)
	ctx := context.Background()

	key := "evt-integration-1"
	response := ports.StoredResponse{
		StatusCode: 200,
		Body:       []byte(`{"ok":true,"invoice":"20260901-abcd1234"}`),
		InvoiceID:  "20260901-abcd1234",
	}

	if err := store.Save(ctx, key, response); err != nil {
		t.Fatalf("failed to save response: %v", err)
	}

	retrieved, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("failed to get response: %v", err)
	}

	if retrieved == nil {
		t.Fatal("expected response, got nil")
	}

	if retrieved.StatusCode != response.StatusCode {
		t.Errorf("expected status code %d, got %d", response.StatusCode, retrieved.StatusCode)
	}

	if string(retrieved.Body) != string(response.Body) {
		t.Errorf("expected body %s, got %s", response.Body, retrieved.Body)
	}

	if retrieved.InvoiceID != response.InvoiceID {
		t.Errorf("expected invoice id %s, got %s", response.InvoiceID, retrieved.InvoiceID)
	}
}

func TestStoreGet_NotFound(t *testing.T) {
	client := setupTestRedis(t)
	store := idemredis.NewStore(client, time.Hour)
	ctx := context.Background()

	retrieved, err := store.Get(ctx, "evt-nonexistent")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if retrieved != nil {
		t.Errorf("expected nil response, got %v", retrieved)
	}
}

func TestStoreSave_TTLExpiry(t *testing.T) {
	client := setupTestRedis(t)
	store := idemredis.NewStore(client, time.Second)
	ctx := context.Background()

	key := "evt-ttl-1"
	response := ports.StoredResponse{
		StatusCode: 200,
		Body:       []byte(`{"ok":true}`),
		InvoiceID:  "20260901-ttl00000",
	}

	if err := store.Save(ctx, key, response); err != nil {
		t.Fatalf("failed to save response: %v", err)
	}

	retrieved, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("failed to get response: %v", err)
	}
	if retrieved == nil {
		t.Fatal("expected response before expiry, got nil")
	}

	time.Sleep(1500 * time.Millisecond)

	retrieved, err = store.Get(ctx, key)
	if err != nil {
		t.Fatalf("expected no error after expiry, got %v", err)
	}
	if retrieved != nil {
		t.Errorf("expected entry to expire, got %v", retrieved)
	}
}

func TestStorePing(t *testing.T) {
	client := setupTestRedis(t)
	store := idemredis.NewStore(client, time.Hour)

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("expected reachable redis, got %v", err)
	}
}
