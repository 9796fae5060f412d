//go:build integration

package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"emperror.dev/errors"
	"github.com/Sternrassler/gbif-client/pkg/cache"
	"github.com/Sternrassler/gbif-client/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer creates a Redis container for integration testing.
func setupRedisContainer(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	t.Cleanup(func() {
		client.Close()
		container.Terminate(ctx)
	})
	return client
}

func TestIntegration_CacheSharedAcrossClients(t *testing.T) {
	rdb := setupRedisContainer(t)

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Cache-Control", "max-age=300")
		w.Write([]byte(`{"offset":0,"limit":20,"endOfRecords":true,"count":1,"results":[{"key":5231190}]}`))
	}))
	defer server.Close()

	first := newTestClient(t, server.URL, rdb)
	second := newTestClient(t, server.URL, rdb)
	ctx := context.Background()

	if _, err := first.FetchPage(ctx, "/species/search", nil, 0, 20); err != nil {
		t.Fatalf("first FetchPage() error = %v", err)
	}
	page, err := second.FetchPage(ctx, "/species/search", nil, 0, 20)
	if err != nil {
		t.Fatalf("second FetchPage() error = %v", err)
	}
	if page.ReturnedCount != 1 {
		t.Errorf("cached page returned %d records", page.ReturnedCount)
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1", hits.Load())
	}

	key := cache.Key{Endpoint: "/species/search", Query: map[string][]string{"offset": {"0"}, "limit": {"20"}}}
	ttl, err := rdb.TTL(ctx, key.String()).Result()
	if err != nil {
		t.Fatalf("TTL error = %v", err)
	}
	if ttl <= 0 || ttl > 300*time.Second {
		t.Errorf("cache TTL = %v, want (0, 300s]", ttl)
	}
}

func TestIntegration_CooldownSharedAcrossClients(t *testing.T) {
	rdb := setupRedisContainer(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	first := newTestClient(t, server.URL, rdb)
	second := newTestClient(t, server.URL, rdb)
	ctx := context.Background()

	if _, err := first.Get(ctx, "/occurrence/search", nil); !IsRetryable(err) {
		t.Fatalf("first Get() error = %v, want retryable 429", err)
	}

	state, err := ratelimit.NewTracker(rdb, first.logger).GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if !state.Blocked(time.Now()) {
		t.Fatal("cool-down not stored in Redis")
	}

	_, err = second.Get(ctx, "/occurrence/search", nil)
	var te *TransportError
	if !errors.As(err, &te) || te.Class != ErrorClassRateLimit {
		t.Errorf("second Get() error = %v, want rate-limit rejection", err)
	}
}
