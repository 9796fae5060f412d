package cache

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"testing"
	"time"

	"emperror.dev/errors"
	"github.com/redis/go-redis/v9"
)

// setupTestRedis connects to a local Redis on DB 15 and skips when none is
// running. The integration suite covers the same paths against a container.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

func TestNewManager_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewManager should panic with nil redis client")
		}
	}()
	NewManager(nil)
}

func TestManager_SetGetDelete(t *testing.T) {
	m := NewManager(setupTestRedis(t))
	ctx := context.Background()
	key := Key{Endpoint: "/species/search", Query: url.Values{"q": {"Puma"}}}

	entry := &Entry{
		Body:       []byte(`{"results":[]}`),
		ETag:       `"abc"`,
		StatusCode: 200,
		Expires:    time.Now().Add(5 * time.Minute),
	}
	if err := m.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := m.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got.Body) != string(entry.Body) || got.ETag != entry.ETag {
		t.Errorf("Get() = %+v", got)
	}

	if err := m.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := m.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() after Delete error = %v, want ErrCacheMiss", err)
	}
}

func TestManager_ExpiredEntryNotStored(t *testing.T) {
	m := NewManager(setupTestRedis(t))
	ctx := context.Background()
	key := Key{Endpoint: "/species/1"}

	if err := m.Set(ctx, key, &Entry{Expires: time.Now().Add(-time.Hour)}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := m.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestManager_Refresh(t *testing.T) {
	m := NewManager(setupTestRedis(t))
	ctx := context.Background()
	key := Key{Endpoint: "/species/1"}

	if err := m.Set(ctx, key, &Entry{Body: []byte("{}"), Expires: time.Now().Add(time.Minute)}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	want := time.Now().Add(time.Hour)
	if err := m.Refresh(ctx, key, want); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	got, err := m.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if diff := got.Expires.Sub(want); diff < -time.Second || diff > time.Second {
		t.Errorf("Expires = %v, want %v", got.Expires, want)
	}
}

func TestManager_SetNil(t *testing.T) {
	m := NewManager(setupTestRedis(t))
	if err := m.Set(context.Background(), Key{Endpoint: "/x"}, nil); err == nil {
		t.Error("Set(nil) should fail")
	}
}

func TestManager_StaleRevalidatableEntry(t *testing.T) {
	client := setupTestRedis(t)
	m := NewManager(client)
	ctx := context.Background()
	key := Key{Endpoint: "/species/2"}

	if err := m.Set(ctx, key, &Entry{ETag: `"x"`, Expires: time.Now().Add(time.Second)}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	ttl, err := client.TTL(ctx, key.String()).Result()
	if err != nil {
		t.Fatalf("TTL error = %v", err)
	}
	if ttl < StaleGrace {
		t.Errorf("Redis TTL = %v, want at least %v for a revalidatable entry", ttl, StaleGrace)
	}

	time.Sleep(1100 * time.Millisecond)
	got, err := m.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.IsExpired() {
		t.Error("entry should be reported as expired")
	}
}

func TestManager_NoCacheEntryKeptForRevalidation(t *testing.T) {
	m := NewManager(setupTestRedis(t))
	ctx := context.Background()
	key := Key{Endpoint: "/species/3"}

	if err := m.Set(ctx, key, &Entry{Body: []byte("{}"), ETag: `"v1"`, Expires: time.Now()}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := m.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.IsExpired() || got.ETag != `"v1"` {
		t.Errorf("entry = %+v, want an expired entry carrying its ETag", got)
	}
}

func TestManager_CorruptEntry(t *testing.T) {
	rdb := setupTestRedis(t)
	m := NewManager(rdb)
	ctx := context.Background()
	key := Key{Endpoint: "/species/search", Query: url.Values{"q": {"Puma"}}}

	if err := rdb.Set(ctx, key.String(), "not json", time.Minute).Err(); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}

	_, err := m.Get(ctx, key)
	if !errors.Is(err, ErrInvalidEntry) {
		t.Fatalf("Get() error = %v, want ErrInvalidEntry", err)
	}
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Errorf("error should keep the decode failure, got %v", err)
	}
	if strings.Contains(err.Error(), "%!") {
		t.Errorf("malformed error message: %q", err.Error())
	}
}
