package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"emperror.dev/errors"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates the key was not found or the entry expired.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates a stored entry could not be decoded.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// StaleGrace is how long a revalidatable entry is kept in Redis past its
// expiry so a conditional request can still refresh it.
const StaleGrace = time.Hour

// Manager stores entries in Redis. Redis expiry follows Entry.Expires, so
// dead entries disappear without a sweeper.
type Manager struct {
	redis *redis.Client
}

// NewManager creates a Manager. It panics on a nil client.
func NewManager(redisClient *redis.Client) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Manager{redis: redisClient}
}

// Get returns the entry for key, or ErrCacheMiss. An expired entry is still
// returned while it can be revalidated; callers check IsExpired.
func (m *Manager) Get(ctx context.Context, key Key) (*Entry, error) {
	data, err := m.redis.Get(ctx, key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			cacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		cacheErrors.WithLabelValues("get").Inc()
		return nil, errors.Wrap(err, "redis get")
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		cacheErrors.WithLabelValues("get").Inc()
		return nil, errors.WithStack(fmt.Errorf("%w: %w", ErrInvalidEntry, err))
	}

	if entry.IsExpired() {
		if !entry.Revalidatable() {
			_ = m.Delete(ctx, key)
			cacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		return &entry, nil
	}

	cacheHits.Inc()
	return &entry, nil
}

// Set stores entry until its expiry. Expired entries are silently skipped.
func (m *Manager) Set(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return errors.New("cache entry cannot be nil")
	}

	// Revalidatable entries outlive their expiry by StaleGrace.
	ttl := entry.TTL()
	switch {
	case entry.Revalidatable():
		if ttl < 0 {
			ttl = 0
		}
		ttl += StaleGrace
	case ttl <= 0:
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		return errors.Wrap(err, "marshal cache entry")
	}

	if err := m.redis.Set(ctx, key.String(), data, ttl).Err(); err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		return errors.Wrap(err, "redis set")
	}

	cacheStoredBytes.Add(float64(len(data)))
	return nil
}

// Delete removes the entry for key.
func (m *Manager) Delete(ctx context.Context, key Key) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		cacheErrors.WithLabelValues("delete").Inc()
		return errors.Wrap(err, "redis del")
	}
	return nil
}

// Refresh extends an existing entry after a 304 revalidation.
func (m *Manager) Refresh(ctx context.Context, key Key, expires time.Time) error {
	entry, err := m.Get(ctx, key)
	if err != nil {
		return err
	}
	entry.Expires = expires
	return m.Set(ctx, key, entry)
}
