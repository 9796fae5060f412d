package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	rateLimitCooldownsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gbif_rate_limit_cooldowns_total",
		Help: "Total number of 429 responses that started or extended a cool-down",
	})

	rateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gbif_rate_limit_wait_seconds",
		Help:    "Time requests spent waiting out a cool-down",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	})

	rateLimitRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gbif_rate_limit_rejections_total",
		Help: "Total number of requests failed fast because the cool-down exceeded the wait budget",
	})
)

// ErrCoolingDown is matched by every *CooldownError.
var ErrCoolingDown = errors.New("rate limit cool-down")

// CooldownError is returned by Wait when the remaining cool-down is longer
// than the wait budget.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("rate limited: cool-down has %s left", e.Remaining.Round(time.Millisecond))
}

// Is reports whether target is ErrCoolingDown.
func (e *CooldownError) Is(target error) bool {
	return target == ErrCoolingDown
}

// Tracker records and enforces the 429 cool-down.
type Tracker struct {
	redis   *redis.Client
	logger  zerolog.Logger
	maxWait time.Duration
	now     func() time.Time

	mu    sync.Mutex
	local State
}

// NewTracker creates a Tracker. redisClient may be nil.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:   redisClient,
		logger:  logger,
		maxWait: DefaultMaxWait,
		now:     time.Now,
	}
}

// SetMaxWait overrides DefaultMaxWait. Zero or negative means never wait.
func (t *Tracker) SetMaxWait(d time.Duration) {
	t.maxWait = d
}

// GetState returns the current cool-down.
func (t *Tracker) GetState(ctx context.Context) (State, error) {
	if t.redis == nil {
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.local, nil
	}

	ms, err := t.redis.Get(ctx, RedisKeyBlockedUntil).Int64()
	if errors.Is(err, redis.Nil) {
		return State{}, nil
	}
	if err != nil {
		return State{}, errors.Wrap(err, "get blocked_until")
	}
	return State{BlockedUntil: time.UnixMilli(ms)}, nil
}

// UpdateFromResponse starts or extends the cool-down when resp is a 429.
// Other responses are ignored. The returned duration is the cool-down
// applied, or 0.
func (t *Tracker) UpdateFromResponse(ctx context.Context, resp *http.Response) (time.Duration, error) {
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		return 0, nil
	}

	now := t.now()
	wait := RetryAfter(resp.Header, now)
	until := now.Add(wait)

	rateLimitCooldownsTotal.Inc()
	t.logger.Warn().
		Dur("retry_after", wait).
		Time("blocked_until", until).
		Msg("GBIF rate limit hit - cooling down")

	if t.redis == nil {
		t.mu.Lock()
		if until.After(t.local.BlockedUntil) {
			t.local.BlockedUntil = until
		}
		t.mu.Unlock()
		return wait, nil
	}

	// Never shorten a cool-down another instance recorded.
	current, err := t.GetState(ctx)
	if err != nil {
		return wait, err
	}
	if !until.After(current.BlockedUntil) {
		return wait, nil
	}
	if err := t.redis.Set(ctx, RedisKeyBlockedUntil, strconv.FormatInt(until.UnixMilli(), 10), wait).Err(); err != nil {
		return wait, errors.Wrap(err, "store blocked_until in redis")
	}
	return wait, nil
}

// Wait blocks until the cool-down ends when it fits the wait budget, and
// returns a *CooldownError otherwise. Context cancellation ends the wait.
func (t *Tracker) Wait(ctx context.Context) error {
	state, err := t.GetState(ctx)
	if err != nil {
		return errors.Wrap(err, "get rate limit state")
	}

	remaining := state.Remaining(t.now())
	if remaining == 0 {
		return nil
	}

	if remaining > t.maxWait {
		rateLimitRejectionsTotal.Inc()
		t.logger.Warn().
			Dur("remaining", remaining).
			Dur("max_wait", t.maxWait).
			Msg("Cool-down exceeds wait budget - failing fast")
		return &CooldownError{Remaining: remaining}
	}

	t.logger.Debug().Dur("remaining", remaining).Msg("Waiting out rate limit cool-down")

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		rateLimitWaitSeconds.Observe(remaining.Seconds())
		return nil
	}
}
