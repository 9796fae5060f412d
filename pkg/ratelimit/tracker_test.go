package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"emperror.dev/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func response(status int, retryAfter string) *http.Response {
	h := http.Header{}
	if retryAfter != "" {
		h.Set("Retry-After", retryAfter)
	}
	return &http.Response{StatusCode: status, Header: h}
}

func TestTracker_IgnoresNon429(t *testing.T) {
	tr := NewTracker(nil, zerolog.Nop())
	ctx := context.Background()

	for _, status := range []int{200, 304, 404, 500, 503} {
		d, err := tr.UpdateFromResponse(ctx, response(status, "30"))
		if err != nil || d != 0 {
			t.Errorf("status %d: got %v, %v", status, d, err)
		}
	}
	state, _ := tr.GetState(ctx)
	if state.Blocked(time.Now()) {
		t.Error("non-429 responses must not start a cool-down")
	}
}

func TestTracker_LocalCooldown(t *testing.T) {
	tr := NewTracker(nil, zerolog.Nop())
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return now }
	ctx := context.Background()

	d, err := tr.UpdateFromResponse(ctx, response(http.StatusTooManyRequests, "20"))
	if err != nil {
		t.Fatalf("UpdateFromResponse() error = %v", err)
	}
	if d != 20*time.Second {
		t.Errorf("cool-down = %v, want 20s", d)
	}

	// A shorter Retry-After must not shorten the cool-down.
	if _, err := tr.UpdateFromResponse(ctx, response(http.StatusTooManyRequests, "1")); err != nil {
		t.Fatalf("UpdateFromResponse() error = %v", err)
	}
	state, _ := tr.GetState(ctx)
	if got := state.Remaining(now); got != 20*time.Second {
		t.Errorf("Remaining() = %v, want 20s", got)
	}
}

func TestTracker_WaitFailsFastBeyondBudget(t *testing.T) {
	tr := NewTracker(nil, zerolog.Nop())
	tr.SetMaxWait(100 * time.Millisecond)
	ctx := context.Background()

	if _, err := tr.UpdateFromResponse(ctx, response(http.StatusTooManyRequests, "30")); err != nil {
		t.Fatalf("UpdateFromResponse() error = %v", err)
	}

	start := time.Now()
	err := tr.Wait(ctx)
	if !errors.Is(err, ErrCoolingDown) {
		t.Fatalf("Wait() error = %v, want ErrCoolingDown", err)
	}
	var cd *CooldownError
	if !errors.As(err, &cd) || cd.Remaining <= 0 {
		t.Errorf("CooldownError = %+v", cd)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Error("Wait() should fail fast")
	}
}

func TestTracker_WaitWithinBudget(t *testing.T) {
	tr := NewTracker(nil, zerolog.Nop())
	tr.local.BlockedUntil = time.Now().Add(50 * time.Millisecond)

	start := time.Now()
	if err := tr.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("Wait() returned after %v, expected to sleep out the cool-down", elapsed)
	}
}

func TestTracker_WaitHonorsContext(t *testing.T) {
	tr := NewTracker(nil, zerolog.Nop())
	tr.local.BlockedUntil = time.Now().Add(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := tr.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestTracker_WaitNotBlocked(t *testing.T) {
	tr := NewTracker(nil, zerolog.Nop())
	if err := tr.Wait(context.Background()); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestTracker_RedisSharedState(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}
	client.Del(ctx, RedisKeyBlockedUntil)
	t.Cleanup(func() {
		client.Del(context.Background(), RedisKeyBlockedUntil)
		client.Close()
	})

	first := NewTracker(client, zerolog.Nop())
	second := NewTracker(client, zerolog.Nop())

	if _, err := first.UpdateFromResponse(ctx, response(http.StatusTooManyRequests, "30")); err != nil {
		t.Fatalf("UpdateFromResponse() error = %v", err)
	}
	state, err := second.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if !state.Blocked(time.Now()) {
		t.Error("cool-down should be visible to other trackers")
	}
}
