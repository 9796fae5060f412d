// Package ratelimit tracks the cool-down GBIF requests after a 429 response.
// The cool-down is shared across client instances through Redis when one is
// configured and kept in process memory otherwise.
package ratelimit

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RedisKeyBlockedUntil holds the cool-down end as unix milliseconds.
const RedisKeyBlockedUntil = "gbif:rate_limit:blocked_until"

const (
	// DefaultRetryAfter applies when a 429 carries no usable Retry-After.
	DefaultRetryAfter = 5 * time.Second

	// DefaultMaxWait is the longest a request waits out a cool-down before
	// failing fast.
	DefaultMaxWait = 10 * time.Second

	// maxRetryAfter bounds hostile or broken Retry-After values.
	maxRetryAfter = 10 * time.Minute
)

// State is the current cool-down.
type State struct {
	BlockedUntil time.Time `json:"blocked_until"`
}

// Blocked reports whether requests are held back at now.
func (s State) Blocked(now time.Time) bool {
	return now.Before(s.BlockedUntil)
}

// Remaining returns the cool-down left at now, or 0.
func (s State) Remaining(now time.Time) time.Duration {
	d := s.BlockedUntil.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// RetryAfter reads the Retry-After header as delta seconds or an HTTP date.
func RetryAfter(h http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return DefaultRetryAfter
	}

	var d time.Duration
	if secs, err := strconv.Atoi(v); err == nil {
		d = time.Duration(secs) * time.Second
	} else if t, err := http.ParseTime(v); err == nil {
		d = t.Sub(now)
	} else {
		return DefaultRetryAfter
	}

	switch {
	case d <= 0:
		return DefaultRetryAfter
	case d > maxRetryAfter:
		return maxRetryAfter
	}
	return d
}
