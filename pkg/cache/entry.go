// Package cache stores GBIF GET responses in Redis and revalidates them with
// conditional requests.
package cache

import (
	"net/http"
	"time"
)

// Entry is a cached response.
type Entry struct {
	Body         []byte      `json:"body"`
	ETag         string      `json:"etag"`
	Expires      time.Time   `json:"expires"`
	LastModified time.Time   `json:"last_modified"`
	StatusCode   int         `json:"status_code"`
	Header       http.Header `json:"header"`
	StoredAt     time.Time   `json:"stored_at"`
}

// IsExpired reports whether the entry is past its expiry.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration, or 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// Revalidatable reports whether a conditional request can be built from e.
func (e *Entry) Revalidatable() bool {
	return e != nil && (e.ETag != "" || !e.LastModified.IsZero())
}
