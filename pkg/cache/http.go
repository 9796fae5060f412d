package cache

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"emperror.dev/errors"
)

// DefaultTTL applies when the response carries no usable freshness headers.
const DefaultTTL = 5 * time.Minute

// FromResponse reads resp into an Entry. The body is restored so the caller
// can still consume it.
func FromResponse(resp *http.Response) (*Entry, error) {
	if resp == nil {
		return nil, errors.New("response cannot be nil")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))

	now := time.Now()
	entry := &Entry{
		Body:       body,
		ETag:       resp.Header.Get("ETag"),
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		StoredAt:   now,
		Expires:    ExpiresAt(resp.Header, now),
	}

	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			entry.LastModified = t
		}
	}

	return entry, nil
}

// ExpiresAt derives the expiry from Cache-Control max-age, then Expires,
// falling back to DefaultTTL. no-store and no-cache yield an already expired
// time so the entry is never stored.
func ExpiresAt(h http.Header, now time.Time) time.Time {
	for _, directive := range strings.Split(h.Get("Cache-Control"), ",") {
		directive = strings.TrimSpace(strings.ToLower(directive))
		switch {
		case directive == "no-store" || directive == "no-cache":
			return now
		case strings.HasPrefix(directive, "max-age="):
			if secs, err := strconv.Atoi(strings.TrimPrefix(directive, "max-age=")); err == nil {
				if secs <= 0 {
					return now
				}
				return now.Add(time.Duration(secs) * time.Second)
			}
		}
	}

	if exp := h.Get("Expires"); exp != "" {
		t, err := http.ParseTime(exp)
		if err != nil {
			return now.Add(DefaultTTL)
		}
		if t.Before(now) {
			return now
		}
		return t
	}

	return now.Add(DefaultTTL)
}

// AddConditionalHeaders sets If-None-Match or If-Modified-Since on req.
// ETag wins when both are available.
func AddConditionalHeaders(req *http.Request, entry *Entry) {
	if req == nil || !entry.Revalidatable() {
		return
	}
	if entry.ETag != "" {
		req.Header.Set("If-None-Match", entry.ETag)
		return
	}
	req.Header.Set("If-Modified-Since", entry.LastModified.UTC().Format(http.TimeFormat))
}

// ToResponse rebuilds an HTTP response from entry for req.
func ToResponse(req *http.Request, entry *Entry) *http.Response {
	header := entry.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	header.Set("X-Cache", "HIT")
	return &http.Response{
		Status:        http.StatusText(entry.StatusCode),
		StatusCode:    entry.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(entry.Body)),
		ContentLength: int64(len(entry.Body)),
		Request:       req,
	}
}
