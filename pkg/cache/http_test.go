package cache

import (
	"bytes"
	"io"
	"net/http"
	"testing"
	"time"
)

func newResponse(header http.Header, body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     header,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func TestFromResponse(t *testing.T) {
	resp := newResponse(http.Header{
		"Etag":          {`"v1"`},
		"Last-Modified": {time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat)},
	}, `{"count":1}`)

	entry, err := FromResponse(resp)
	if err != nil {
		t.Fatalf("FromResponse() error = %v", err)
	}
	if string(entry.Body) != `{"count":1}` {
		t.Errorf("Body = %s", entry.Body)
	}
	if entry.ETag != `"v1"` {
		t.Errorf("ETag = %s", entry.ETag)
	}
	if entry.LastModified.IsZero() {
		t.Error("LastModified should be parsed")
	}

	again, _ := io.ReadAll(resp.Body)
	if string(again) != `{"count":1}` {
		t.Errorf("response body not restored: %s", again)
	}
}

func TestFromResponse_Nil(t *testing.T) {
	if _, err := FromResponse(nil); err == nil {
		t.Error("FromResponse(nil) should fail")
	}
}

func TestExpiresAt(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		header http.Header
		want   time.Duration
	}{
		{"no headers", http.Header{}, DefaultTTL},
		{"max-age", http.Header{"Cache-Control": {"public, max-age=3600"}}, time.Hour},
		{"max-age wins over expires", http.Header{
			"Cache-Control": {"max-age=60"},
			"Expires":       {now.Add(time.Hour).UTC().Format(http.TimeFormat)},
		}, time.Minute},
		{"no-store", http.Header{"Cache-Control": {"no-store"}}, 0},
		{"max-age zero", http.Header{"Cache-Control": {"max-age=0"}}, 0},
		{"expires in past", http.Header{"Expires": {now.Add(-time.Hour).UTC().Format(http.TimeFormat)}}, 0},
		{"unparsable expires", http.Header{"Expires": {"tomorrow"}}, DefaultTTL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpiresAt(tt.header, now).Sub(now)
			// Expires has second resolution.
			if diff := got - tt.want; diff < -2*time.Second || diff > 2*time.Second {
				t.Errorf("expiry offset = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntry_TTL(t *testing.T) {
	fresh := &Entry{Expires: time.Now().Add(time.Minute)}
	if fresh.IsExpired() || fresh.TTL() <= 0 {
		t.Error("fresh entry reported as expired")
	}
	stale := &Entry{Expires: time.Now().Add(-time.Minute)}
	if !stale.IsExpired() || stale.TTL() != 0 {
		t.Error("stale entry reported as fresh")
	}
}

func TestAddConditionalHeaders(t *testing.T) {
	lastMod := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		entry     *Entry
		wantETag  string
		wantSince string
	}{
		{"etag preferred", &Entry{ETag: `"abc"`, LastModified: lastMod}, `"abc"`, ""},
		{"last-modified only", &Entry{LastModified: lastMod}, "", lastMod.Format(http.TimeFormat)},
		{"nothing to revalidate", &Entry{}, "", ""},
		{"nil entry", nil, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "https://api.gbif.org/v1/species/1", nil)
			AddConditionalHeaders(req, tt.entry)
			if got := req.Header.Get("If-None-Match"); got != tt.wantETag {
				t.Errorf("If-None-Match = %q, want %q", got, tt.wantETag)
			}
			if got := req.Header.Get("If-Modified-Since"); got != tt.wantSince {
				t.Errorf("If-Modified-Since = %q, want %q", got, tt.wantSince)
			}
		})
	}
}

func TestToResponse(t *testing.T) {
	entry := &Entry{
		Body:       []byte(`{"key":1}`),
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {"application/json"}},
	}
	resp := ToResponse(nil, entry)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("X-Cache") != "HIT" {
		t.Errorf("unexpected response: %d %v", resp.StatusCode, resp.Header)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"key":1}` {
		t.Errorf("body = %s", body)
	}
	if entry.Header.Get("X-Cache") != "" {
		t.Error("ToResponse must not mutate the entry headers")
	}
}
