// Package testutil provides testing utilities for the GBIF client.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ServiceCap mirrors the service's per-request record limit.
const ServiceCap = 300

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockGBIF is a configurable mock GBIF API server for testing. Paths are
// served without a version prefix, so clients use URL() as their base URL.
type MockGBIF struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount      int
	ConditionalCount  int
	LastRequestHeader http.Header
	LastRequestBody   []byte
	requestsByPath    map[string]int

	// Download simulation
	username  string
	password  string
	downloads map[string]*mockDownload
	nextKey   int
}

type mockDownload struct {
	key      string
	statuses []string
	step     int
	format   string
	archive  []byte
	created  time.Time
}

func (d *mockDownload) status() string {
	return d.statuses[d.step]
}

// NewMockGBIF creates a new mock GBIF server.
func NewMockGBIF() *MockGBIF {
	mock := &MockGBIF{
		handlers:       make(map[string]func(w http.ResponseWriter, r *http.Request)),
		requestsByPath: make(map[string]int),
		downloads:      make(map[string]*mockDownload),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body.Close()
		}

		mock.mu.Lock()
		mock.RequestCount++
		mock.requestsByPath[r.URL.Path]++
		mock.LastRequestHeader = r.Header.Clone()
		mock.LastRequestBody = body
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.ConditionalCount++
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/occurrence/download") {
			mock.downloadHandler(w, r, body)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockGBIF) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockGBIF) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockGBIF) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.LastRequestHeader = nil
	m.LastRequestBody = nil
	m.requestsByPath = make(map[string]int)
}

// SetHandler sets a custom handler for a specific path.
func (m *MockGBIF) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockGBIF) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetPagedRecords serves total records at path with offset/limit paging.
// Limits above ServiceCap are clamped like the real service does.
func (m *MockGBIF) SetPagedRecords(path string, total int, record func(i int) map[string]any) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		offset, _ := strconv.Atoi(q.Get("offset"))
		limit := 20
		if l := q.Get("limit"); l != "" {
			limit, _ = strconv.Atoi(l)
		}
		if limit > ServiceCap {
			limit = ServiceCap
		}

		results := make([]map[string]any, 0, limit)
		for i := offset; i < offset+limit && i < total; i++ {
			results = append(results, record(i))
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"offset":       offset,
			"limit":        limit,
			"endOfRecords": offset+len(results) >= total,
			"count":        total,
			"results":      results,
		})
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockGBIF) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetPathCount returns the number of requests made to path.
func (m *MockGBIF) GetPathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestsByPath[path]
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockGBIF) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// GetLastRequestBody returns the body of the most recent request.
func (m *MockGBIF) GetLastRequestBody() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestBody
}

// SetCredentials sets the basic-auth credentials the download endpoints accept.
func (m *MockGBIF) SetCredentials(username, password string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.username = username
	m.password = password
}

// AddDownload registers a job that walks through statuses, one step per
// status poll, and stays on the last one. archive is served once the job
// reports SUCCEEDED.
func (m *MockGBIF) AddDownload(key string, archive []byte, statuses ...string) {
	if len(statuses) == 0 {
		statuses = []string{"PREPARING"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloads[key] = &mockDownload{
		key:      key,
		statuses: statuses,
		format:   "SIMPLE_CSV",
		archive:  archive,
		created:  time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC),
	}
}

// SetNextDownload makes the next submission create a job walking through
// statuses.
func (m *MockGBIF) SetNextDownload(archive []byte, statuses ...string) string {
	m.mu.Lock()
	m.nextKey++
	key := fmt.Sprintf("%07d-240506120000000", m.nextKey)
	m.mu.Unlock()
	m.AddDownload(key, archive, statuses...)
	m.mu.Lock()
	m.downloads[key].step = -1
	m.mu.Unlock()
	return key
}

// DownloadStatus returns the raw status the next poll of key reports.
func (m *MockGBIF) DownloadStatus(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.downloads[key]
	if !ok || d.step < 0 {
		return ""
	}
	return d.status()
}

func (m *MockGBIF) authorized(r *http.Request) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, pass, ok := r.BasicAuth()
	return ok && user == m.username && pass == m.password
}

func (m *MockGBIF) downloadHandler(w http.ResponseWriter, r *http.Request, body []byte) {
	path := strings.TrimPrefix(r.URL.Path, "/occurrence/download")

	switch {
	case r.Method == http.MethodPost && path == "/request":
		if !m.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		var req struct {
			Format string `json:"format"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		m.mu.Lock()
		var key string
		for k, d := range m.downloads {
			if d.step < 0 {
				key = k
				d.step = 0
				if req.Format != "" {
					d.format = req.Format
				}
				break
			}
		}
		m.mu.Unlock()
		if key == "" {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "no job configured"})
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(key))

	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/request/"):
		if !m.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		key := strings.TrimPrefix(path, "/request/")
		m.mu.Lock()
		d, ok := m.downloads[key]
		if ok {
			d.statuses = append(d.statuses[:d.step:d.step], "CANCELLED")
		}
		m.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodGet && strings.HasPrefix(path, "/request/") && strings.HasSuffix(path, ".zip"):
		key := strings.TrimSuffix(strings.TrimPrefix(path, "/request/"), ".zip")
		m.mu.RLock()
		d, ok := m.downloads[key]
		ready := ok && d.step >= 0 && d.status() == "SUCCEEDED"
		var archive []byte
		if ok {
			archive = d.archive
		}
		m.mu.RUnlock()
		if !ready {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Length", strconv.Itoa(len(archive)))
		w.WriteHeader(http.StatusOK)
		w.Write(archive)

	case r.Method == http.MethodGet && strings.HasPrefix(path, "/user/"):
		if !m.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		m.mu.RLock()
		results := make([]map[string]any, 0, len(m.downloads))
		for _, d := range m.downloads {
			if d.step >= 0 {
				results = append(results, m.jobJSON(d))
			}
		}
		m.mu.RUnlock()
		writeJSON(w, http.StatusOK, map[string]any{"offset": 0, "limit": 20, "endOfRecords": true, "count": len(results), "results": results})

	case r.Method == http.MethodGet && strings.HasPrefix(path, "/"):
		key := strings.TrimPrefix(path, "/")
		m.mu.Lock()
		d, ok := m.downloads[key]
		var job map[string]any
		if ok && d.step >= 0 {
			job = m.jobJSON(d)
			if d.step < len(d.statuses)-1 {
				d.step++
			}
		}
		m.mu.Unlock()
		if job == nil {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, job)

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
	}
}

// jobJSON renders d the way the status endpoint does. Callers hold m.mu.
func (m *MockGBIF) jobJSON(d *mockDownload) map[string]any {
	job := map[string]any{
		"key":          d.key,
		"doi":          "10.15468/dl." + d.key[:7],
		"status":       d.status(),
		"created":      d.created.Format("2006-01-02T15:04:05.000-0700"),
		"modified":     d.created.Add(time.Duration(d.step) * time.Minute).Format("2006-01-02T15:04:05.000-0700"),
		"size":         0,
		"totalRecords": 0,
		"request":      map[string]any{"format": d.format},
	}
	if d.status() == "SUCCEEDED" {
		job["downloadLink"] = m.server.URL + "/occurrence/download/request/" + d.key + ".zip"
		job["size"] = len(d.archive)
		job["totalRecords"] = 42
	}
	return job
}

// defaultHandler provides default GBIF-like responses.
func (m *MockGBIF) defaultHandler(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("If-None-Match") != "" {
		w.Header().Set("Cache-Control", "public, max-age=300")
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", `"default-etag"`)
	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, map[string]any{"offset": 0, "limit": 20, "endOfRecords": true, "count": 0, "results": []any{}})
}

// NewHealthyResponse creates a standard cacheable 200 OK response.
func NewHealthyResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"ETag":          `"test-etag-123"`,
			"Cache-Control": "public, max-age=300",
			"Content-Type":  "application/json",
		},
	}
}

// NewNotModifiedResponse creates a 304 Not Modified response.
func NewNotModifiedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotModified,
		Headers: map[string]string{
			"Cache-Control": "public, max-age=300",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse(retryAfter int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Too many requests"}`,
		Headers: map[string]string{
			"Retry-After":  strconv.Itoa(retryAfter),
			"Content-Type": "application/json",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

// NewConditionalHandler creates a handler that responds with 304 for conditional requests.
func NewConditionalHandler(etag string, data string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(data))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
