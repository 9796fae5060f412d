// Package client provides the core GBIF HTTP client with response caching,
// 429 cool-down handling, and typed errors.
package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/Sternrassler/gbif-client/pkg/cache"
	"github.com/Sternrassler/gbif-client/pkg/ratelimit"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the public GBIF API root.
const DefaultBaseURL = "https://api.gbif.org/v1"

// Prometheus metrics for GBIF client operations.
var (
	gbifRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gbif_requests_total",
		Help: "Total GBIF requests by endpoint and status",
	}, []string{"endpoint", "status"})

	gbifRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gbif_request_duration_seconds",
		Help:    "GBIF request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"endpoint"})

	gbifErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gbif_errors_total",
		Help: "Total GBIF errors by class",
	}, []string{"class"})
)

// Client is the GBIF HTTP client. It is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	baseURL     *url.URL
	rateLimiter *ratelimit.Tracker
	cache       *cache.Manager
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.gbif.org/v1".
	BaseURL string

	// Redis enables the shared response cache and 429 cool-down. Optional.
	Redis *redis.Client

	// UserAgent identifies the application, e.g. "AppName/1.0 (contact@example.com)".
	UserAgent string

	// Timeout bounds a single non-streaming request.
	Timeout time.Duration

	// MaxRateLimitWait is the longest a request waits out a 429 cool-down
	// before failing fast.
	MaxRateLimitWait time.Duration

	// Retry is used by callers that loop over requests.
	Retry RetryPolicy
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(redisClient *redis.Client, userAgent string) Config {
	return Config{
		BaseURL:          DefaultBaseURL,
		Redis:            redisClient,
		UserAgent:        userAgent,
		Timeout:          30 * time.Second,
		MaxRateLimitWait: ratelimit.DefaultMaxWait,
		Retry:            DefaultRetryPolicy(),
	}
}

// New creates a new GBIF client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, errors.New("user-agent is required")
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, errors.Errorf("base url must be an absolute http(s) url (got %q)", cfg.BaseURL)
	}

	if cfg.Timeout <= 0 {
		return nil, errors.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
	}

	if err := cfg.Retry.Validate(); err != nil {
		return nil, err
	}

	logger := log.With().Str("component", "gbif-client").Logger()

	rateLimiter := ratelimit.NewTracker(cfg.Redis, logger.With().Str("component", "ratelimit").Logger())
	rateLimiter.SetMaxWait(cfg.MaxRateLimitWait)

	var cacheManager *cache.Manager
	if cfg.Redis != nil {
		cacheManager = cache.NewManager(cfg.Redis)
	} else {
		logger.Debug().Msg("No Redis configured - response cache and shared cool-down disabled")
	}

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     base,
		rateLimiter: rateLimiter,
		cache:       cacheManager,
		config:      cfg,
		logger:      logger,
	}, nil
}

// Do performs an HTTP request with cool-down handling and, for anonymous
// GETs, response caching. Non-2xx responses are returned as responses; only
// transport failures and cool-down rejections are errors.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.do(req, c.cacheable(req), c.httpClient)
}

// downloadPrefix marks job endpoints whose state changes between polls.
const downloadPrefix = "/occurrence/download"

// cacheable reports whether req may be served from or stored in the cache:
// anonymous GETs outside the download endpoints.
func (c *Client) cacheable(req *http.Request) bool {
	if req.Method != http.MethodGet || req.Header.Get("Authorization") != "" {
		return false
	}
	return !strings.HasPrefix(c.endpointOf(req.URL), downloadPrefix)
}

func (c *Client) do(req *http.Request, cacheable bool, hc *http.Client) (*http.Response, error) {
	ctx := req.Context()
	endpoint := c.endpointOf(req.URL)
	label := metricLabel(endpoint)

	startTime := time.Now()
	defer func() {
		gbifRequestDuration.WithLabelValues(label).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Wait out a 429 cool-down
	if err := c.rateLimiter.Wait(ctx); err != nil {
		if errors.Is(err, ratelimit.ErrCoolingDown) {
			gbifRequestsTotal.WithLabelValues(label, "rate_limited").Inc()
			gbifErrorsTotal.WithLabelValues(string(ErrorClassRateLimit)).Inc()
			return nil, &TransportError{
				StatusCode: http.StatusTooManyRequests,
				Class:      ErrorClassRateLimit,
				Endpoint:   endpoint,
				Err:        err,
			}
		}
		if ctx.Err() != nil {
			return nil, errors.WithStack(ctx.Err())
		}
		c.logger.Warn().Err(err).Msg("Rate limit check failed - proceeding")
	}

	// Step 2: Check cache
	var key cache.Key
	var stale *cache.Entry
	if cacheable && c.cache != nil {
		key = cache.Key{Endpoint: endpoint, Query: req.URL.Query()}
		entry, err := c.cache.Get(ctx, key)
		switch {
		case err == nil && !entry.IsExpired():
			gbifRequestsTotal.WithLabelValues(label, "cache_hit").Inc()
			c.logger.Debug().Str("endpoint", endpoint).Msg("Serving response from cache")
			return cache.ToResponse(req, entry), nil
		case err == nil:
			stale = entry
			cache.AddConditionalHeaders(req, entry)
			c.logger.Debug().
				Str("endpoint", endpoint).
				Str("etag", entry.ETag).
				Msg("Making conditional request")
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
	}

	// Step 3: Set headers
	req.Header.Set("User-Agent", c.config.UserAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	requestID := req.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
		req.Header.Set("X-Request-ID", requestID)
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Str("request_id", requestID).
		Msg("Executing GBIF request")

	// Step 4: Execute
	resp, err := hc.Do(req)
	if err != nil {
		gbifErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		gbifRequestsTotal.WithLabelValues(label, "network_error").Inc()
		c.logger.Error().
			Err(err).
			Str("endpoint", endpoint).
			Str("request_id", requestID).
			Msg("HTTP request failed")
		return nil, &TransportError{Class: ErrorClassNetwork, Endpoint: endpoint, Err: err}
	}

	// Step 5: Record a cool-down on 429
	if _, err := c.rateLimiter.UpdateFromResponse(ctx, resp); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to store rate limit state")
	}

	// Step 6: Revalidated cache entry
	if resp.StatusCode == http.StatusNotModified && stale != nil {
		resp.Body.Close()
		cache.NotModifiedResponses.Inc()
		gbifRequestsTotal.WithLabelValues(label, "304").Inc()
		if err := c.cache.Refresh(ctx, key, cache.ExpiresAt(resp.Header, time.Now())); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to refresh cache entry")
		}
		return cache.ToResponse(req, stale), nil
	}

	gbifRequestsTotal.WithLabelValues(label, strconv.Itoa(resp.StatusCode)).Inc()
	if class := classifyStatus(resp.StatusCode); class != "" {
		gbifErrorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status_code", resp.StatusCode).
			Str("error_class", string(class)).
			Str("request_id", requestID).
			Msg("GBIF request error")
	}

	// Step 7: Update cache on success
	if cacheable && c.cache != nil && resp.StatusCode == http.StatusOK && !noStore(resp.Header) {
		entry, err := cache.FromResponse(resp)
		if err != nil {
			resp.Body.Close()
			return nil, &TransportError{Class: ErrorClassNetwork, Endpoint: endpoint, Err: err}
		}
		if err := c.cache.Set(ctx, key, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		}
	}

	return resp, nil
}

// Get performs a GET on endpoint and returns the body of a 2xx response.
// Other statuses become *NotFoundError, *AuthenticationError or
// *TransportError.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(endpoint, query), nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	return readBody(endpoint, resp)
}

// GetJSON performs a GET and decodes the body into v. Numbers decode as
// json.Number when v holds interfaces.
func (c *Client) GetJSON(ctx context.Context, endpoint string, query url.Values, v any) error {
	body, err := c.Get(ctx, endpoint, query)
	if err != nil {
		return err
	}
	if err := decodeJSON(body, v); err != nil {
		return &DecodeError{Endpoint: endpoint, Err: err}
	}
	return nil
}

// Call describes an uncached request such as a download submission.
type Call struct {
	Method      string
	Endpoint    string
	Query       url.Values
	Body        []byte
	ContentType string

	// Username and Password enable basic authentication when Username is set.
	Username string
	Password string
}

// Send performs call and returns the body of a 2xx response.
func (c *Client) Send(ctx context.Context, call Call) ([]byte, error) {
	var body io.Reader
	if call.Body != nil {
		body = bytes.NewReader(call.Body)
	}
	req, err := http.NewRequestWithContext(ctx, call.Method, c.URL(call.Endpoint, call.Query), body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	if call.ContentType != "" {
		req.Header.Set("Content-Type", call.ContentType)
	}
	if call.Username != "" {
		req.SetBasicAuth(call.Username, call.Password)
	}

	resp, err := c.do(req, false, c.httpClient)
	if err != nil {
		return nil, err
	}
	return readBody(call.Endpoint, resp)
}

// Stream GETs rawURL without caching or an overall timeout and returns the
// open 2xx response; the caller closes the body. A relative rawURL is
// resolved against the base URL.
func (c *Client) Stream(ctx context.Context, rawURL string) (*http.Response, error) {
	target := rawURL
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		target = c.URL(rawURL, nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "*/*")

	streaming := *c.httpClient
	streaming.Timeout = 0

	resp, err := c.do(req, false, &streaming)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		excerptBody, _ := io.ReadAll(io.LimitReader(resp.Body, bodyExcerptLimit+1))
		return nil, statusError(c.endpointOf(req.URL), resp.StatusCode, excerptBody)
	}
	return resp, nil
}

// URL builds the absolute URL for endpoint and query.
func (c *Client) URL(endpoint string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.TrimLeft(endpoint, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// RetryPolicy returns the configured retry policy.
func (c *Client) RetryPolicy() RetryPolicy {
	return c.config.Retry
}

// Retry runs fn under the configured retry policy, logging as the client.
func (c *Client) Retry(ctx context.Context, op string, fn func(context.Context) error) error {
	return c.config.Retry.do(ctx, op, c.logger, fn)
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// GetCache returns the cache manager, or nil without Redis.
func (c *Client) GetCache() *cache.Manager {
	return c.cache
}

// endpointOf returns the request path relative to the base URL.
func (c *Client) endpointOf(u *url.URL) string {
	if u.Host == c.baseURL.Host && strings.HasPrefix(u.Path, c.baseURL.Path) {
		if rel := strings.TrimPrefix(u.Path, c.baseURL.Path); rel != "" {
			return rel
		}
		return "/"
	}
	return u.Path
}

// metricLabel replaces numeric and UUID path segments with placeholders to
// keep label cardinality bounded.
func metricLabel(endpoint string) string {
	segments := strings.Split(endpoint, "/")
	for i, s := range segments {
		if s == "" {
			continue
		}
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			segments[i] = "{key}"
		} else if _, err := uuid.Parse(s); err == nil {
			segments[i] = "{uuid}"
		} else if isDownloadKey(s) {
			segments[i] = "{key}"
		}
	}
	return strings.Join(segments, "/")
}

// isDownloadKey matches keys such as "0001234-240506123456789" with an
// optional file extension.
func isDownloadKey(s string) bool {
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		s = s[:dot]
	}
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		if _, err := strconv.ParseUint(p, 10, 64); err != nil {
			return false
		}
	}
	return true
}

func noStore(h http.Header) bool {
	return strings.Contains(strings.ToLower(h.Get("Cache-Control")), "no-store")
}

func readBody(endpoint string, resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Class: ErrorClassNetwork, Endpoint: endpoint, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(endpoint, resp.StatusCode, body)
	}
	return body, nil
}
