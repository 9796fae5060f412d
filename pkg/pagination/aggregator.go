package pagination

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"emperror.dev/errors"
	"github.com/Sternrassler/gbif-client/pkg/client"
	"github.com/Sternrassler/gbif-client/pkg/query"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var gbifRecordsAggregatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gbif_records_aggregated_total",
	Help: "Total number of records assembled across pages by endpoint",
}, []string{"endpoint"})

// Config holds aggregator configuration.
type Config struct {
	// PageSize is the per-request cap.
	PageSize int

	// PageTimeout bounds a single page attempt. Zero means no extra bound.
	PageTimeout time.Duration

	// Retry governs per-page retries of transient failures.
	Retry client.RetryPolicy
}

// DefaultConfig returns the configuration for the public GBIF API.
func DefaultConfig() Config {
	return Config{
		PageSize:    query.ServiceCap,
		PageTimeout: 30 * time.Second,
		Retry:       client.DefaultRetryPolicy(),
	}
}

// PageFetcher fetches a single page. *client.Client implements it.
type PageFetcher interface {
	FetchPage(ctx context.Context, endpoint string, params url.Values, offset, limit int) (*client.Page, error)
}

// Result is an assembled result set.
type Result struct {
	Records []client.RawRecord

	// Count is the last service-reported total, or -1.
	Count int64

	// Pages is the number of pages fetched.
	Pages int
}

// Aggregator fetches pages sequentially.
type Aggregator struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger
}

// NewAggregator creates an Aggregator.
func NewAggregator(fetcher PageFetcher, config Config) *Aggregator {
	if config.PageSize <= 0 || config.PageSize > query.ServiceCap {
		config.PageSize = query.ServiceCap
	}
	if config.Retry.MaxAttempts < 1 {
		config.Retry = client.DefaultRetryPolicy()
	}

	return &Aggregator{
		fetcher: fetcher,
		config:  config,
		logger:  log.With().Str("component", "pagination").Logger(),
	}
}

// Aggregate returns up to requestedLimit records. See Collect.
func (a *Aggregator) Aggregate(ctx context.Context, endpoint string, params url.Values, requestedLimit int) ([]client.RawRecord, error) {
	res, err := a.Collect(ctx, endpoint, params, requestedLimit)
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// Collect fetches pages starting at the "offset" in params (default 0) until
// requestedLimit records are collected, the service reports the end of
// records, or a page comes back empty. Any "limit" in params is ignored.
//
// When a page fails after retries, Collect returns a nil result and the
// error; records from earlier pages are discarded.
func (a *Aggregator) Collect(ctx context.Context, endpoint string, params url.Values, requestedLimit int) (*Result, error) {
	res := &Result{Records: []client.RawRecord{}, Count: -1}
	if requestedLimit <= 0 {
		return res, nil
	}

	filters := make(url.Values, len(params))
	for k, v := range params {
		if k == "offset" || k == "limit" {
			continue
		}
		filters[k] = v
	}

	offset := 0
	if raw := params.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, errors.Errorf("invalid offset %q", raw)
		}
		offset = n
	}

	start := time.Now()
	capacity := requestedLimit
	if capacity > 4*a.config.PageSize {
		capacity = 4 * a.config.PageSize
	}
	res.Records = make([]client.RawRecord, 0, capacity)

	for collected := 0; collected < requestedLimit; {
		size := a.config.PageSize
		if remaining := requestedLimit - collected; remaining < size {
			size = remaining
		}

		page, err := a.fetch(ctx, endpoint, filters, offset, size)
		if err != nil {
			a.logger.Warn().
				Err(err).
				Str("endpoint", endpoint).
				Int("page", res.Pages+1).
				Int("offset", offset).
				Int("collected", collected).
				Msg("Page fetch failed - discarding partial results")
			return nil, errors.WithMessagef(err, "fetch page %d (offset %d, limit %d)", res.Pages+1, offset, size)
		}
		res.Pages++

		records := page.Records
		if len(records) > size {
			records = records[:size]
		}
		res.Records = append(res.Records, records...)
		if page.Count >= 0 {
			res.Count = page.Count
		}

		offset += len(records)
		collected += len(records)

		if page.EndOfRecords || len(records) == 0 {
			break
		}
	}

	gbifRecordsAggregatedTotal.WithLabelValues(endpoint).Add(float64(len(res.Records)))
	a.logger.Debug().
		Str("endpoint", endpoint).
		Int("records", len(res.Records)).
		Int("pages", res.Pages).
		Int("requested", requestedLimit).
		Dur("duration", time.Since(start)).
		Msg("Aggregation complete")

	return res, nil
}

func (a *Aggregator) fetch(ctx context.Context, endpoint string, filters url.Values, offset, limit int) (*client.Page, error) {
	var page *client.Page
	err := a.config.Retry.Do(ctx, endpoint, func(ctx context.Context) error {
		if a.config.PageTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.config.PageTimeout)
			defer cancel()
		}
		p, err := a.fetcher.FetchPage(ctx, endpoint, filters, offset, limit)
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	return page, err
}
