// Package metrics exposes the Prometheus metrics of the GBIF client.
// Metrics are defined next to the code that records them (client, cache,
// ratelimit, pagination, download) and registered with promauto.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every gbif_* metric is registered with.
var Registry = prometheus.DefaultRegisterer

// Gatherer collects the metrics served by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registered metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics
//
// Requests (pkg/client):
//   - gbif_requests_total{endpoint, status}: requests by endpoint and HTTP
//     status, plus cache_hit, 304, rate_limited and network_error
//   - gbif_request_duration_seconds{endpoint}: request latency
//   - gbif_errors_total{class}: errors by class (client, server, rate_limit, network)
//   - gbif_pages_fetched_total{endpoint}: decoded result pages
//
// Retries (pkg/client):
//   - gbif_retries_total{error_class}
//   - gbif_retry_backoff_seconds{error_class}
//   - gbif_retry_exhausted_total{error_class}
//
// Pagination (pkg/pagination):
//   - gbif_records_aggregated_total{endpoint}: records returned by completed aggregations
//
// Downloads (pkg/download):
//   - gbif_download_submissions_total{result}: accepted, rejected or failed
//   - gbif_download_polls_total{status}: polls by observed job status
//
// Cache (pkg/cache):
//   - gbif_cache_hits_total, gbif_cache_misses_total
//   - gbif_cache_stored_bytes_total
//   - gbif_cache_revalidations_total: 304 responses that refreshed an entry
//   - gbif_cache_errors_total{operation}
//
// Cool-down (pkg/ratelimit):
//   - gbif_rate_limit_cooldowns_total: 429 responses that started a cool-down
//   - gbif_rate_limit_wait_seconds: time spent waiting out a cool-down
//   - gbif_rate_limit_rejections_total: requests failed fast during a cool-down
//
// Example queries:
//
//	# Cache hit rate
//	sum(rate(gbif_cache_hits_total[5m])) /
//	(sum(rate(gbif_cache_hits_total[5m])) + sum(rate(gbif_cache_misses_total[5m])))
//
//	# P95 request latency
//	histogram_quantile(0.95, rate(gbif_request_duration_seconds_bucket[5m]))
//
//	# Share of polls that found a finished job
//	sum(rate(gbif_download_polls_total{status=~"succeeded|failed|cancelled"}[1h]))
//	/ sum(rate(gbif_download_polls_total[1h]))
