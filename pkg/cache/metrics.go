package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gbif_cache_hits_total",
		Help: "Total number of GBIF response cache hits",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gbif_cache_misses_total",
		Help: "Total number of GBIF response cache misses",
	})

	cacheStoredBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gbif_cache_stored_bytes_total",
		Help: "Total bytes written to the GBIF response cache",
	})

	// NotModifiedResponses counts 304 revalidations served from cache.
	NotModifiedResponses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gbif_cache_revalidations_total",
		Help: "Total number of 304 Not Modified responses served from cache",
	})

	cacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gbif_cache_errors_total",
		Help: "Total number of cache operation errors",
	}, []string{"operation"})
)
