// Package pagination assembles a result set larger than the per-request cap
// by fetching consecutive pages.
//
// GBIF returns at most 300 records per request and reports the end of the
// result set with endOfRecords. The aggregator walks offsets sequentially,
// requesting min(cap, remaining) records each time, until the requested
// number is collected or the service reports no more records.
//
// Example usage:
//
//	agg := pagination.NewAggregator(gbifClient, pagination.DefaultConfig())
//	records, err := agg.Aggregate(ctx, "/occurrence/search", params, 1000)
//
// The aggregator:
//   - Keeps records in the order the service returned them
//   - Retries transient failures (network, 5xx, 429) per page
//   - Returns no records at all when any page ultimately fails
package pagination
