package cache

import (
	"net/url"
	"strings"
)

// KeyPrefix namespaces every cache key in Redis.
const KeyPrefix = "gbif"

// Key identifies a cached GBIF response.
type Key struct {
	// Endpoint is the request path relative to the API root, e.g. "/species/search".
	Endpoint string

	// Query holds the request parameters including limit and offset.
	Query url.Values
}

// String generates a deterministic cache key string. The query part is
// url-encoded with sorted names, so separators inside values stay escaped.
// Format: gbif:endpoint:encoded-query
//
// Example:
//
//	gbif:occurrence/search:country=DE&limit=300&offset=0&taxonKey=212&taxonKey=359
func (k Key) String() string {
	parts := []string{KeyPrefix}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Encode keeps the order of repeated values, which is significant.
	if len(k.Query) > 0 {
		parts = append(parts, k.Query.Encode())
	}

	return strings.Join(parts, ":")
}
