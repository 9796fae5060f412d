package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"emperror.dev/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var gbifPagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gbif_pages_fetched_total",
	Help: "Total number of result pages fetched by endpoint",
}, []string{"endpoint"})

// RawRecord is one decoded result object, keyed by field name. Numbers are
// json.Number.
type RawRecord = map[string]any

// Page is one decoded page of results.
type Page struct {
	Offset        int
	Limit         int
	Records       []RawRecord
	ReturnedCount int
	EndOfRecords  bool

	// Count is the total reported by the service, or -1 when absent.
	Count int64
}

// FetchPage performs one request for a page at offset with limit. It never
// retries.
func (c *Client) FetchPage(ctx context.Context, endpoint string, params url.Values, offset, limit int) (*Page, error) {
	query := cloneValues(params)
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))

	body, err := c.Get(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}

	page, err := DecodePage(endpoint, body, offset, limit)
	if err != nil {
		return nil, err
	}
	gbifPagesFetchedTotal.WithLabelValues(endpoint).Inc()

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("offset", page.Offset).
		Int("limit", limit).
		Int("returned", page.ReturnedCount).
		Bool("end_of_records", page.EndOfRecords).
		Msg("Fetched page")

	return page, nil
}

type pageEnvelope struct {
	Offset       *json.Number `json:"offset"`
	Limit        *json.Number `json:"limit"`
	EndOfRecords *bool        `json:"endOfRecords"`
	Count        *json.Number `json:"count"`
	Results      []any        `json:"results"`
}

// DecodePage decodes a paged response body. offset and limit are the values
// requested and apply when the body does not echo them.
//
// End of records is taken from endOfRecords when present, else from
// offset+returned >= count, else a page shorter than limit ends the results.
// A bare JSON array is a single final page.
func DecodePage(endpoint string, body []byte, offset, limit int) (*Page, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, &DecodeError{Endpoint: endpoint, Err: errors.New("empty body")}
	}

	var env pageEnvelope
	bare := trimmed[0] == '['
	if bare {
		var results []any
		if err := decodeJSON(trimmed, &results); err != nil {
			return nil, &DecodeError{Endpoint: endpoint, Err: err}
		}
		env.Results = results
	} else if err := decodeJSON(trimmed, &env); err != nil {
		return nil, &DecodeError{Endpoint: endpoint, Err: err}
	}

	records := make([]RawRecord, 0, len(env.Results))
	for i, r := range env.Results {
		rec, ok := r.(map[string]any)
		if !ok {
			return nil, &DecodeError{Endpoint: endpoint, Err: errors.Errorf("result %d is %T, not an object", i, r)}
		}
		records = append(records, rec)
	}

	page := &Page{
		Offset:        offset,
		Limit:         limit,
		Records:       records,
		ReturnedCount: len(records),
		Count:         -1,
	}
	if env.Offset != nil {
		if n, err := env.Offset.Int64(); err == nil {
			page.Offset = int(n)
		}
	}
	if env.Limit != nil {
		if n, err := env.Limit.Int64(); err == nil {
			page.Limit = int(n)
		}
	}
	if env.Count != nil {
		n, err := env.Count.Int64()
		if err != nil {
			return nil, &DecodeError{Endpoint: endpoint, Err: errors.Wrap(err, "count")}
		}
		page.Count = n
	}

	switch {
	case bare:
		page.EndOfRecords = true
	case env.EndOfRecords != nil:
		page.EndOfRecords = *env.EndOfRecords
	case page.Count >= 0:
		page.EndOfRecords = int64(page.Offset+page.ReturnedCount) >= page.Count
	default:
		page.EndOfRecords = page.ReturnedCount < limit
	}

	return page, nil
}

// decodeJSON decodes data into v keeping numbers as json.Number.
func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON value")
	}
	return nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v)+2)
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
