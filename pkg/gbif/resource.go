package gbif

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"

	"emperror.dev/errors"
	"github.com/Sternrassler/gbif-client/pkg/catalog"
	"github.com/Sternrassler/gbif-client/pkg/client"
	"github.com/Sternrassler/gbif-client/pkg/enum"
	"github.com/Sternrassler/gbif-client/pkg/query"
	"github.com/Sternrassler/gbif-client/pkg/record"
)

// Resource is a sub-resource of a name usage, e.g. its vernacular names.
// Exactly one of Object and Records is set.
type Resource struct {
	Type string

	// Object holds single-object resources ("verbatim", "name").
	Object map[string]any

	// Records holds list resources in service order.
	Records []client.RawRecord

	// Count is the service-reported total for list resources, or -1.
	Count int64
}

// nameUsageResources list other name usages and map onto the species catalog.
var nameUsageResources = map[string]bool{
	"parents":      true,
	"children":     true,
	"related":      true,
	"synonyms":     true,
	"combinations": true,
}

var objectResources = map[string]bool{
	"verbatim": true,
	"name":     true,
}

// IsList reports whether the resource is a list of records.
func (r *Resource) IsList() bool { return r.Object == nil }

// Table maps list resources of name usages onto the species catalog. Other
// resources have no fixed row shape and yield nil.
func (r *Resource) Table() *record.Table {
	if !nameUsageResources[r.Type] {
		return nil
	}
	tbl := record.NewTable(catalog.Species, r.Records)
	tbl.Count = r.Count
	return tbl
}

// SpeciesResource fetches the resultType sub-resource of the name usage with
// key. resultType is validated against enum.SpeciesResultType before any
// request. List resources are paged up to limit records; a limit <= 0
// selects the default page size.
func (s *Service) SpeciesResource(ctx context.Context, key int64, resultType string, limit int) (*Resource, error) {
	if key <= 0 {
		return nil, &query.InvalidParameterTypeError{Param: "key", Want: "positive int", Got: strconv.FormatInt(key, 10)}
	}
	canonical, err := s.validator.Validate(enum.SpeciesResultType, resultType)
	if err != nil {
		return nil, err
	}
	rt := canonical.(string)
	endpoint := "/species/" + strconv.FormatInt(key, 10) + "/" + rt

	if objectResources[rt] {
		raw, err := s.lookup(ctx, endpoint, nil)
		if err != nil {
			return nil, err
		}
		return &Resource{Type: rt, Object: raw, Count: -1}, nil
	}

	if limit <= 0 {
		limit = query.DefaultLimit
	}
	res, err := s.aggregator.Collect(ctx, endpoint, nil, limit)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("endpoint", endpoint).
		Int("rows", len(res.Records)).
		Int("pages", res.Pages).
		Msg("Species resource complete")

	return &Resource{Type: rt, Records: res.Records, Count: res.Count}, nil
}

// inventoryParams lists the filters each occurrence inventory accepts. Keys
// that name a vocabulary are canonicalized.
var inventoryParams = map[string]map[string]string{
	"basisOfRecord":       {},
	"countries":           {"publishingCountry": enum.Country},
	"datasets":            {"country": enum.Country, "taxonKey": ""},
	"installationCount":   {"publishingCountry": enum.Country},
	"publishingCountries": {"country": enum.Country},
	"year":                {"year": ""},
	"schema":              {},
}

// OccurrenceInventory returns one of the occurrence count breakdowns under
// /occurrence/counts, e.g. "countries" for occurrence counts per country.
// The response shape differs per kind and is returned as raw JSON.
func (s *Service) OccurrenceInventory(ctx context.Context, kind string, filters url.Values) (json.RawMessage, error) {
	canonical, err := s.validator.Validate(enum.InventoryType, kind)
	if err != nil {
		return nil, err
	}
	kind = canonical.(string)
	endpoint := "/occurrence/counts/" + kind

	allowed := inventoryParams[kind]
	q := make(url.Values, len(filters))
	for name, values := range filters {
		vocab, ok := allowed[name]
		if !ok {
			known := make([]string, 0, len(allowed))
			for k := range allowed {
				known = append(known, k)
			}
			sort.Strings(known)
			return nil, &query.UnknownParameterError{Endpoint: endpoint, Name: name, Known: known}
		}
		if vocab != "" {
			c, err := s.validator.Validate(vocab, values)
			if err != nil {
				return nil, err
			}
			values = c.([]string)
		}
		q[name] = append([]string(nil), values...)
	}

	var body []byte
	err = s.api.Retry(ctx, "inventory "+kind, func(ctx context.Context) error {
		var err error
		body, err = s.api.Get(ctx, endpoint, q)
		return err
	})
	if err != nil {
		return nil, err
	}

	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return nil, &client.DecodeError{Endpoint: endpoint, Err: errors.New("response is not valid JSON")}
	}
	return json.RawMessage(body), nil
}
