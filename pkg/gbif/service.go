// Package gbif is the high-level API: validated species and occurrence
// searches returned as tables, single-record lookups, and download jobs.
package gbif

import (
	"context"
	"net/url"
	"strconv"

	"emperror.dev/errors"
	"github.com/Sternrassler/gbif-client/pkg/catalog"
	"github.com/Sternrassler/gbif-client/pkg/client"
	"github.com/Sternrassler/gbif-client/pkg/download"
	"github.com/Sternrassler/gbif-client/pkg/enum"
	"github.com/Sternrassler/gbif-client/pkg/pagination"
	"github.com/Sternrassler/gbif-client/pkg/query"
	"github.com/Sternrassler/gbif-client/pkg/record"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options customizes a Service. The zero value is usable.
type Options struct {
	// Validator checks enum parameters. Defaults to enum.Default().
	Validator *enum.Validator

	// Pagination overrides the aggregator settings. A zero PageSize selects
	// pagination.DefaultConfig with the client's retry policy.
	Pagination pagination.Config
}

// Service wires the query builder, pagination and record mapping on top of
// a client.
type Service struct {
	api        *client.Client
	validator  *enum.Validator
	builder    *query.Builder
	aggregator *pagination.Aggregator
	downloads  *download.Controller
	logger     zerolog.Logger
}

// New creates a Service on c.
func New(c *client.Client, opts Options) *Service {
	v := opts.Validator
	if v == nil {
		v = enum.Default()
	}

	pc := opts.Pagination
	if pc.PageSize <= 0 {
		pc = pagination.DefaultConfig()
		pc.Retry = c.RetryPolicy()
	}
	if pc.PageSize > query.ServiceCap {
		pc.PageSize = query.ServiceCap
	}

	return &Service{
		api:        c,
		validator:  v,
		builder:    query.NewBuilder(v),
		aggregator: pagination.NewAggregator(c, pc),
		downloads:  download.NewController(c, v),
		logger:     log.With().Str("component", "gbif").Logger(),
	}
}

// Downloads returns the download job controller.
func (s *Service) Downloads() *download.Controller {
	return s.downloads
}

// Accepted lists the accepted values of an enum parameter.
func (s *Service) Accepted(param string) ([]string, error) {
	return s.validator.Accepted(param)
}

// SpeciesSearch runs a full-text species search. The "limit" filter may
// exceed the per-request cap; pages are fetched until it is met or records
// run out.
func (s *Service) SpeciesSearch(ctx context.Context, filters map[string]any) (*record.Table, error) {
	return s.search(ctx, query.SpeciesSearch, catalog.Species, filters)
}

// SpeciesList lists name usages matching exact filters.
func (s *Service) SpeciesList(ctx context.Context, filters map[string]any) (*record.Table, error) {
	return s.search(ctx, query.SpeciesList, catalog.Species, filters)
}

// OccurrenceSearch searches occurrence records.
func (s *Service) OccurrenceSearch(ctx context.Context, filters map[string]any) (*record.Table, error) {
	return s.search(ctx, query.OccurrenceSearch, catalog.Occurrence, filters)
}

func (s *Service) search(ctx context.Context, e *query.Endpoint, c *catalog.Catalog, filters map[string]any) (*record.Table, error) {
	p, err := s.builder.Build(e, filters)
	if err != nil {
		return nil, err
	}

	params := p.Values()
	params.Set("offset", strconv.Itoa(p.Offset))

	res, err := s.aggregator.Collect(ctx, e.Path, params, p.RequestedLimit)
	if err != nil {
		return nil, err
	}

	tbl := record.NewTable(c, res.Records)
	tbl.Count = res.Count

	s.logger.Debug().
		Str("endpoint", e.Name).
		Int("rows", tbl.Len()).
		Int64("count", tbl.Count).
		Int("pages", res.Pages).
		Msg("Search complete")

	return tbl, nil
}

// OccurrenceCount returns the number of occurrences matching filters
// without fetching any records.
func (s *Service) OccurrenceCount(ctx context.Context, filters map[string]any) (int64, error) {
	p, err := s.builder.Build(query.OccurrenceSearch, filters)
	if err != nil {
		return 0, err
	}

	var page *client.Page
	err = s.api.Retry(ctx, "occurrence count", func(ctx context.Context) error {
		var err error
		page, err = s.api.FetchPage(ctx, query.OccurrenceSearch.Path, p.Values(), 0, 0)
		return err
	})
	if err != nil {
		return 0, err
	}
	if page.Count < 0 {
		return 0, &client.DecodeError{Endpoint: query.OccurrenceSearch.Path, Err: errors.New("response carries no count")}
	}
	return page.Count, nil
}

// SpeciesMatch fuzzy-matches a name against the backbone taxonomy. A
// response with matchType NONE is reported as *client.NotFoundError.
func (s *Service) SpeciesMatch(ctx context.Context, filters map[string]any) (*record.Row, error) {
	p, err := s.builder.Build(query.SpeciesMatch, filters)
	if err != nil {
		return nil, err
	}

	raw, err := s.lookup(ctx, query.SpeciesMatch.Path, p.Values())
	if err != nil {
		return nil, err
	}
	if mt, _ := raw["matchType"].(string); mt == "NONE" {
		return nil, &client.NotFoundError{
			Endpoint: query.SpeciesMatch.Path,
			Resource: "species match for " + strconv.Quote(p.Values().Get("name")),
		}
	}

	row := record.NewMapper(catalog.Species).Map(raw)
	return &row, nil
}

// Species returns the name usage with key.
func (s *Service) Species(ctx context.Context, key int64) (*record.Row, error) {
	return s.byKey(ctx, "/species/", "species", catalog.Species, key)
}

// Occurrence returns the occurrence with key.
func (s *Service) Occurrence(ctx context.Context, key int64) (*record.Row, error) {
	return s.byKey(ctx, "/occurrence/", "occurrence", catalog.Occurrence, key)
}

func (s *Service) byKey(ctx context.Context, prefix, resource string, c *catalog.Catalog, key int64) (*record.Row, error) {
	if key <= 0 {
		return nil, &query.InvalidParameterTypeError{Param: "key", Want: "positive int", Got: strconv.FormatInt(key, 10)}
	}
	id := strconv.FormatInt(key, 10)

	raw, err := s.lookup(ctx, prefix+id, nil)
	if err != nil {
		var nf *client.NotFoundError
		if errors.As(err, &nf) && nf.Resource == "" {
			nf.Resource = resource + " " + id
		}
		return nil, err
	}

	row := record.NewMapper(c).Map(raw)
	return &row, nil
}

func (s *Service) lookup(ctx context.Context, endpoint string, q url.Values) (map[string]any, error) {
	var raw map[string]any
	err := s.api.Retry(ctx, "lookup "+endpoint, func(ctx context.Context) error {
		raw = nil
		return s.api.GetJSON(ctx, endpoint, q, &raw)
	})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, &client.DecodeError{Endpoint: endpoint, Err: errors.New("expected a JSON object")}
	}
	return raw, nil
}
