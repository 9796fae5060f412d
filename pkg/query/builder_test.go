package query

import (
	"testing"

	"emperror.dev/errors"
	"github.com/Sternrassler/gbif-client/pkg/enum"
)

func TestBuild_LimitClamping(t *testing.T) {
	b := NewBuilder(nil)

	tests := []struct {
		name          string
		filters       map[string]any
		wantRequested int
		wantPage      int
	}{
		{"default", nil, DefaultLimit, DefaultLimit},
		{"below cap", map[string]any{"limit": 50}, 50, 50},
		{"at cap", map[string]any{"limit": 300}, 300, 300},
		{"above cap", map[string]any{"limit": 500}, 500, 300},
		{"zero", map[string]any{"limit": 0}, 0, 0},
		{"int64", map[string]any{"limit": int64(1000)}, 1000, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := b.Build(SpeciesSearch, tt.filters)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if p.RequestedLimit != tt.wantRequested {
				t.Errorf("RequestedLimit = %d, want %d", p.RequestedLimit, tt.wantRequested)
			}
			if p.PageLimit != tt.wantPage {
				t.Errorf("PageLimit = %d, want %d", p.PageLimit, tt.wantPage)
			}
		})
	}
}

func TestBuild_Rejections(t *testing.T) {
	b := NewBuilder(nil)

	tests := []struct {
		name     string
		endpoint *Endpoint
		filters  map[string]any
		want     error
	}{
		{"unknown keyword", SpeciesSearch, map[string]any{"colour": "red"}, ErrUnknownParameter},
		{"limit on match", SpeciesMatch, map[string]any{"limit": 5}, ErrUnknownParameter},
		{"negative limit", SpeciesSearch, map[string]any{"limit": -1}, ErrInvalidParameterType},
		{"negative offset", OccurrenceSearch, map[string]any{"offset": -10}, ErrInvalidParameterType},
		{"string limit", SpeciesSearch, map[string]any{"limit": "10"}, ErrInvalidParameterType},
		{"bool as string", SpeciesSearch, map[string]any{"isExtinct": "yes"}, ErrInvalidParameterType},
		{"int param as string", OccurrenceSearch, map[string]any{"taxonKey": "212"}, ErrInvalidParameterType},
		{"inverted range", OccurrenceSearch, map[string]any{"year": Range{2020, 2000}}, ErrInvalidParameterType},
		{"short range slice", OccurrenceSearch, map[string]any{"year": []int{2000}}, ErrInvalidParameterType},
		{"inverted float range", OccurrenceSearch, map[string]any{"decimalLatitude": [2]float64{10, -10}}, ErrInvalidParameterType},
		{"bad uuid", SpeciesSearch, map[string]any{"datasetKey": "not-a-uuid"}, ErrInvalidParameterType},
		{"enum of wrong type", SpeciesSearch, map[string]any{"rank": 7}, ErrInvalidParameterType},
		{"empty list", SpeciesSearch, map[string]any{"rank": []string{}}, ErrInvalidParameterType},
		{"bad enum", SpeciesSearch, map[string]any{"rank": "SPECIE"}, enum.ErrInvalidEnumValue},
		{"bad enum in list", SpeciesSearch, map[string]any{"rank": []string{"GENUS", "NOPE"}}, enum.ErrInvalidEnumValue},
		{"list on single-valued param", SpeciesSearch, map[string]any{"q": []string{"a", "b"}}, ErrInvalidParameterType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := b.Build(tt.endpoint, tt.filters)
			if err == nil {
				t.Fatalf("Build() = %v, want error", p)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Build() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBuild_EnumErrorNamesParameter(t *testing.T) {
	b := NewBuilder(nil)

	_, err := b.Build(OccurrenceSearch, map[string]any{"publishingCountry": "XX"})
	var enumErr *enum.InvalidEnumValueError
	if !errors.As(err, &enumErr) {
		t.Fatalf("error = %v, want *enum.InvalidEnumValueError", err)
	}
	if enumErr.Param != "publishingCountry" {
		t.Errorf("Param = %q, want publishingCountry", enumErr.Param)
	}
	if len(enumErr.Accepted) == 0 {
		t.Error("accepted values should be reported")
	}
}

func TestBuild_UnknownParameterListsAccepted(t *testing.T) {
	_, err := NewBuilder(nil).Build(SpeciesMatch, map[string]any{"q": "Puma"})
	var unknown *UnknownParameterError
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want *UnknownParameterError", err)
	}
	if unknown.Name != "q" || unknown.Endpoint != "species_match" {
		t.Errorf("unexpected error fields: %+v", unknown)
	}
	if len(unknown.Known) != len(SpeciesMatch.ParamNames()) {
		t.Errorf("Known has %d names, want %d", len(unknown.Known), len(SpeciesMatch.ParamNames()))
	}
}

func TestBuild_Encoding(t *testing.T) {
	b := NewBuilder(nil)

	p, err := b.Build(OccurrenceSearch, map[string]any{
		"taxonKey":        []int{212, 359},
		"country":         "de",
		"year":            Range{2000, 2020},
		"month":           5,
		"decimalLatitude": FloatRange{-10.5, 10},
		"hasCoordinate":   true,
		"datasetKey":      "50C9509D-22C7-4A22-A47D-8C48425EF4A7",
		"limit":           700,
		"offset":          40,
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	v := p.Values()
	checks := map[string]string{
		"country":         "DE",
		"year":            "2000,2020",
		"month":           "5",
		"decimalLatitude": "-10.5,10",
		"hasCoordinate":   "true",
		"datasetKey":      "50c9509d-22c7-4a22-a47d-8c48425ef4a7",
	}
	for k, want := range checks {
		if got := v.Get(k); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}
	if got := v["taxonKey"]; len(got) != 2 || got[0] != "212" || got[1] != "359" {
		t.Errorf("taxonKey = %v", got)
	}
	if v.Has("limit") || v.Has("offset") {
		t.Error("Values() should not carry limit or offset")
	}
	if p.Offset != 40 || p.PageLimit != 300 || p.RequestedLimit != 700 {
		t.Errorf("paging = offset %d page %d requested %d", p.Offset, p.PageLimit, p.RequestedLimit)
	}
}

func TestParams_EncodeDeterministic(t *testing.T) {
	b := NewBuilder(nil)
	filters := map[string]any{"q": "Puma", "rank": "SPECIES", "limit": 10, "offset": 5}

	first, err := b.Build(SpeciesSearch, filters)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		again, _ := b.Build(SpeciesSearch, filters)
		if again.Encode() != first.Encode() {
			t.Fatalf("Encode() not deterministic: %q vs %q", again.Encode(), first.Encode())
		}
	}
	if want := "limit=10&offset=5&q=Puma&rank=SPECIES"; first.Encode() != want {
		t.Errorf("Encode() = %q, want %q", first.Encode(), want)
	}

	match, err := b.Build(SpeciesMatch, map[string]any{"name": "Puma concolor"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := match.Encode(); got != "name=Puma+concolor" {
		t.Errorf("non-paginated Encode() = %q", got)
	}
}

func TestBuild_ValuesIsCopy(t *testing.T) {
	p, err := NewBuilder(nil).Build(SpeciesSearch, map[string]any{"q": "Puma"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	v := p.Values()
	v.Set("q", "changed")
	if p.Values().Get("q") != "Puma" {
		t.Error("Values() should return a copy")
	}
}
