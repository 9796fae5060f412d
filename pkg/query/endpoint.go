package query

import (
	"github.com/Sternrassler/gbif-client/pkg/catalog"
	"github.com/Sternrassler/gbif-client/pkg/enum"
)

// ServiceCap is the maximum number of records the service returns per request.
const ServiceCap = 300

// ParamType is the accepted shape of a query parameter.
type ParamType int

const (
	TypeString ParamType = iota
	TypeInt
	TypeBool
	TypeEnum
	TypeRange
	TypeUUID
	TypeFloatRange
)

// String implements fmt.Stringer.
func (t ParamType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	case TypeEnum:
		return "enum"
	case TypeRange:
		return "int range"
	case TypeUUID:
		return "uuid"
	case TypeFloatRange:
		return "float range"
	}
	return "unknown"
}

// ParamSpec declares one recognized parameter.
type ParamSpec struct {
	Name       string
	Type       ParamType
	Vocabulary string // enum vocabulary name, for TypeEnum
	Multi      bool   // accepts a list of values
}

// Endpoint is a queryable service path with its parameter set.
type Endpoint struct {
	Name      string
	Path      string
	Kind      catalog.Kind
	Paginated bool
	params    map[string]ParamSpec
}

// Param returns the spec of name.
func (e *Endpoint) Param(name string) (ParamSpec, bool) {
	p, ok := e.params[name]
	return p, ok
}

// ParamNames returns the recognized parameter names (unordered).
func (e *Endpoint) ParamNames() []string {
	names := make([]string, 0, len(e.params))
	for name := range e.params {
		names = append(names, name)
	}
	return names
}

func newEndpoint(name, path string, kind catalog.Kind, paginated bool, specs ...ParamSpec) *Endpoint {
	e := &Endpoint{Name: name, Path: path, Kind: kind, Paginated: paginated, params: make(map[string]ParamSpec)}
	if paginated {
		specs = append(specs, ParamSpec{Name: "limit", Type: TypeInt}, ParamSpec{Name: "offset", Type: TypeInt})
	}
	for _, s := range specs {
		e.params[s.Name] = s
	}
	return e
}

var classification = []ParamSpec{
	{Name: "kingdom", Type: TypeString},
	{Name: "phylum", Type: TypeString},
	{Name: "class", Type: TypeString},
	{Name: "order", Type: TypeString},
	{Name: "family", Type: TypeString},
	{Name: "genus", Type: TypeString},
}

func with(base []ParamSpec, extra ...ParamSpec) []ParamSpec {
	return append(append([]ParamSpec(nil), base...), extra...)
}

// SpeciesSearch is the full-text species search endpoint.
var SpeciesSearch = newEndpoint("species_search", "/species/search", catalog.KindSpecies, true,
	with(classification,
		ParamSpec{Name: "q", Type: TypeString},
		ParamSpec{Name: "datasetKey", Type: TypeUUID, Multi: true},
		ParamSpec{Name: "constituentKey", Type: TypeUUID},
		ParamSpec{Name: "rank", Type: TypeEnum, Vocabulary: enum.Rank, Multi: true},
		ParamSpec{Name: "highertaxonKey", Type: TypeInt, Multi: true},
		ParamSpec{Name: "status", Type: TypeEnum, Vocabulary: enum.TaxonomicStatus, Multi: true},
		ParamSpec{Name: "isExtinct", Type: TypeBool},
		ParamSpec{Name: "habitat", Type: TypeEnum, Vocabulary: enum.Habitat, Multi: true},
		ParamSpec{Name: "threat", Type: TypeEnum, Vocabulary: enum.ThreatStatus, Multi: true},
		ParamSpec{Name: "nameType", Type: TypeEnum, Vocabulary: enum.NameType, Multi: true},
		ParamSpec{Name: "nomenclaturalStatus", Type: TypeEnum, Vocabulary: enum.NomenclaturalStatus, Multi: true},
		ParamSpec{Name: "issue", Type: TypeString, Multi: true},
		ParamSpec{Name: "language", Type: TypeEnum, Vocabulary: enum.Language},
		ParamSpec{Name: "sourceId", Type: TypeString},
		ParamSpec{Name: "strict", Type: TypeBool},
		ParamSpec{Name: "verbose", Type: TypeBool},
		ParamSpec{Name: "hl", Type: TypeBool},
		ParamSpec{Name: "facet", Type: TypeEnum, Vocabulary: enum.SpeciesFacet, Multi: true},
		ParamSpec{Name: "facetMincount", Type: TypeInt},
		ParamSpec{Name: "facetMultiselect", Type: TypeBool},
	)...)

// SpeciesList lists name usages matching exact filters.
var SpeciesList = newEndpoint("species_list", "/species", catalog.KindSpecies, true,
	ParamSpec{Name: "name", Type: TypeString},
	ParamSpec{Name: "language", Type: TypeEnum, Vocabulary: enum.Language},
	ParamSpec{Name: "datasetKey", Type: TypeUUID, Multi: true},
	ParamSpec{Name: "sourceId", Type: TypeString},
)

// SpeciesMatch is the fuzzy single-result name matcher. It is not paginated.
var SpeciesMatch = newEndpoint("species_match", "/species/match", catalog.KindSpecies, false,
	with(classification,
		ParamSpec{Name: "name", Type: TypeString},
		ParamSpec{Name: "rank", Type: TypeEnum, Vocabulary: enum.Rank},
		ParamSpec{Name: "strict", Type: TypeBool},
		ParamSpec{Name: "verbose", Type: TypeBool},
	)...)

// OccurrenceSearch is the occurrence search endpoint.
var OccurrenceSearch = newEndpoint("occurrence_search", "/occurrence/search", catalog.KindOccurrence, true,
	ParamSpec{Name: "q", Type: TypeString},
	ParamSpec{Name: "taxonKey", Type: TypeInt, Multi: true},
	ParamSpec{Name: "acceptedTaxonKey", Type: TypeInt, Multi: true},
	ParamSpec{Name: "kingdomKey", Type: TypeInt, Multi: true},
	ParamSpec{Name: "speciesKey", Type: TypeInt, Multi: true},
	ParamSpec{Name: "scientificName", Type: TypeString, Multi: true},
	ParamSpec{Name: "datasetKey", Type: TypeUUID, Multi: true},
	ParamSpec{Name: "publishingOrg", Type: TypeUUID, Multi: true},
	ParamSpec{Name: "country", Type: TypeEnum, Vocabulary: enum.Country, Multi: true},
	ParamSpec{Name: "publishingCountry", Type: TypeEnum, Vocabulary: enum.Country, Multi: true},
	ParamSpec{Name: "continent", Type: TypeEnum, Vocabulary: enum.Continent, Multi: true},
	ParamSpec{Name: "gbifRegion", Type: TypeEnum, Vocabulary: enum.GbifRegion, Multi: true},
	ParamSpec{Name: "basisOfRecord", Type: TypeEnum, Vocabulary: enum.BasisOfRecord, Multi: true},
	ParamSpec{Name: "occurrenceStatus", Type: TypeEnum, Vocabulary: enum.OccurrenceStatus},
	ParamSpec{Name: "license", Type: TypeEnum, Vocabulary: enum.License, Multi: true},
	ParamSpec{Name: "mediaType", Type: TypeEnum, Vocabulary: enum.MediaType, Multi: true},
	ParamSpec{Name: "year", Type: TypeRange},
	ParamSpec{Name: "month", Type: TypeRange},
	ParamSpec{Name: "decimalLatitude", Type: TypeFloatRange},
	ParamSpec{Name: "decimalLongitude", Type: TypeFloatRange},
	ParamSpec{Name: "elevation", Type: TypeFloatRange},
	ParamSpec{Name: "depth", Type: TypeFloatRange},
	ParamSpec{Name: "eventDate", Type: TypeString},
	ParamSpec{Name: "geometry", Type: TypeString},
	ParamSpec{Name: "hasCoordinate", Type: TypeBool},
	ParamSpec{Name: "hasGeospatialIssue", Type: TypeBool},
	ParamSpec{Name: "issue", Type: TypeString, Multi: true},
	ParamSpec{Name: "recordedBy", Type: TypeString, Multi: true},
	ParamSpec{Name: "institutionCode", Type: TypeString, Multi: true},
	ParamSpec{Name: "catalogNumber", Type: TypeString, Multi: true},
)
