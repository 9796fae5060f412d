package download

import (
	"fmt"
	"regexp"
	"strings"

	"emperror.dev/errors"
	"github.com/Sternrassler/gbif-client/pkg/enum"
)

// Predicate node types understood by the download service.
const (
	TypeAnd                 = "and"
	TypeOr                  = "or"
	TypeNot                 = "not"
	TypeEquals              = "equals"
	TypeIn                  = "in"
	TypeLessThan            = "lessThan"
	TypeLessThanOrEquals    = "lessThanOrEquals"
	TypeGreaterThan         = "greaterThan"
	TypeGreaterThanOrEquals = "greaterThanOrEquals"
	TypeLike                = "like"
	TypeWithin              = "within"
	TypeIsNull              = "isNull"
	TypeIsNotNull           = "isNotNull"
)

// Predicate is a node of the structured filter sent with a download request.
// Build trees with And, Or, Not and the leaf constructors.
type Predicate struct {
	Type       string      `json:"type"`
	Key        string      `json:"key,omitempty"`
	Value      string      `json:"value,omitempty"`
	Values     []string    `json:"values,omitempty"`
	Geometry   string      `json:"geometry,omitempty"`
	Parameter  string      `json:"parameter,omitempty"`
	Predicates []Predicate `json:"predicates,omitempty"`
	Predicate  *Predicate  `json:"predicate,omitempty"`
}

// And matches records satisfying every child.
func And(ps ...Predicate) Predicate { return Predicate{Type: TypeAnd, Predicates: ps} }

// Or matches records satisfying at least one child.
func Or(ps ...Predicate) Predicate { return Predicate{Type: TypeOr, Predicates: ps} }

// Not matches records that do not satisfy p.
func Not(p Predicate) Predicate { return Predicate{Type: TypeNot, Predicate: &p} }

// Equals matches records whose search key, such as TAXON_KEY or COUNTRY,
// has the given value.
func Equals(key, value string) Predicate { return Predicate{Type: TypeEquals, Key: key, Value: value} }

// In matches records whose key has any of the values.
func In(key string, values ...string) Predicate {
	return Predicate{Type: TypeIn, Key: key, Values: values}
}

// LessThan matches records whose key is below value.
func LessThan(key, value string) Predicate {
	return Predicate{Type: TypeLessThan, Key: key, Value: value}
}

// LessThanOrEquals matches records whose key is at most value.
func LessThanOrEquals(key, value string) Predicate {
	return Predicate{Type: TypeLessThanOrEquals, Key: key, Value: value}
}

// GreaterThan matches records whose key is above value.
func GreaterThan(key, value string) Predicate {
	return Predicate{Type: TypeGreaterThan, Key: key, Value: value}
}

// GreaterThanOrEquals matches records whose key is at least value.
func GreaterThanOrEquals(key, value string) Predicate {
	return Predicate{Type: TypeGreaterThanOrEquals, Key: key, Value: value}
}

// Like matches key against a pattern where ? stands for one character and
// * for any run of characters.
func Like(key, pattern string) Predicate { return Predicate{Type: TypeLike, Key: key, Value: pattern} }

// Within matches records located inside a WKT polygon.
func Within(wkt string) Predicate { return Predicate{Type: TypeWithin, Geometry: wkt} }

// IsNull matches records where the parameter is empty.
func IsNull(key string) Predicate { return Predicate{Type: TypeIsNull, Parameter: key} }

// IsNotNull matches records where the parameter is set.
func IsNotNull(key string) Predicate { return Predicate{Type: TypeIsNotNull, Parameter: key} }

// maxDepth bounds predicate nesting.
const maxDepth = 32

var searchKey = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// keyVocabularies ties predicate keys to enum vocabularies for value checks.
var keyVocabularies = map[string]string{
	"COUNTRY":            enum.Country,
	"PUBLISHING_COUNTRY": enum.Country,
	"CONTINENT":          enum.Continent,
	"GBIF_REGION":        enum.GbifRegion,
	"BASIS_OF_RECORD":    enum.BasisOfRecord,
	"OCCURRENCE_STATUS":  enum.OccurrenceStatus,
	"LICENSE":            enum.License,
	"MEDIA_TYPE":         enum.MediaType,
}

// Validate checks the predicate tree's structure. When v is non-nil, values
// of enum-backed keys are also checked against v.
func (p Predicate) Validate(v *enum.Validator) error {
	_, err := p.Normalize(v)
	return err
}

// Normalize validates the tree like Validate and returns a copy in which
// values of enum-backed keys carry their canonical spelling, so COUNTRY=de
// becomes COUNTRY=DE. The receiver is left untouched.
func (p Predicate) Normalize(v *enum.Validator) (Predicate, error) {
	return p.normalize("predicate", v, 0)
}

func (p Predicate) normalize(path string, v *enum.Validator, depth int) (Predicate, error) {
	fail := func(field, format string, args ...any) (Predicate, error) {
		at := path
		if field != "" {
			at += "." + field
		}
		return Predicate{}, &InvalidPredicateError{Path: at, Reason: fmt.Sprintf(format, args...)}
	}

	if depth > maxDepth {
		return fail("", "nesting deeper than %d levels", maxDepth)
	}

	switch p.Type {
	case TypeAnd, TypeOr:
		if len(p.Predicates) == 0 {
			return fail("predicates", "%q needs at least one child predicate", p.Type)
		}
		if p.Key != "" || p.Value != "" || len(p.Values) > 0 || p.Predicate != nil {
			return fail("", "%q only takes child predicates", p.Type)
		}
		children := make([]Predicate, len(p.Predicates))
		for i, child := range p.Predicates {
			n, err := child.normalize(fmt.Sprintf("%s.predicates[%d]", path, i), v, depth+1)
			if err != nil {
				return Predicate{}, err
			}
			children[i] = n
		}
		p.Predicates = children
		return p, nil

	case TypeNot:
		if p.Predicate == nil {
			return fail("predicate", `"not" needs a child predicate`)
		}
		child, err := p.Predicate.normalize(path+".predicate", v, depth+1)
		if err != nil {
			return Predicate{}, err
		}
		p.Predicate = &child
		return p, nil

	case TypeEquals, TypeLessThan, TypeLessThanOrEquals, TypeGreaterThan, TypeGreaterThanOrEquals, TypeLike:
		if err := checkKey(p.Key); err != nil {
			return fail("key", "%s", err)
		}
		if p.Value == "" {
			return fail("value", "%q needs a value", p.Type)
		}
		if len(p.Values) > 0 {
			return fail("values", "%q takes a single value", p.Type)
		}
		values, err := canonicalValues(path+".value", p.Key, []string{p.Value}, v)
		if err != nil {
			return Predicate{}, err
		}
		p.Value = values[0]
		return p, nil

	case TypeIn:
		if err := checkKey(p.Key); err != nil {
			return fail("key", "%s", err)
		}
		if len(p.Values) == 0 {
			return fail("values", `"in" needs at least one value`)
		}
		for i, value := range p.Values {
			if value == "" {
				return fail(fmt.Sprintf("values[%d]", i), "empty value")
			}
		}
		values, err := canonicalValues(path+".values", p.Key, p.Values, v)
		if err != nil {
			return Predicate{}, err
		}
		p.Values = values
		return p, nil

	case TypeWithin:
		g := strings.ToUpper(strings.TrimSpace(p.Geometry))
		if !strings.HasPrefix(g, "POLYGON") && !strings.HasPrefix(g, "MULTIPOLYGON") {
			return fail("geometry", "expected a WKT POLYGON or MULTIPOLYGON")
		}
		return p, nil

	case TypeIsNull, TypeIsNotNull:
		if err := checkKey(p.Parameter); err != nil {
			return fail("parameter", "%s", err)
		}
		return p, nil

	case "":
		return fail("type", "missing predicate type")
	}
	return fail("type", "unknown predicate type %q", p.Type)
}

func checkKey(key string) error {
	if key == "" {
		return errors.New("missing key")
	}
	if !searchKey.MatchString(key) {
		return errors.Errorf("key %q must be an upper-case search parameter such as TAXON_KEY", key)
	}
	return nil
}

// canonicalValues returns values in their canonical spelling when key is
// backed by a vocabulary, and a copy of values otherwise.
func canonicalValues(path, key string, values []string, v *enum.Validator) ([]string, error) {
	vocab, ok := keyVocabularies[key]
	if !ok || v == nil || !v.Has(vocab) {
		return append([]string(nil), values...), nil
	}
	canonical, err := v.Validate(vocab, values)
	if err != nil {
		return nil, &InvalidPredicateError{Path: path, Reason: err.Error(), Err: err}
	}
	return canonical.([]string), nil
}
