// Package query turns named keyword filters into validated request parameters.
//
// Unknown keywords, wrongly typed values and out-of-vocabulary enum values are
// all rejected here, before any request is made.
package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"emperror.dev/errors"
	"github.com/Sternrassler/gbif-client/pkg/enum"
	"github.com/google/uuid"
)

// DefaultLimit is the service's page size when no limit is given.
const DefaultLimit = 20

// Range is an inclusive integer range such as a year span.
type Range struct {
	Low, High int
}

// FloatRange is an inclusive float range such as a latitude band.
type FloatRange struct {
	Low, High float64
}

// Params is a validated parameter set. Only Builder.Build creates one.
type Params struct {
	Endpoint *Endpoint

	// RequestedLimit is the total number of records the caller asked for. It
	// may exceed ServiceCap; the pagination layer makes up the difference.
	RequestedLimit int

	// PageLimit is RequestedLimit clamped to ServiceCap.
	PageLimit int

	// Offset is the first record to return.
	Offset int

	values url.Values
}

// Values returns the filter parameters, excluding limit and offset.
func (p *Params) Values() url.Values {
	out := make(url.Values, len(p.values))
	for k, v := range p.values {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Encode renders filters plus offset and page limit with sorted keys.
func (p *Params) Encode() string {
	v := p.Values()
	if p.Endpoint.Paginated {
		v.Set("limit", strconv.Itoa(p.PageLimit))
		v.Set("offset", strconv.Itoa(p.Offset))
	}
	return v.Encode()
}

// Builder validates filters against endpoint parameter specs.
type Builder struct {
	validator *enum.Validator
}

// NewBuilder returns a Builder using v for enum parameters.
func NewBuilder(v *enum.Validator) *Builder {
	if v == nil {
		v = enum.Default()
	}
	return &Builder{validator: v}
}

// Build validates filters for endpoint.
func (b *Builder) Build(e *Endpoint, filters map[string]any) (*Params, error) {
	p := &Params{
		Endpoint:       e,
		RequestedLimit: DefaultLimit,
		values:         make(url.Values),
	}

	// Sorted iteration keeps the first reported error deterministic.
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := filters[name]
		spec, ok := e.Param(name)
		if !ok {
			return nil, &UnknownParameterError{Endpoint: e.Name, Name: name, Known: e.ParamNames()}
		}

		switch name {
		case "limit":
			n, err := toInt(spec, value)
			if err != nil {
				return nil, err
			}
			if n < 0 {
				return nil, typeError(spec, value, "must be >= 0")
			}
			p.RequestedLimit = n
			continue
		case "offset":
			n, err := toInt(spec, value)
			if err != nil {
				return nil, err
			}
			if n < 0 {
				return nil, typeError(spec, value, "must be >= 0")
			}
			p.Offset = n
			continue
		}

		encoded, err := b.encode(spec, value)
		if err != nil {
			return nil, err
		}
		p.values[name] = encoded
	}

	p.PageLimit = p.RequestedLimit
	if p.PageLimit > ServiceCap {
		p.PageLimit = ServiceCap
	}
	return p, nil
}

func (b *Builder) encode(spec ParamSpec, value any) ([]string, error) {
	if spec.Multi {
		if list, ok := listOf(value); ok {
			if len(list) == 0 {
				return nil, typeError(spec, value, "empty list")
			}
			out := make([]string, 0, len(list))
			for _, elem := range list {
				enc, err := b.encodeOne(spec, elem)
				if err != nil {
					return nil, err
				}
				out = append(out, enc)
			}
			return out, nil
		}
	}
	enc, err := b.encodeOne(spec, value)
	if err != nil {
		return nil, err
	}
	return []string{enc}, nil
}

func (b *Builder) encodeOne(spec ParamSpec, value any) (string, error) {
	switch spec.Type {
	case TypeString:
		switch v := value.(type) {
		case string:
			return v, nil
		case fmt.Stringer:
			return v.String(), nil
		}
		return "", typeError(spec, value, "")

	case TypeInt:
		n, err := toInt(spec, value)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(n), nil

	case TypeBool:
		v, ok := value.(bool)
		if !ok {
			return "", typeError(spec, value, "")
		}
		return strconv.FormatBool(v), nil

	case TypeUUID:
		s, ok := value.(string)
		if !ok {
			if st, isStringer := value.(fmt.Stringer); isStringer {
				s, ok = st.String(), true
			}
		}
		if !ok {
			return "", typeError(spec, value, "")
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return "", typeError(spec, value, "not a valid uuid")
		}
		return id.String(), nil

	case TypeEnum:
		switch value.(type) {
		case string, fmt.Stringer:
		default:
			return "", typeError(spec, value, "")
		}
		canonical, err := b.validator.Validate(spec.Vocabulary, value)
		if err != nil {
			var enumErr *enum.InvalidEnumValueError
			if errors.As(err, &enumErr) && enumErr.Param != spec.Name {
				named := *enumErr
				named.Param = spec.Name
				return "", &named
			}
			return "", err
		}
		return canonical.(string), nil

	case TypeRange:
		return encodeRange(spec, value)

	case TypeFloatRange:
		return encodeFloatRange(spec, value)
	}
	return "", typeError(spec, value, "unsupported parameter type")
}

func encodeRange(spec ParamSpec, value any) (string, error) {
	var r Range
	switch v := value.(type) {
	case int, int32, int64:
		n, err := toInt(spec, v)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(n), nil
	case Range:
		r = v
	case [2]int:
		r = Range{v[0], v[1]}
	case []int:
		if len(v) != 2 {
			return "", typeError(spec, value, "range needs exactly two bounds")
		}
		r = Range{v[0], v[1]}
	default:
		return "", typeError(spec, value, "")
	}
	if r.Low > r.High {
		return "", typeError(spec, value, fmt.Sprintf("lower bound %d is greater than upper bound %d", r.Low, r.High))
	}
	return fmt.Sprintf("%d,%d", r.Low, r.High), nil
}

func encodeFloatRange(spec ParamSpec, value any) (string, error) {
	var r FloatRange
	switch v := value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case FloatRange:
		r = v
	case [2]float64:
		r = FloatRange{v[0], v[1]}
	case []float64:
		if len(v) != 2 {
			return "", typeError(spec, value, "range needs exactly two bounds")
		}
		r = FloatRange{v[0], v[1]}
	default:
		return "", typeError(spec, value, "")
	}
	if r.Low > r.High {
		return "", typeError(spec, value, fmt.Sprintf("lower bound %g is greater than upper bound %g", r.Low, r.High))
	}
	return strconv.FormatFloat(r.Low, 'f', -1, 64) + "," + strconv.FormatFloat(r.High, 'f', -1, 64), nil
}

func toInt(spec ParamSpec, value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	}
	return 0, typeError(spec, value, "")
}

// listOf flattens supported slice types into []any.
func listOf(value any) ([]any, bool) {
	switch v := value.(type) {
	case []string:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, true
	case []int:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, true
	case []int64:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, true
	case []any:
		return v, true
	}
	return nil, false
}
