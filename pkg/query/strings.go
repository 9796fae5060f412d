package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// FromStrings converts textual parameters, as they arrive from a command
// line or an HTTP query, into typed filters for Build. Ranges are written
// "low,high". Repeated values of a multi-valued parameter become a list.
func FromStrings(e *Endpoint, values url.Values) (map[string]any, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	filters := make(map[string]any, len(values))
	for _, name := range names {
		raw := values[name]
		spec, ok := e.Param(name)
		if !ok {
			return nil, &UnknownParameterError{Endpoint: e.Name, Name: name, Known: e.ParamNames()}
		}
		if len(raw) == 0 {
			continue
		}
		if len(raw) > 1 && !spec.Multi {
			return nil, &InvalidParameterTypeError{Param: name, Want: spec.Type.String(), Got: strings.Join(raw, ", "), Reason: "parameter takes a single value"}
		}

		parsed := make([]any, len(raw))
		for i, s := range raw {
			v, err := parseString(spec, s)
			if err != nil {
				return nil, err
			}
			parsed[i] = v
		}
		if len(parsed) == 1 {
			filters[name] = parsed[0]
		} else {
			filters[name] = parsed
		}
	}
	return filters, nil
}

func parseString(spec ParamSpec, s string) (any, error) {
	fail := func(reason string) error {
		return &InvalidParameterTypeError{Param: spec.Name, Want: spec.Type.String(), Got: strconv.Quote(s), Reason: reason}
	}

	switch spec.Type {
	case TypeInt:
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, fail("not an integer")
		}
		return n, nil

	case TypeBool:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return nil, fail("not a boolean")
		}
		return b, nil

	case TypeRange:
		low, high, isRange := strings.Cut(s, ",")
		lo, err := strconv.Atoi(strings.TrimSpace(low))
		if err != nil {
			return nil, fail("not an integer or integer range")
		}
		if !isRange {
			return lo, nil
		}
		hi, err := strconv.Atoi(strings.TrimSpace(high))
		if err != nil {
			return nil, fail("not an integer range")
		}
		return Range{Low: lo, High: hi}, nil

	case TypeFloatRange:
		low, high, isRange := strings.Cut(s, ",")
		lo, err := strconv.ParseFloat(strings.TrimSpace(low), 64)
		if err != nil {
			return nil, fail("not a number or number range")
		}
		if !isRange {
			return lo, nil
		}
		hi, err := strconv.ParseFloat(strings.TrimSpace(high), 64)
		if err != nil {
			return nil, fail("not a number range")
		}
		return FloatRange{Low: lo, High: hi}, nil
	}
	return s, nil
}
