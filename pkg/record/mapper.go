package record

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/Sternrassler/gbif-client/pkg/catalog"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Mapper converts raw records into rows of one catalog.
type Mapper struct {
	catalog *catalog.Catalog
	logger  zerolog.Logger
}

// NewMapper returns a Mapper for c.
func NewMapper(c *catalog.Catalog) *Mapper {
	return &Mapper{
		catalog: c,
		logger:  log.With().Str("component", "record-mapper").Str("kind", string(c.Kind())).Logger(),
	}
}

// Map builds a row from raw. Fields absent from raw, null, or of a type that
// cannot represent the declared field type become Missing. Keys outside the
// catalog are ignored.
func (m *Mapper) Map(raw map[string]any) Row {
	values := make([]Value, m.catalog.Len())
	for i := 0; i < m.catalog.Len(); i++ {
		field := m.catalog.Field(i)
		rawValue, ok := raw[field.Name]
		if !ok || rawValue == nil {
			continue
		}
		v, ok := convert(field.Type, rawValue)
		if !ok {
			m.logger.Debug().
				Str("field", field.Name).
				Str("want", field.Type.String()).
				Interface("got", rawValue).
				Msg("Field type mismatch, treating as missing")
			continue
		}
		values[i] = v
	}
	return Row{catalog: m.catalog, values: values}
}

// MapAll maps records in order.
func (m *Mapper) MapAll(raws []map[string]any) []Row {
	rows := make([]Row, len(raws))
	for i, raw := range raws {
		rows[i] = m.Map(raw)
	}
	return rows
}

func convert(t catalog.FieldType, raw any) (Value, bool) {
	switch t {
	case catalog.String:
		switch v := raw.(type) {
		case string:
			return StringValue(v), true
		case json.Number:
			return StringValue(v.String()), true
		}
	case catalog.Int:
		switch v := raw.(type) {
		case json.Number:
			if i, err := v.Int64(); err == nil {
				return IntValue(i), true
			}
			if f, err := v.Float64(); err == nil {
				return intFromFloat(f)
			}
		case float64:
			return intFromFloat(v)
		case int:
			return IntValue(int64(v)), true
		case int64:
			return IntValue(v), true
		}
	case catalog.Float:
		switch v := raw.(type) {
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return FloatValue(f), true
			}
		case float64:
			return FloatValue(v), true
		case int:
			return FloatValue(float64(v)), true
		case int64:
			return FloatValue(float64(v)), true
		}
	case catalog.Bool:
		if v, ok := raw.(bool); ok {
			return BoolValue(v), true
		}
	case catalog.StringList:
		switch v := raw.(type) {
		case []string:
			return StringsValue(v), true
		case []any:
			list := make([]string, 0, len(v))
			for _, elem := range v {
				switch e := elem.(type) {
				case string:
					list = append(list, e)
				case json.Number:
					list = append(list, e.String())
				case float64:
					list = append(list, strconv.FormatFloat(e, 'f', -1, 64))
				default:
					return Missing, false
				}
			}
			return StringsValue(list), true
		}
	}
	return Missing, false
}

// intFromFloat accepts integral floats in [-2^63, 2^63). float64(MaxInt64)
// rounds up to 2^63, so the upper bound is exclusive.
func intFromFloat(f float64) (Value, bool) {
	if f != math.Trunc(f) || f >= 1<<63 || f < math.MinInt64 {
		return Missing, false
	}
	return IntValue(int64(f)), true
}
