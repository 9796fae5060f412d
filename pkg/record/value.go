// Package record maps sparse service records onto fixed-shape rows.
//
// A Row always exposes every field of its catalog. Fields the service did not
// return hold the Missing marker, never a zero value.
package record

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Sternrassler/gbif-client/pkg/catalog"
)

// Value is a tagged optional field value. The zero Value is Missing.
type Value struct {
	typ     catalog.FieldType
	present bool
	s       string
	i       int64
	f       float64
	b       bool
	list    []string
}

// Missing marks a field absent from the source record.
var Missing = Value{}

// StringValue returns a present string value.
func StringValue(s string) Value { return Value{typ: catalog.String, present: true, s: s} }

// IntValue returns a present integer value.
func IntValue(i int64) Value { return Value{typ: catalog.Int, present: true, i: i} }

// FloatValue returns a present float value.
func FloatValue(f float64) Value { return Value{typ: catalog.Float, present: true, f: f} }

// BoolValue returns a present boolean value.
func BoolValue(b bool) Value { return Value{typ: catalog.Bool, present: true, b: b} }

// StringsValue returns a present list value. The slice is copied.
func StringsValue(list []string) Value {
	return Value{typ: catalog.StringList, present: true, list: append([]string{}, list...)}
}

// IsMissing reports whether v is the missing marker.
func (v Value) IsMissing() bool { return !v.present }

// Type returns the declared type of a present value.
func (v Value) Type() catalog.FieldType { return v.typ }

// AsString returns the string and whether v is a present string.
func (v Value) AsString() (string, bool) {
	return v.s, v.present && v.typ == catalog.String
}

// AsInt returns the integer and whether v is a present int.
func (v Value) AsInt() (int64, bool) {
	return v.i, v.present && v.typ == catalog.Int
}

// AsFloat returns the float and whether v is a present float.
func (v Value) AsFloat() (float64, bool) {
	return v.f, v.present && v.typ == catalog.Float
}

// AsBool returns the boolean and whether v is a present bool.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.present && v.typ == catalog.Bool
}

// AsStrings returns a copy of the list and whether v is a present list.
func (v Value) AsStrings() ([]string, bool) {
	if !v.present || v.typ != catalog.StringList {
		return nil, false
	}
	return append([]string{}, v.list...), true
}

// Interface returns the Go value, or nil when missing.
func (v Value) Interface() any {
	if !v.present {
		return nil
	}
	switch v.typ {
	case catalog.String:
		return v.s
	case catalog.Int:
		return v.i
	case catalog.Float:
		return v.f
	case catalog.Bool:
		return v.b
	case catalog.StringList:
		return append([]string{}, v.list...)
	}
	return nil
}

// String renders v for display; missing renders as "missing".
func (v Value) String() string {
	if !v.present {
		return "missing"
	}
	switch v.typ {
	case catalog.String:
		return v.s
	case catalog.Int:
		return strconv.FormatInt(v.i, 10)
	case catalog.Float:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case catalog.Bool:
		return strconv.FormatBool(v.b)
	case catalog.StringList:
		return "[" + strings.Join(v.list, ", ") + "]"
	}
	return ""
}

// Equal reports whether two values are identical, including missingness.
func (v Value) Equal(o Value) bool {
	if v.present != o.present {
		return false
	}
	if !v.present {
		return true
	}
	if v.typ != o.typ || v.s != o.s || v.i != o.i || v.f != o.f || v.b != o.b || len(v.list) != len(o.list) {
		return false
	}
	for i := range v.list {
		if v.list[i] != o.list[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes missing as null.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}
