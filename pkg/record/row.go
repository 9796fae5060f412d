package record

import (
	"bytes"
	"encoding/json"

	"github.com/Sternrassler/gbif-client/pkg/catalog"
)

// Row is the fixed-shape view of one record. It is immutable.
type Row struct {
	catalog *catalog.Catalog
	values  []Value
}

// Catalog returns the row's field catalog.
func (r Row) Catalog() *catalog.Catalog { return r.catalog }

// Kind returns the record kind.
func (r Row) Kind() catalog.Kind { return r.catalog.Kind() }

// Len returns the number of fields, which always equals the catalog length.
func (r Row) Len() int { return len(r.values) }

// At returns the i-th value in catalog order.
func (r Row) At(i int) Value { return r.values[i] }

// Get returns the value of field name. ok is false for names outside the
// catalog; a catalog field that was absent yields Missing with ok true.
func (r Row) Get(name string) (Value, bool) {
	i := r.catalog.Index(name)
	if i < 0 {
		return Missing, false
	}
	return r.values[i], true
}

// Values returns a copy of the values in catalog order.
func (r Row) Values() []Value {
	return append([]Value(nil), r.values...)
}

// Map returns field name to Go value, with nil for missing fields.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for i, v := range r.values {
		m[r.catalog.Field(i).Name] = v.Interface()
	}
	return m
}

// MarshalJSON encodes the row as an object in catalog order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range r.values {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(r.catalog.Field(i).Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		val, err := v.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
