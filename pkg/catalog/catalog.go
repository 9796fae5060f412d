// Package catalog declares the fixed field set exposed for each record kind.
//
// Every row produced for a kind carries exactly these fields in this order,
// whether or not the service returned them.
package catalog

import (
	"fmt"

	"emperror.dev/errors"
)

// Kind is the category of entity queried.
type Kind string

const (
	// KindSpecies covers taxa returned by the species endpoints.
	KindSpecies Kind = "species"

	// KindOccurrence covers observation records.
	KindOccurrence Kind = "occurrence"
)

// FieldType is the declared scalar or list type of a field.
type FieldType int

const (
	String FieldType = iota
	Int
	Float
	Bool
	StringList
)

// String implements fmt.Stringer.
func (t FieldType) String() string {
	switch t {
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case StringList:
		return "[]string"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// Field is one named, typed catalog entry.
type Field struct {
	Name string
	Type FieldType
}

// Catalog is the ordered field set of one record kind.
type Catalog struct {
	kind   Kind
	fields []Field
	index  map[string]int
}

func newCatalog(kind Kind, fields []Field) *Catalog {
	c := &Catalog{kind: kind, fields: fields, index: make(map[string]int, len(fields))}
	for i, f := range fields {
		if _, dup := c.index[f.Name]; dup {
			panic(fmt.Sprintf("catalog %s: duplicate field %q", kind, f.Name))
		}
		c.index[f.Name] = i
	}
	return c
}

// Kind returns the record kind.
func (c *Catalog) Kind() Kind { return c.kind }

// Len returns the number of fields.
func (c *Catalog) Len() int { return len(c.fields) }

// Fields returns a copy of the ordered fields.
func (c *Catalog) Fields() []Field {
	return append([]Field(nil), c.fields...)
}

// Field returns the i-th field.
func (c *Catalog) Field(i int) Field { return c.fields[i] }

// Names returns the field names in order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.fields))
	for i, f := range c.fields {
		names[i] = f.Name
	}
	return names
}

// Index returns the position of name, or -1.
func (c *Catalog) Index(name string) int {
	if i, ok := c.index[name]; ok {
		return i
	}
	return -1
}

// For returns the catalog of kind.
func For(kind Kind) (*Catalog, error) {
	switch kind {
	case KindSpecies:
		return Species, nil
	case KindOccurrence:
		return Occurrence, nil
	default:
		return nil, errors.Errorf("unknown record kind %q", kind)
	}
}
