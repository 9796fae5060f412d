package record

import (
	"emperror.dev/errors"
	"github.com/Sternrassler/gbif-client/pkg/catalog"
)

// Table is an ordered sequence of rows sharing one catalog.
type Table struct {
	catalog *catalog.Catalog
	rows    []Row

	// Count is the service-reported total matching the query, or -1 when the
	// service did not report one.
	Count int64
}

// NewTable maps raws with c, preserving order.
func NewTable(c *catalog.Catalog, raws []map[string]any) *Table {
	return &Table{
		catalog: c,
		rows:    NewMapper(c).MapAll(raws),
		Count:   -1,
	}
}

// Catalog returns the table's field catalog.
func (t *Table) Catalog() *catalog.Catalog { return t.catalog }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns the i-th row.
func (t *Table) Row(i int) Row { return t.rows[i] }

// Rows returns a copy of the rows slice.
func (t *Table) Rows() []Row { return append([]Row(nil), t.rows...) }

// Columns returns the column names in catalog order.
func (t *Table) Columns() []string { return t.catalog.Names() }

// Column returns one column's values in row order.
func (t *Table) Column(name string) ([]Value, error) {
	i := t.catalog.Index(name)
	if i < 0 {
		return nil, errors.Errorf("no column %q in %s table", name, t.catalog.Kind())
	}
	col := make([]Value, len(t.rows))
	for r, row := range t.rows {
		col[r] = row.At(i)
	}
	return col, nil
}
