// Package export writes record tables to CSV streams and SQLite databases.
// Missing values become empty CSV cells and SQL NULLs.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"emperror.dev/errors"
	"github.com/Sternrassler/gbif-client/pkg/catalog"
	"github.com/Sternrassler/gbif-client/pkg/record"
)

// ListSeparator joins string list values in CSV cells.
const ListSeparator = "|"

// WriteCSV writes tbl with a header row of catalog field names.
func WriteCSV(w io.Writer, tbl *record.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tbl.Columns()); err != nil {
		return errors.Wrap(err, "write csv header")
	}

	cells := make([]string, tbl.Catalog().Len())
	for r := 0; r < tbl.Len(); r++ {
		row := tbl.Row(r)
		for i := range cells {
			cells[i] = cell(row.At(i))
		}
		if err := cw.Write(cells); err != nil {
			return errors.Wrapf(err, "write csv row %d", r)
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

func cell(v record.Value) string {
	if v.IsMissing() {
		return ""
	}
	switch v.Type() {
	case catalog.StringList:
		list, _ := v.AsStrings()
		return strings.Join(list, ListSeparator)
	case catalog.Float:
		f, _ := v.AsFloat()
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return v.String()
}
