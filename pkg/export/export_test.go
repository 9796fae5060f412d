package export

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/Sternrassler/gbif-client/pkg/catalog"
	"github.com/Sternrassler/gbif-client/pkg/record"
)

func occurrenceTable() *record.Table {
	return record.NewTable(catalog.Occurrence, []map[string]any{
		{
			"key":              json.Number("1258202889"),
			"decimalLatitude":  json.Number("52.5"),
			"decimalLongitude": json.Number("13.4"),
			"hasCoordinate":    true,
			"issues":           []any{"COORDINATE_ROUNDED", "GEODETIC_DATUM_ASSUMED_WGS84"},
			"scientificName":   "Passer domesticus (Linnaeus, 1758)",
		},
		{
			"key":            json.Number("42"),
			"scientificName": "Puma concolor, subsp.",
		},
	})
}

func TestWriteCSV(t *testing.T) {
	tbl := occurrenceTable()
	var buf bytes.Buffer
	if err := WriteCSV(&buf, tbl); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d CSV records, want header + 2 rows", len(records))
	}
	header := records[0]
	if len(header) != catalog.Occurrence.Len() {
		t.Fatalf("header has %d columns, want %d", len(header), catalog.Occurrence.Len())
	}

	col := func(row []string, name string) string {
		return row[catalog.Occurrence.Index(name)]
	}
	first, second := records[1], records[2]

	tests := []struct {
		row  []string
		name string
		want string
	}{
		{first, "key", "1258202889"},
		{first, "decimalLatitude", "52.5"},
		{first, "hasCoordinate", "true"},
		{first, "issues", "COORDINATE_ROUNDED|GEODETIC_DATUM_ASSUMED_WGS84"},
		{second, "scientificName", "Puma concolor, subsp."},
		{second, "decimalLatitude", ""},
		{second, "issues", ""},
	}
	for _, tt := range tests {
		if got := col(tt.row, tt.name); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestWriteCSV_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, record.NewTable(catalog.Species, nil)); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	records, _ := csv.NewReader(&buf).ReadAll()
	if len(records) != 1 {
		t.Errorf("empty table should produce only a header, got %d records", len(records))
	}
}

func TestSQLiteWriter(t *testing.T) {
	w, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer w.Close()
	ctx := context.Background()

	if err := w.WriteTable(ctx, "occurrences", occurrenceTable()); err != nil {
		t.Fatalf("WriteTable() error = %v", err)
	}

	var n int
	if err := w.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM occurrences`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("rows = %d, want 2", n)
	}

	var (
		key    int64
		lat    sql.NullFloat64
		hasCo  sql.NullInt64
		issues sql.NullString
	)
	row := w.DB().QueryRowContext(ctx, `SELECT "key", "decimalLatitude", "hasCoordinate", "issues" FROM occurrences WHERE "key" = ?`, 1258202889)
	if err := row.Scan(&key, &lat, &hasCo, &issues); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !lat.Valid || lat.Float64 != 52.5 || !hasCo.Valid || hasCo.Int64 != 1 {
		t.Errorf("lat = %+v, hasCoordinate = %+v", lat, hasCo)
	}
	var list []string
	if err := json.Unmarshal([]byte(issues.String), &list); err != nil || len(list) != 2 {
		t.Errorf("issues = %q", issues.String)
	}

	row = w.DB().QueryRowContext(ctx, `SELECT "decimalLatitude", "issues" FROM occurrences WHERE "key" = ?`, 42)
	if err := row.Scan(&lat, &issues); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if lat.Valid || issues.Valid {
		t.Error("missing values should be stored as NULL")
	}

	// Writing again replaces the table.
	if err := w.WriteTable(ctx, "occurrences", record.NewTable(catalog.Occurrence, nil)); err != nil {
		t.Fatalf("second WriteTable() error = %v", err)
	}
	w.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM occurrences`).Scan(&n)
	if n != 0 {
		t.Errorf("rows after rewrite = %d, want 0", n)
	}
}

func TestSQLiteWriter_InvalidTableName(t *testing.T) {
	w, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer w.Close()

	for _, name := range []string{"", "1abc", "drop table x;--", `a"b`} {
		if err := w.WriteTable(context.Background(), name, occurrenceTable()); err == nil {
			t.Errorf("WriteTable(%q) should fail", name)
		}
	}
}
