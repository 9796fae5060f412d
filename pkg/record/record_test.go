package record

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/Sternrassler/gbif-client/pkg/catalog"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return m
}

func TestMapper_EveryCatalogFieldPresent(t *testing.T) {
	for _, c := range []*catalog.Catalog{catalog.Species, catalog.Occurrence} {
		row := NewMapper(c).Map(map[string]any{})
		if row.Len() != c.Len() {
			t.Errorf("%s: row len = %d, want %d", c.Kind(), row.Len(), c.Len())
		}
		for i := 0; i < row.Len(); i++ {
			if !row.At(i).IsMissing() {
				t.Errorf("%s: field %s should be missing", c.Kind(), c.Field(i).Name)
			}
		}
	}
}

func TestMapper_Species(t *testing.T) {
	raw := decode(t, `{
		"key": 2486791,
		"kingdom": "Animalia",
		"synonym": true,
		"vernacularName": null,
		"nomenclaturalStatus": ["LEGITIMATE"],
		"confidence": 98.0,
		"unknownField": "ignored"
	}`)

	row := NewMapper(catalog.Species).Map(raw)

	if v, _ := row.Get("key"); v.String() != "2486791" {
		t.Errorf("key = %s", v)
	}
	if k, ok := row.Get("key"); !ok {
		t.Error("key should be a catalog field")
	} else if i, ok := k.AsInt(); !ok || i != 2486791 {
		t.Errorf("key AsInt = %d, %v", i, ok)
	}
	if v, _ := row.Get("kingdom"); v.String() != "Animalia" {
		t.Errorf("kingdom = %s", v)
	}
	if v, _ := row.Get("synonym"); v.String() != "true" {
		t.Errorf("synonym = %s", v)
	}
	if v, _ := row.Get("vernacularName"); !v.IsMissing() {
		t.Errorf("null vernacularName should be missing, got %s", v)
	}
	if v, _ := row.Get("phylum"); !v.IsMissing() {
		t.Errorf("absent phylum should be missing, got %s", v)
	}
	if v, _ := row.Get("confidence"); v.String() != "98" {
		t.Errorf("integral float should map to int, got %s", v)
	}
	if list, ok := mustGet(t, row, "nomenclaturalStatus").AsStrings(); !ok || len(list) != 1 || list[0] != "LEGITIMATE" {
		t.Errorf("nomenclaturalStatus = %v", list)
	}
	if _, ok := row.Get("unknownField"); ok {
		t.Error("fields outside the catalog should not be exposed")
	}
}

func TestMapper_TypeMismatchIsMissing(t *testing.T) {
	raw := decode(t, `{"decimalLatitude": "north", "year": 2020.5, "hasCoordinate": "yes", "issues": [1, {"a": 1}]}`)
	row := NewMapper(catalog.Occurrence).Map(raw)

	for _, name := range []string{"decimalLatitude", "year", "hasCoordinate", "issues"} {
		if v, _ := row.Get(name); !v.IsMissing() {
			t.Errorf("%s should be missing on type mismatch, got %s", name, v)
		}
	}
}

func TestMapper_Occurrence(t *testing.T) {
	raw := decode(t, `{"key": 1, "decimalLongitude": 55.5085, "decimalLatitude": -21, "year": 2020, "mediaType": ["StillImage"]}`)
	row := NewMapper(catalog.Occurrence).Map(raw)

	lon, ok := mustGet(t, row, "decimalLongitude").AsFloat()
	if !ok || lon != 55.5085 {
		t.Errorf("decimalLongitude = %v, %v", lon, ok)
	}
	lat, ok := mustGet(t, row, "decimalLatitude").AsFloat()
	if !ok || lat != -21 {
		t.Errorf("integral latitude should still be a float, got %v, %v", lat, ok)
	}
	if y, ok := mustGet(t, row, "year").AsInt(); !ok || y != 2020 {
		t.Errorf("year = %v, %v", y, ok)
	}
}

func TestRow_Immutable(t *testing.T) {
	raw := map[string]any{"issues": []any{"A"}}
	row := NewMapper(catalog.Species).Map(raw)

	list, _ := mustGet(t, row, "issues").AsStrings()
	list[0] = "B"
	raw["issues"] = []any{"C"}

	again, _ := mustGet(t, row, "issues").AsStrings()
	if again[0] != "A" {
		t.Errorf("row was mutated through an accessor or source map: %v", again)
	}

	values := row.Values()
	values[0] = StringValue("changed")
	if !row.At(0).IsMissing() {
		t.Error("Values() should return a copy")
	}
}

func TestRow_MarshalJSON(t *testing.T) {
	row := NewMapper(catalog.Species).Map(map[string]any{"kingdom": "Plantae"})

	data, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	s := string(data)
	if !strings.HasPrefix(s, `{"kingdom":"Plantae","phylum":null`) {
		t.Errorf("unexpected JSON prefix: %s", s[:60])
	}

	var back map[string]any
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(back) != catalog.Species.Len() {
		t.Errorf("JSON has %d keys, want %d", len(back), catalog.Species.Len())
	}
}

func TestValue(t *testing.T) {
	if !Missing.IsMissing() || Missing.String() != "missing" || Missing.Interface() != nil {
		t.Error("Missing marker misbehaves")
	}
	if StringValue("").IsMissing() {
		t.Error("an empty string is a present value")
	}
	if _, ok := IntValue(1).AsString(); ok {
		t.Error("AsString on an int should fail")
	}
	if !StringsValue([]string{"a"}).Equal(StringsValue([]string{"a"})) {
		t.Error("equal lists should compare equal")
	}
	if IntValue(0).Equal(Missing) {
		t.Error("zero is not missing")
	}
}

func TestTable(t *testing.T) {
	raws := []map[string]any{
		{"key": json.Number("1"), "kingdom": "Animalia"},
		{"key": json.Number("2")},
		{"key": json.Number("3"), "kingdom": "Plantae"},
	}
	tbl := NewTable(catalog.Species, raws)

	if tbl.Len() != 3 {
		t.Fatalf("Len() = %d", tbl.Len())
	}
	if tbl.Count != -1 {
		t.Errorf("Count should default to -1")
	}
	col, err := tbl.Column("kingdom")
	if err != nil {
		t.Fatalf("Column() error = %v", err)
	}
	got := []string{col[0].String(), col[1].String(), col[2].String()}
	if strings.Join(got, ",") != "Animalia,missing,Plantae" {
		t.Errorf("kingdom column = %v", got)
	}
	if _, err := tbl.Column("nope"); err == nil {
		t.Error("unknown column should fail")
	}
	if len(tbl.Columns()) != catalog.Species.Len() {
		t.Error("Columns() should list every catalog field")
	}
}

func TestIntFromFloat_Bounds(t *testing.T) {
	tests := []struct {
		name   string
		in     float64
		want   int64
		wantOK bool
	}{
		{"integral", 2020, 2020, true},
		{"fractional", 2020.5, 0, false},
		{"min int64", math.MinInt64, math.MinInt64, true},
		{"largest below 2^63", math.Nextafter(1<<63, 0), 1<<63 - 1024, true},
		{"2^63", 1 << 63, 0, false},
		{"above 2^63", 1e19, 0, false},
		{"below min", -1e19, 0, false},
		{"inf", math.Inf(1), 0, false},
		{"nan", math.NaN(), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := intFromFloat(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("intFromFloat(%g) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if !ok {
				if !v.IsMissing() {
					t.Errorf("rejected value should be missing, got %s", v)
				}
				return
			}
			if got, _ := v.AsInt(); got != tt.want {
				t.Errorf("intFromFloat(%g) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}

	raw := decode(t, `{"key": 9223372036854775808}`)
	if v, _ := NewMapper(catalog.Species).Map(raw).Get("key"); !v.IsMissing() {
		t.Errorf("2^63 key should be missing, got %s", v)
	}
}

func mustGet(t *testing.T, row Row, name string) Value {
	t.Helper()
	v, ok := row.Get(name)
	if !ok {
		t.Fatalf("field %s not in catalog", name)
	}
	return v
}
