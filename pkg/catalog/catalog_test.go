package catalog

import "testing"

func TestFor(t *testing.T) {
	tests := []struct {
		kind    Kind
		want    *Catalog
		wantErr bool
	}{
		{KindSpecies, Species, false},
		{KindOccurrence, Occurrence, false},
		{Kind("dataset"), nil, true},
	}

	for _, tt := range tests {
		got, err := For(tt.kind)
		if (err != nil) != tt.wantErr {
			t.Errorf("For(%q) error = %v, wantErr %v", tt.kind, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("For(%q) returned wrong catalog", tt.kind)
		}
	}
}

func TestCatalog_Index(t *testing.T) {
	if Species.Index("kingdom") != 0 {
		t.Errorf("kingdom should be the first species field")
	}
	if Species.Index("missingField") != -1 {
		t.Errorf("unknown field should return -1")
	}
	i := Occurrence.Index("decimalLatitude")
	if i < 0 || Occurrence.Field(i).Type != Float {
		t.Errorf("decimalLatitude should be a float field")
	}
}

func TestCatalog_NamesMatchFields(t *testing.T) {
	for _, c := range []*Catalog{Species, Occurrence} {
		names := c.Names()
		if len(names) != c.Len() {
			t.Fatalf("%s: Names() len = %d, want %d", c.Kind(), len(names), c.Len())
		}
		for i, name := range names {
			if c.Index(name) != i {
				t.Errorf("%s: Index(%q) = %d, want %d", c.Kind(), name, c.Index(name), i)
			}
		}
	}
}

func TestNewCatalog_DuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("duplicate field names should panic")
		}
	}()
	newCatalog(KindSpecies, []Field{{"a", String}, {"a", Int}})
}

func TestFieldType_String(t *testing.T) {
	if StringList.String() != "[]string" || Float.String() != "float" {
		t.Error("unexpected FieldType names")
	}
}
