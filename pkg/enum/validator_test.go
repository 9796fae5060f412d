package enum

import (
	"strings"
	"testing"

	"emperror.dev/errors"
)

type stringer string

func (s stringer) String() string { return string(s) }

func TestValidate_ValidValuesUnchanged(t *testing.T) {
	v := Default()

	for name, values := range DefaultVocabularies() {
		for _, value := range values {
			got, err := v.Validate(name, value)
			if err != nil {
				t.Fatalf("Validate(%q, %q) error = %v", name, value, err)
			}
			if got != value {
				t.Errorf("Validate(%q, %q) = %v, want unchanged", name, value, got)
			}
		}
	}
}

func TestValidate(t *testing.T) {
	v := Default()

	tests := []struct {
		name    string
		param   string
		value   any
		want    any
		wantErr bool
	}{
		{name: "exact rank", param: Rank, value: "SPECIES", want: "SPECIES"},
		{name: "lower-case rank is canonicalised", param: Rank, value: "species", want: "SPECIES"},
		{name: "stringer", param: Country, value: stringer("re"), want: "RE"},
		{name: "mixed case media type", param: MediaType, value: "stillimage", want: "StillImage"},
		{name: "result type keeps camel case", param: SpeciesResultType, value: "vernacularnames", want: "vernacularNames"},
		{name: "list", param: Country, value: []string{"RE", "mu"}, want: []string{"RE", "MU"}},
		{name: "unknown rank", param: Rank, value: "SPECIESS", wantErr: true},
		{name: "list with one bad element", param: Country, value: []string{"RE", "XX"}, wantErr: true},
		{name: "unsupported type", param: Habitat, value: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Validate(tt.param, tt.value)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidEnumValue) {
					t.Fatalf("expected ErrInvalidEnumValue, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			switch want := tt.want.(type) {
			case []string:
				list, ok := got.([]string)
				if !ok || strings.Join(list, ",") != strings.Join(want, ",") {
					t.Errorf("got %v, want %v", got, want)
				}
			default:
				if got != want {
					t.Errorf("got %v, want %v", got, want)
				}
			}
		})
	}
}

func TestValidate_ErrorListsAcceptedValues(t *testing.T) {
	v := Default()

	_, err := v.Validate(Habitat, "DESERT")
	var enumErr *InvalidEnumValueError
	if !errors.As(err, &enumErr) {
		t.Fatalf("expected *InvalidEnumValueError, got %T", err)
	}
	if enumErr.Param != Habitat || enumErr.Value != "DESERT" {
		t.Errorf("unexpected error fields: %+v", enumErr)
	}
	if enumErr.Total != 3 || len(enumErr.Accepted) != 3 {
		t.Errorf("expected the full habitat list, got %v (total %d)", enumErr.Accepted, enumErr.Total)
	}
	for _, want := range []string{"MARINE", "FRESHWATER", "TERRESTRIAL"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err.Error(), want)
		}
	}
}

func TestValidate_LargeVocabularyIsSampled(t *testing.T) {
	v := Default()

	_, err := v.Validate(Country, "QQ")
	var enumErr *InvalidEnumValueError
	if !errors.As(err, &enumErr) {
		t.Fatalf("expected *InvalidEnumValueError, got %v", err)
	}
	if len(enumErr.Accepted) != sampleSize {
		t.Errorf("sample size = %d, want %d", len(enumErr.Accepted), sampleSize)
	}
	if enumErr.Total != len(DefaultVocabularies()[Country]) {
		t.Errorf("Total = %d, want %d", enumErr.Total, len(DefaultVocabularies()[Country]))
	}
	if !strings.Contains(err.Error(), "values total") {
		t.Errorf("error should mention the total count: %s", err)
	}
}

func TestValidate_UnknownVocabulary(t *testing.T) {
	v := NewValidator(Vocabularies{"colour": {"RED"}})

	_, err := v.Validate("size", "XL")
	if !errors.Is(err, ErrUnknownVocabulary) {
		t.Fatalf("expected ErrUnknownVocabulary, got %v", err)
	}
	if !strings.Contains(err.Error(), "colour") {
		t.Errorf("error should list known vocabularies: %s", err)
	}
}

func TestNewValidator_CopiesInput(t *testing.T) {
	vocab := Vocabularies{"colour": {"RED"}}
	v := NewValidator(vocab)
	vocab["colour"][0] = "BLUE"

	if _, err := v.Validate("colour", "RED"); err != nil {
		t.Errorf("validator should not see caller mutations: %v", err)
	}
}

func TestAccepted(t *testing.T) {
	v := Default()

	got, err := v.Accepted(OccurrenceStatus)
	if err != nil {
		t.Fatalf("Accepted() error = %v", err)
	}
	if strings.Join(got, ",") != "PRESENT,ABSENT" {
		t.Errorf("Accepted() = %v", got)
	}

	if !v.Has(Rank) || v.Has("nope") {
		t.Error("Has() reports wrong membership")
	}
}
