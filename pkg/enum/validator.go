// Package enum checks query values against the service's controlled
// vocabularies before any request is sent.
//
// Vocabularies are static data injected at construction time. Refreshing them
// is an explicit operation: build a new Validator from a new Vocabularies map.
package enum

import (
	"fmt"
	"sort"
	"strings"

	"emperror.dev/errors"
)

// sampleSize bounds how many accepted values an error message lists.
const sampleSize = 20

var (
	// ErrInvalidEnumValue is matched by every *InvalidEnumValueError.
	ErrInvalidEnumValue = errors.New("invalid enum value")

	// ErrUnknownVocabulary is matched by every *UnknownVocabularyError.
	ErrUnknownVocabulary = errors.New("unknown vocabulary")
)

// InvalidEnumValueError reports a value that is not a member of a vocabulary.
type InvalidEnumValueError struct {
	Param    string
	Value    string
	Accepted []string // full list, or a sample when Total > len(Accepted)
	Total    int
}

// Error implements the error interface.
func (e *InvalidEnumValueError) Error() string {
	list := strings.Join(e.Accepted, ", ")
	if e.Total > len(e.Accepted) {
		list = fmt.Sprintf("%s, ... (%d values total)", list, e.Total)
	}
	return fmt.Sprintf("invalid value %q for %s: accepted values are [%s]", e.Value, e.Param, list)
}

// Is reports whether target is ErrInvalidEnumValue.
func (e *InvalidEnumValueError) Is(target error) bool {
	return target == ErrInvalidEnumValue
}

// UnknownVocabularyError is returned when no vocabulary exists for a parameter.
type UnknownVocabularyError struct {
	Param string
	Known []string
}

// Error implements the error interface.
func (e *UnknownVocabularyError) Error() string {
	return fmt.Sprintf("%s is not an enum parameter (known: %s)", e.Param, strings.Join(e.Known, ", "))
}

// Is reports whether target is ErrUnknownVocabulary.
func (e *UnknownVocabularyError) Is(target error) bool {
	return target == ErrUnknownVocabulary
}

// Validator performs membership checks. It is immutable and safe for
// concurrent use.
type Validator struct {
	vocab map[string]vocabulary
}

type vocabulary struct {
	values []string
	exact  map[string]struct{}
	folded map[string]string // lower-case -> canonical spelling
}

// NewValidator builds a Validator over the given vocabularies. The input map
// is copied.
func NewValidator(v Vocabularies) *Validator {
	val := &Validator{vocab: make(map[string]vocabulary, len(v))}
	for name, values := range v {
		voc := vocabulary{
			values: append([]string(nil), values...),
			exact:  make(map[string]struct{}, len(values)),
			folded: make(map[string]string, len(values)),
		}
		for _, value := range values {
			voc.exact[value] = struct{}{}
			if _, dup := voc.folded[strings.ToLower(value)]; !dup {
				voc.folded[strings.ToLower(value)] = value
			}
		}
		val.vocab[name] = voc
	}
	return val
}

// Default returns a Validator over DefaultVocabularies.
func Default() *Validator {
	return NewValidator(DefaultVocabularies())
}

// Has reports whether param has a vocabulary.
func (v *Validator) Has(param string) bool {
	_, ok := v.vocab[param]
	return ok
}

// Accepted lists the accepted values for param in documented order.
func (v *Validator) Accepted(param string) ([]string, error) {
	voc, ok := v.vocab[param]
	if !ok {
		return nil, v.unknown(param)
	}
	return append([]string(nil), voc.values...), nil
}

// Validate checks value against the vocabulary of param.
//
// value may be a string, a fmt.Stringer or a []string; list elements are
// checked independently. An exact member is returned unchanged; a member that
// only matches case-insensitively is returned in its canonical spelling.
func (v *Validator) Validate(param string, value any) (any, error) {
	voc, ok := v.vocab[param]
	if !ok {
		return nil, v.unknown(param)
	}

	switch val := value.(type) {
	case string:
		return v.one(param, voc, val)
	case fmt.Stringer:
		return v.one(param, voc, val.String())
	case []string:
		out := make([]string, len(val))
		for i, elem := range val {
			canonical, err := v.one(param, voc, elem)
			if err != nil {
				return nil, err
			}
			out[i] = canonical
		}
		return out, nil
	default:
		return nil, &InvalidEnumValueError{
			Param:    param,
			Value:    fmt.Sprintf("%v (%T)", value, value),
			Accepted: sample(voc.values),
			Total:    len(voc.values),
		}
	}
}

func (v *Validator) one(param string, voc vocabulary, value string) (string, error) {
	if _, ok := voc.exact[value]; ok {
		return value, nil
	}
	if canonical, ok := voc.folded[strings.ToLower(value)]; ok {
		return canonical, nil
	}
	return "", &InvalidEnumValueError{
		Param:    param,
		Value:    value,
		Accepted: sample(voc.values),
		Total:    len(voc.values),
	}
}

func (v *Validator) unknown(param string) error {
	known := make([]string, 0, len(v.vocab))
	for name := range v.vocab {
		known = append(known, name)
	}
	sort.Strings(known)
	return &UnknownVocabularyError{Param: param, Known: known}
}

func sample(values []string) []string {
	if len(values) <= sampleSize {
		return append([]string(nil), values...)
	}
	return append([]string(nil), values[:sampleSize]...)
}
