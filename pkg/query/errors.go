package query

import (
	"fmt"
	"sort"
	"strings"

	"emperror.dev/errors"
)

var (
	// ErrUnknownParameter is matched by every *UnknownParameterError.
	ErrUnknownParameter = errors.New("unknown parameter")

	// ErrInvalidParameterType is matched by every *InvalidParameterTypeError.
	ErrInvalidParameterType = errors.New("invalid parameter type")
)

// UnknownParameterError reports a keyword the endpoint does not recognize.
type UnknownParameterError struct {
	Endpoint string
	Name     string
	Known    []string
}

// Error implements the error interface.
func (e *UnknownParameterError) Error() string {
	known := append([]string(nil), e.Known...)
	sort.Strings(known)
	return fmt.Sprintf("%s: unknown parameter %q (accepted: %s)", e.Endpoint, e.Name, strings.Join(known, ", "))
}

// Is reports whether target is ErrUnknownParameter.
func (e *UnknownParameterError) Is(target error) bool {
	return target == ErrUnknownParameter
}

// InvalidParameterTypeError reports a value of the wrong shape or range.
type InvalidParameterTypeError struct {
	Param  string
	Want   string
	Got    string
	Reason string
}

// Error implements the error interface.
func (e *InvalidParameterTypeError) Error() string {
	msg := fmt.Sprintf("parameter %s: want %s, got %s", e.Param, e.Want, e.Got)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is reports whether target is ErrInvalidParameterType.
func (e *InvalidParameterTypeError) Is(target error) bool {
	return target == ErrInvalidParameterType
}

func typeError(spec ParamSpec, value any, reason string) error {
	want := spec.Type.String()
	if spec.Multi {
		want += " or list of " + want
	}
	return &InvalidParameterTypeError{
		Param:  spec.Name,
		Want:   want,
		Got:    fmt.Sprintf("%T(%v)", value, value),
		Reason: reason,
	}
}
