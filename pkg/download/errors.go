package download

import (
	"fmt"
	"time"

	"emperror.dev/errors"
)

var (
	// ErrInvalidPredicate is matched by every *InvalidPredicateError.
	ErrInvalidPredicate = errors.New("invalid predicate")

	// ErrTimeout is matched by every *TimeoutError.
	ErrTimeout = errors.New("download await timed out")

	// ErrInvalidTransition is matched by every *InvalidTransitionError.
	ErrInvalidTransition = errors.New("invalid download transition")
)

// InvalidPredicateError reports a malformed predicate node. Path locates the
// node, e.g. "predicate.predicates[1].value".
type InvalidPredicateError struct {
	Path   string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *InvalidPredicateError) Error() string {
	return fmt.Sprintf("invalid predicate at %s: %s", e.Path, e.Reason)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *InvalidPredicateError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrInvalidPredicate.
func (e *InvalidPredicateError) Is(target error) bool {
	return target == ErrInvalidPredicate
}

// TimeoutError is returned when a job is still not terminal after the await
// timeout. The job keeps running on the server.
type TimeoutError struct {
	Key        string
	LastStatus Status
	After      time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("download %s still %s after %s", e.Key, e.LastStatus, e.After)
}

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// InvalidTransitionError is returned when an operation does not apply to the
// job's current status. The job is left unchanged.
type InvalidTransitionError struct {
	Key  string
	Op   string
	From Status
	To   Status
}

// Error implements the error interface.
func (e *InvalidTransitionError) Error() string {
	if e.To != "" {
		return fmt.Sprintf("download %s: cannot %s (%s -> %s)", e.Key, e.Op, e.From, e.To)
	}
	return fmt.Sprintf("download %s: cannot %s a %s job", e.Key, e.Op, e.From)
}

// Is reports whether target is ErrInvalidTransition.
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
