package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"emperror.dev/errors"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context ends during a retry wait.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrTransport is matched by every *TransportError.
	ErrTransport = errors.New("transport error")

	// ErrDecode is matched by every *DecodeError.
	ErrDecode = errors.New("decode error")

	// ErrNotFound is matched by every *NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrAuthentication is matched by every *AuthenticationError.
	ErrAuthentication = errors.New("authentication failed")
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors other than 429.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses and local cool-downs.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network and timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// bodyExcerptLimit caps the response body kept in a TransportError.
const bodyExcerptLimit = 512

// TransportError is a failed HTTP exchange: a network failure
// (StatusCode 0) or a non-2xx response.
type TransportError struct {
	StatusCode int
	Class      ErrorClass
	Endpoint   string
	Body       string // excerpt, at most 512 bytes
	Err        error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "GBIF %s error on %s", e.Class, e.Endpoint)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Body != "" {
		b.WriteString(": ")
		b.WriteString(e.Body)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// Retryable reports whether the failure is transient.
func (e *TransportError) Retryable() bool {
	return shouldRetry(e.Class)
}

// DecodeError reports a response body that is not the expected JSON shape.
type DecodeError struct {
	Endpoint string
	Err      error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response from %s: %v", e.Endpoint, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// NotFoundError reports a missing resource. When it comes from a 404 it wraps
// the underlying *TransportError.
type NotFoundError struct {
	Endpoint string
	Resource string
	Err      error
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s not found at %s", e.Resource, e.Endpoint)
	}
	return fmt.Sprintf("nothing found at %s", e.Endpoint)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AuthenticationError reports missing credentials or a 401/403 response.
type AuthenticationError struct {
	Endpoint string
	Reason   string
	Err      error
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	if e.Endpoint == "" {
		return "authentication: " + e.Reason
	}
	return fmt.Sprintf("authentication on %s: %s", e.Endpoint, e.Reason)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrAuthentication.
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

// classifyStatus maps an HTTP status to an ErrorClass. 2xx and 3xx map to "".
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// shouldRetry determines if an error class is transient.
func shouldRetry(class ErrorClass) bool {
	switch class {
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		// 4xx are caller mistakes and repeat identically
		return false
	}
}

// IsRetryable reports whether err is a transient transport failure.
// Decode errors, 4xx responses and cancellations are not retryable.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var te *TransportError
	if !errors.As(err, &te) {
		return false
	}
	return te.Retryable()
}

// statusError converts a non-2xx response into the matching typed error.
func statusError(endpoint string, status int, body []byte) error {
	te := &TransportError{
		StatusCode: status,
		Class:      classifyStatus(status),
		Endpoint:   endpoint,
		Body:       excerpt(body),
	}
	switch status {
	case http.StatusNotFound:
		return &NotFoundError{Endpoint: endpoint, Err: te}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthenticationError{Endpoint: endpoint, Reason: http.StatusText(status), Err: te}
	}
	return te
}

// excerpt trims body to bodyExcerptLimit bytes on a rune boundary.
func excerpt(body []byte) string {
	if len(body) <= bodyExcerptLimit {
		return strings.TrimSpace(string(body))
	}
	cut := bodyExcerptLimit - len("...")
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return strings.TrimSpace(string(body[:cut])) + "..."
}
