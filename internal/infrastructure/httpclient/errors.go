package httpclient

import (
	"errors"
	"fmt"
)

// Kind classifies a failed backend call
type Kind string

const (
	KindConfiguration Kind = "ConfigurationError"
	KindTimeout       Kind = "Timeout"
	KindNetwork       Kind = "NetworkError"
	KindAuthRequired  Kind = "AuthenticationRequired"
	KindServer        Kind = "ServerError"
	KindClient        Kind = "ClientError"
)

// String returns the kind name
func (k Kind) String() string {
	return string(k)
}

// APIError is the single error type returned for transport and HTTP failures.
// Status is 0 for failures that never produced an HTTP response.
type APIError struct {
	Kind       Kind
	Message    string
	Status     int
	StatusText string
	// Attempts is the number of network attempts made before giving up
	Attempts int
	Err      error
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d %s): %s", e.Kind, e.Status, e.StatusText, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or "" when err is not an *APIError
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsAuthRequired reports whether err means the caller must log in again
func IsAuthRequired(err error) bool {
	return KindOf(err) == KindAuthRequired
}

// AsAPIError unwraps err to an *APIError
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

func configurationError(format string, args ...any) *APIError {
	return &APIError{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}
