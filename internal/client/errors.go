package client

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized marks a missing, invalid or rejected bearer token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMissingIdentifier is returned before any network call when an
	// identifier-scoped request has no identifier.
	ErrMissingIdentifier = errors.New("missing identifier")
	// ErrIncompleteAuth is returned when the backend answers a login
	// without both a token and a user.
	ErrIncompleteAuth = errors.New("incomplete auth response")
)

// RequestError describes a failed backend call.
type RequestError struct {
	Op         string
	StatusCode int
	Message    string // backend-provided message, if any
	Retryable  bool
	Err        error
}

func (e *RequestError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: http %d: %s", e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err came from a timeout, a transport failure
// or a 5xx response.
func IsRetryable(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.Retryable
}

// UserMessage returns the backend's message for err, or fallback.
func UserMessage(err error, fallback string) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Message != "" {
		return reqErr.Message
	}
	return fallback
}
