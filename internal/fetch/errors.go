package fetch

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind classifies a page fetch failure.
type ErrorKind string

const (
	// KindTimeout is a connect or read deadline expiring.
	KindTimeout ErrorKind = "timeout"

	// KindConnection is a transport-level failure (refused, reset, DNS).
	KindConnection ErrorKind = "connection"

	// KindHTTPStatus is a non-2xx response from the endpoint.
	KindHTTPStatus ErrorKind = "http_status"

	// KindInvalidResponse is a 2xx response whose body is unusable.
	KindInvalidResponse ErrorKind = "invalid_response"
)

// Error is the classified failure returned by FetchPage after the retry
// budget is exhausted or a terminal error is hit.
//
// Use errors.As to extract it and inspect Kind, StatusCode and Attempts.
type Error struct {
	Kind       ErrorKind
	StatusCode int // set when Kind == KindHTTPStatus
	Page       int
	Attempts   int
	Err        error

	// retryAfter is the raw Retry-After header from a 429/503 response,
	// consumed by the retry loop.
	retryAfter string
}

func (e *Error) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("fetch page %d: status %d after %d attempt(s)", e.Page, e.StatusCode, e.Attempts)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch page %d: %s after %d attempt(s): %v", e.Page, e.Kind, e.Attempts, e.Err)
	}
	return fmt.Sprintf("fetch page %d: %s after %d attempt(s)", e.Page, e.Kind, e.Attempts)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the failure is worth another attempt:
// timeouts, connection errors, 429 and 5xx statuses.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindConnection:
		return true
	case KindHTTPStatus:
		return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
	default:
		return false
	}
}

// classifyTransport maps a net/http transport error to an ErrorKind.
func classifyTransport(err error) ErrorKind {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return KindTimeout
	}
	return KindConnection
}
