package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	// The last transient cause is wrapped alongside it.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrRateLimited marks a 429 Too Many Requests response.
	ErrRateLimited = errors.New("rate limited by API")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrUnsupportedOutput is returned for an unknown OutputType.
	ErrUnsupportedOutput = errors.New("unsupported output type")

	// ErrUnsupportedMethod is returned by Run for an unknown HTTP method.
	ErrUnsupportedMethod = errors.New("unsupported HTTP method")
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors other than 429.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 rate limit responses.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// HTTPError is a non-2xx response. It is returned as-is for client and
// server errors, and wrapped in the exhausted-retries error for 429.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	ErrorClass ErrorClass
	Body       string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: %s error (status %d): %s",
		e.Method, e.URL, e.ErrorClass, e.StatusCode, e.Status)
}

// Unwrap lets errors.Is match ErrRateLimited for 429 responses.
func (e *HTTPError) Unwrap() error {
	if e.ErrorClass == ErrorClassRateLimit {
		return ErrRateLimited
	}
	return nil
}

// classifyStatus maps an HTTP status code to its error class. 2xx and 3xx
// codes return "".
func classifyStatus(status int) ErrorClass {
	switch {
	case status == 429:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		// 4xx and 5xx responses are final
		return false
	}
}
