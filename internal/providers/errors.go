package providers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

var (
	// ErrNoAPIKey is returned when neither the request nor the config
	// supplies a key.
	ErrNoAPIKey = errors.New("no API key configured")

	// ErrAuthentication is returned on 401/403 from the upstream API.
	ErrAuthentication = errors.New("authentication failed")

	// ErrTimeout is returned when the upstream API times out.
	ErrTimeout = errors.New("upstream request timed out")

	// ErrDocumentTooLarge is returned on 413 from the upstream API.
	ErrDocumentTooLarge = errors.New("document too large")

	// ErrRateLimited is wrapped by every RateLimitError.
	ErrRateLimited = errors.New("rate limited")

	// ErrNotConfigured is returned when a provider is requested that the
	// registry does not hold.
	ErrNotConfigured = errors.New("provider not configured")
)

// RateLimitError is returned when an upstream API answers 429.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
	StatusCode int
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s (retry after %s)", e.Message, e.RetryAfter)
	}
	return e.Message
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// IsRateLimitError unwraps err into a RateLimitError.
func IsRateLimitError(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}

// APIError is a non-success response that is not mapped to a sentinel.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// Retryable reports whether the request may succeed if sent again.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500
}

// statusError maps an upstream status code onto the package errors.
func statusError(provider string, status int, message string, header http.Header) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w: %s", provider, ErrAuthentication, message)
	case http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    fmt.Sprintf("%s rate limited: %s", provider, message),
			RetryAfter: parseRetryAfter(header.Get("Retry-After")),
			StatusCode: status,
		}
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return fmt.Errorf("%s: %w: %s", provider, ErrTimeout, message)
	case http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%s: %w: %s", provider, ErrDocumentTooLarge, message)
	default:
		return &APIError{Provider: provider, StatusCode: status, Message: message}
	}
}

// parseRetryAfter understands both delta-seconds and HTTP-date forms.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
