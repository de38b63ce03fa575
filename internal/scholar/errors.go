package scholar

import (
	"errors"
	"fmt"
	"time"
)

// Common errors returned by the client.
var (
	// ErrNotFound indicates the paper was not found upstream.
	ErrNotFound = errors.New("not found in Semantic Scholar")

	// ErrAuthError indicates an authentication error (missing/invalid API key).
	ErrAuthError = errors.New("Semantic Scholar authentication error")

	// ErrRateLimited indicates the upstream rate limit was exceeded.
	ErrRateLimited = errors.New("Semantic Scholar rate limit exceeded")

	// ErrAPIError indicates a general API error.
	ErrAPIError = errors.New("Semantic Scholar API error")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with Semantic Scholar")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from Semantic Scholar")
)

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
	PaperID    string        // For context in paper-related errors
	RetryAfter time.Duration // From the Retry-After header, 0 if absent
}

func (e *APIError) Error() string {
	if e.PaperID != "" {
		return fmt.Sprintf("Semantic Scholar API error (status %d): %s (paper: %s)", e.StatusCode, e.Message, e.PaperID)
	}
	return fmt.Sprintf("Semantic Scholar API error (status %d): %s", e.StatusCode, e.Message)
}

// Transient reports whether the error is worth retrying: upstream rate
// limiting, server-side failures, and network problems. Client-side 4xx
// errors other than 429 are permanent.
func Transient(err error) bool {
	if errors.Is(err, ErrNetworkError) || errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}

// IsNotFound returns true if the error indicates the paper was not found.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// retryAfter extracts a provider-supplied retry delay from an error chain.
func retryAfter(err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.RetryAfter
	}
	return 0
}
