package api

import (
	"errors"
	"fmt"
)

// Service error codes the client interprets.
const (
	CodeOK             = 1000
	CodeNotExists      = 2501
	CodeAddressMissing = 33102
)

// Common API errors that can be checked with errors.Is.
var (
	// ErrMissingSession indicates no UID or access token was configured.
	ErrMissingSession = errors.New("session UID and access token are required")
	// ErrUnauthorized indicates the session is invalid or expired.
	ErrUnauthorized = errors.New("invalid or expired session")
	// ErrNotFound indicates the requested address or contact does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrRateLimited indicates the rate limit has been exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("API error %d", e.StatusCode)
	if e.Code != 0 {
		msg += fmt.Sprintf(" (code %d)", e.Code)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.RequestID != "" {
		msg += fmt.Sprintf(" (request_id: %s)", e.RequestID)
	}
	return msg
}

// Is implements errors.Is for sentinel error matching.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == 404 || e.Code == CodeAddressMissing || e.Code == CodeNotExists
	case ErrUnauthorized:
		return e.StatusCode == 401
	case ErrRateLimited:
		return e.StatusCode == 429
	}
	return false
}

// NetworkError represents a network-level failure after all retries.
type NetworkError struct {
	Err     error
	URL     string
	Attempt int
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}
