package sealedsend

import (
	"errors"
	"fmt"

	"github.com/sealedsend/client-go/internal/api"
	"github.com/sealedsend/client-go/internal/contact"
	"github.com/sealedsend/client-go/internal/crypto"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrMissingKeyFetcher is returned by New when neither a session nor a
	// KeyFetcher is configured.
	ErrMissingKeyFetcher = errors.New("a key fetcher or API session is required")

	// ErrClientClosed is returned when operations are attempted on a closed client.
	ErrClientClosed = errors.New("client has been closed")

	// ErrMissingCrypto is returned when no sender capability is passed.
	ErrMissingCrypto = errors.New("sender crypto capability is required")

	// ErrKeyLookupFailed marks a failed public key lookup for a recipient.
	ErrKeyLookupFailed = errors.New("public key lookup failed")

	// ErrContactParseFailed marks a contact that could not be fetched or parsed.
	ErrContactParseFailed = errors.New("contact parse failed")

	// ErrContactLookupFailed marks a contact that could not be read from the
	// store or fetched from the server.
	ErrContactLookupFailed = errors.New("contact lookup failed")

	// ErrRecipientNotFound is returned when the server does not know a recipient.
	ErrRecipientNotFound = errors.New("recipient not found")

	// ErrCryptoOperationFailed marks a failure while building packages.
	ErrCryptoOperationFailed = errors.New("crypto operation failed")

	// ErrMalformedKey is returned for keys that cannot be parsed.
	ErrMalformedKey = crypto.ErrMalformedKey

	// ErrNoUsableKey is reported when an internal recipient has no key that
	// can be encrypted to.
	ErrNoUsableKey = errors.New("no usable encryption key")

	// ErrMissingPreference is returned when a recipient has no resolved preference.
	ErrMissingPreference = errors.New("missing send preference")

	// ErrMissingSRP is returned when a password package needs a verifier
	// but no SRPGenerator is configured.
	ErrMissingSRP = errors.New("SRP generator is required for password-protected recipients")

	// ErrUnauthorized is returned when the API session is invalid or expired.
	ErrUnauthorized = errors.New("invalid or expired session")

	// ErrRateLimited is returned when the API rate limit is exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// SealedSendError is implemented by all errors returned by this package.
type SealedSendError interface {
	error
	SealedSendError() // marker method
}

// APIError represents an HTTP error from the mail API.
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

// SealedSendError implements the SealedSendError interface.
func (e *APIError) SealedSendError() {}

// Is implements errors.Is for sentinel error matching.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrRecipientNotFound:
		return e.StatusCode == 404 || e.Code == api.CodeAddressMissing || e.Code == api.CodeNotExists
	case ErrUnauthorized:
		return e.StatusCode == 401
	case ErrRateLimited:
		return e.StatusCode == 429
	}
	return false
}

// NetworkError represents a network-level failure.
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

// SealedSendError implements the SealedSendError interface.
func (e *NetworkError) SealedSendError() {}

// RecipientError is a recoverable problem with one recipient. The recipient
// was still resolved, on defaults.
type RecipientError struct {
	Email string
	Err   error
}

func (e *RecipientError) Error() string {
	return fmt.Sprintf("recipient %s: %v", e.Email, e.Err)
}

// Unwrap returns the underlying error.
func (e *RecipientError) Unwrap() error {
	return e.Err
}

// SealedSendError implements the SealedSendError interface.
func (e *RecipientError) SealedSendError() {}

// PackageError aborts a send. Stage names the step that failed: "body",
// "attachment", "render", "address" or "srp".
type PackageError struct {
	Stage string
	Email string
	Err   error
}

func (e *PackageError) Error() string {
	if e.Email != "" {
		return fmt.Sprintf("build packages: %s for %s: %v", e.Stage, e.Email, e.Err)
	}
	return fmt.Sprintf("build packages: %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *PackageError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *PackageError) Is(target error) bool {
	return target == ErrCryptoOperationFailed
}

// SealedSendError implements the SealedSendError interface.
func (e *PackageError) SealedSendError() {}

// wrapError converts internal errors to public errors so that errors.Is()
// checks work with the sentinels above.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return &APIError{
			StatusCode: apiErr.StatusCode,
			Code:       apiErr.Code,
			Message:    apiErr.Message,
			RequestID:  apiErr.RequestID,
		}
	}

	var netErr *api.NetworkError
	if errors.As(err, &netErr) {
		return &NetworkError{
			Err:     netErr.Err,
			URL:     netErr.URL,
			Attempt: netErr.Attempt,
		}
	}

	if errors.Is(err, contact.ErrContactParse) {
		return fmt.Errorf("%w: %v", ErrContactParseFailed, err)
	}

	return err
}
