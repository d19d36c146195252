package sealedsend

import (
	"errors"
	"fmt"
	"testing"

	"github.com/sealedsend/client-go/internal/api"
	"github.com/sealedsend/client-go/internal/contact"
)

func TestSentinelErrors(t *testing.T) {
	sentinels := []struct {
		name string
		err  error
	}{
		{"ErrMissingKeyFetcher", ErrMissingKeyFetcher},
		{"ErrClientClosed", ErrClientClosed},
		{"ErrMissingCrypto", ErrMissingCrypto},
		{"ErrKeyLookupFailed", ErrKeyLookupFailed},
		{"ErrContactParseFailed", ErrContactParseFailed},
		{"ErrContactLookupFailed", ErrContactLookupFailed},
		{"ErrRecipientNotFound", ErrRecipientNotFound},
		{"ErrCryptoOperationFailed", ErrCryptoOperationFailed},
		{"ErrMalformedKey", ErrMalformedKey},
		{"ErrNoUsableKey", ErrNoUsableKey},
		{"ErrMissingPreference", ErrMissingPreference},
		{"ErrMissingSRP", ErrMissingSRP},
		{"ErrUnauthorized", ErrUnauthorized},
		{"ErrRateLimited", ErrRateLimited},
	}

	for _, s := range sentinels {
		t.Run(s.name, func(t *testing.T) {
			if s.err == nil {
				t.Error("sentinel error is nil")
			}
			if s.err.Error() == "" {
				t.Error("sentinel error has empty message")
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		expected string
	}{
		{
			name:     "with message",
			err:      &APIError{StatusCode: 401, Message: "invalid access token"},
			expected: "API error 401: invalid access token",
		},
		{
			name:     "without message",
			err:      &APIError{StatusCode: 500},
			expected: "API error 500",
		},
		{
			name:     "with code and request ID",
			err:      &APIError{StatusCode: 422, Code: 33102, Message: "address missing", RequestID: "req-123"},
			expected: "API error 422 (code 33102): address missing (request_id: req-123)",
		},
		{
			name:     "with request ID only",
			err:      &APIError{StatusCode: 500, RequestID: "req-456"},
			expected: "API error 500 (request_id: req-456)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.err.Error()
			if result != tt.expected {
				t.Errorf("Error() = %s, want %s", result, tt.expected)
			}
		})
	}
}

func TestAPIError_Is(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		target   error
		expected bool
	}{
		{"401 matches ErrUnauthorized", &APIError{StatusCode: 401}, ErrUnauthorized, true},
		{"404 matches ErrRecipientNotFound", &APIError{StatusCode: 404}, ErrRecipientNotFound, true},
		{"address missing matches ErrRecipientNotFound", &APIError{StatusCode: 422, Code: 33102}, ErrRecipientNotFound, true},
		{"not exists matches ErrRecipientNotFound", &APIError{StatusCode: 422, Code: 2501}, ErrRecipientNotFound, true},
		{"429 matches ErrRateLimited", &APIError{StatusCode: 429}, ErrRateLimited, true},
		{"422 without code does not match", &APIError{StatusCode: 422}, ErrRecipientNotFound, false},
		{"500 does not match ErrUnauthorized", &APIError{StatusCode: 500}, ErrUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := errors.Is(tt.err, tt.target)
			if result != tt.expected {
				t.Errorf("errors.Is() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestNetworkError_Error(t *testing.T) {
	underlying := errors.New("connection refused")
	err := &NetworkError{Err: underlying}

	expected := "network error: connection refused"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}
}

func TestNetworkError_Unwrap(t *testing.T) {
	underlying := errors.New("connection refused")
	err := &NetworkError{Err: underlying}

	if !errors.Is(err, underlying) {
		t.Error("errors.Is() should match underlying error")
	}
}

func TestRecipientError(t *testing.T) {
	err := &RecipientError{Email: "bob@example.com", Err: fmt.Errorf("%w: timeout", ErrKeyLookupFailed)}

	expected := "recipient bob@example.com: public key lookup failed: timeout"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}
	if !errors.Is(err, ErrKeyLookupFailed) {
		t.Error("errors.Is() should match ErrKeyLookupFailed")
	}

	var sse SealedSendError
	if !errors.As(err, &sse) {
		t.Error("RecipientError should implement SealedSendError")
	}
}

func TestPackageError(t *testing.T) {
	t.Run("with email", func(t *testing.T) {
		err := &PackageError{Stage: "address", Email: "bob@example.com", Err: ErrNoUsableKey}
		expected := "build packages: address for bob@example.com: no usable encryption key"
		if err.Error() != expected {
			t.Errorf("Error() = %s, want %s", err.Error(), expected)
		}
	})

	t.Run("without email", func(t *testing.T) {
		err := &PackageError{Stage: "body", Err: errors.New("bad packet")}
		expected := "build packages: body: bad packet"
		if err.Error() != expected {
			t.Errorf("Error() = %s, want %s", err.Error(), expected)
		}
	})

	t.Run("matches ErrCryptoOperationFailed and cause", func(t *testing.T) {
		err := fmt.Errorf("send: %w", &PackageError{Stage: "srp", Err: ErrMissingSRP})
		if !errors.Is(err, ErrCryptoOperationFailed) {
			t.Error("errors.Is() should match ErrCryptoOperationFailed")
		}
		if !errors.Is(err, ErrMissingSRP) {
			t.Error("errors.Is() should match the cause")
		}
	})
}

func TestWrapError_PreservesAPIError(t *testing.T) {
	internalErr := &api.APIError{
		StatusCode: 401,
		Message:    "invalid access token",
		RequestID:  "req-123",
	}

	wrapped := wrapError(internalErr)

	var publicErr *APIError
	if !errors.As(wrapped, &publicErr) {
		t.Fatal("wrapError should convert internal API error to public APIError")
	}

	if publicErr.StatusCode != 401 {
		t.Errorf("StatusCode = %d, want 401", publicErr.StatusCode)
	}
	if publicErr.Message != "invalid access token" {
		t.Errorf("Message = %s, want 'invalid access token'", publicErr.Message)
	}
	if publicErr.RequestID != "req-123" {
		t.Errorf("RequestID = %s, want 'req-123'", publicErr.RequestID)
	}

	if !errors.Is(wrapped, ErrUnauthorized) {
		t.Error("wrapped error should match ErrUnauthorized sentinel")
	}
}

func TestWrapError_PreservesNetworkError(t *testing.T) {
	underlying := errors.New("connection refused")
	internalErr := &api.NetworkError{
		Err:     underlying,
		URL:     "https://mail.example.com/api/core/v4/keys",
		Attempt: 3,
	}

	wrapped := wrapError(internalErr)

	var publicErr *NetworkError
	if !errors.As(wrapped, &publicErr) {
		t.Fatal("wrapError should convert internal network error to public NetworkError")
	}
	if publicErr.Attempt != 3 {
		t.Errorf("Attempt = %d, want 3", publicErr.Attempt)
	}
	if !errors.Is(wrapped, underlying) {
		t.Error("wrapped error should still match underlying error")
	}
}

func TestWrapError_ContactParse(t *testing.T) {
	wrapped := wrapError(fmt.Errorf("%w: no BEGIN", contact.ErrContactParse))

	if !errors.Is(wrapped, ErrContactParseFailed) {
		t.Error("wrapped error should match ErrContactParseFailed")
	}
}

func TestWrapError_PassesThroughOther(t *testing.T) {
	originalErr := errors.New("some other error")

	if wrapError(originalErr) != originalErr {
		t.Error("wrapError should pass through other errors unchanged")
	}
	if wrapError(nil) != nil {
		t.Error("wrapError(nil) should return nil")
	}
}

func TestErrorChain_CanUnwrapToSentinel(t *testing.T) {
	tests := []struct {
		name          string
		internalErr   error
		expectedMatch error
	}{
		{
			name:          "401 matches ErrUnauthorized",
			internalErr:   &api.APIError{StatusCode: 401, Message: "unauthorized"},
			expectedMatch: ErrUnauthorized,
		},
		{
			name:          "address missing matches ErrRecipientNotFound",
			internalErr:   &api.APIError{StatusCode: 422, Code: api.CodeAddressMissing},
			expectedMatch: ErrRecipientNotFound,
		},
		{
			name:          "429 matches ErrRateLimited",
			internalErr:   &api.APIError{StatusCode: 429, Message: "rate limit exceeded"},
			expectedMatch: ErrRateLimited,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := wrapError(tt.internalErr)

			if !errors.Is(wrapped, tt.expectedMatch) {
				t.Errorf("wrapped error should match %v", tt.expectedMatch)
			}

			doubleWrapped := fmt.Errorf("operation failed: %w", wrapped)
			if !errors.Is(doubleWrapped, tt.expectedMatch) {
				t.Errorf("double-wrapped error should still match %v", tt.expectedMatch)
			}
		})
	}
}
