// Package api provides the HTTP client for the mail service endpoints the
// send pipeline depends on: public key lookup, contact lookup and the signed
// SRP modulus. It handles session authentication, JSON serialization and
// automatic retry with exponential backoff for transient failures.
//
// # Client Creation
//
// The package provides two ways to create a client:
//
//   - [NewClient]: Struct-based configuration for explicit, type-safe setup.
//   - [New]: Functional options pattern for flexible configuration.
//
// Both require a session UID and access token. They are sent on every
// request in the x-pm-uid and Authorization headers.
//
// # Retry Behavior
//
// Requests are retried up to 3 times by default for these HTTP status codes:
//
//   - 408 Request Timeout
//   - 429 Too Many Requests
//   - 500 Internal Server Error
//   - 502 Bad Gateway
//   - 503 Service Unavailable
//   - 504 Gateway Timeout
//
// The retry delay doubles with each attempt (1s, 2s, 4s, ...). Configure retry
// behavior using [Config.MaxRetries], [Config.RetryDelay], and [Config.RetryOn].
//
// # Error Handling
//
// Error responses are returned as [*APIError] carrying both the HTTP status
// and the service's numeric error code. Use errors.Is with the sentinels:
//
//   - [ErrUnauthorized]: Invalid or expired session (401).
//   - [ErrNotFound]: Unknown address or contact (404, or code 33102/2501).
//   - [ErrRateLimited]: Rate limit exceeded (429).
//
// Transport failures after all retries are returned as [*NetworkError].
//
// # Thread Safety
//
// The [Client] type is safe for concurrent use. Multiple goroutines may call
// methods on a single Client simultaneously.
package api
