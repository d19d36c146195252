package sealedsend

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sealedsend/client-go/internal/api"
)

const (
	defaultBaseURL    = api.DefaultBaseURL
	defaultTimeout    = 30 * time.Second
	defaultWorkers    = 4
	defaultKeyInfoTTL = 30 * time.Minute
)

// clientConfig holds configuration for the client.
type clientConfig struct {
	baseURL     string
	uid         string
	accessToken string
	appVersion  string
	httpClient  *http.Client
	timeout     time.Duration
	retries     int
	retryOn     []int

	workers    int
	keyInfoTTL time.Duration
	logger     logrus.FieldLogger
	storePath  string

	keys     KeyFetcher
	contacts ContactFetcher
	store    ContactStore
	settings MailSettingsProvider
	srp      SRPGenerator

	// ownAddresses maps lowercased sender addresses to their armored public keys.
	ownAddresses map[string][]string

	onRecipientError func(*RecipientError)
}

// Option configures the client.
type Option func(*clientConfig)

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithSession sets the API session. When set, the client talks to the API
// for keys, contacts and SRP moduli unless those are overridden.
func WithSession(uid, accessToken string) Option {
	return func(c *clientConfig) {
		c.uid = uid
		c.accessToken = accessToken
	}
}

// WithAppVersion sets the app version header sent to the API.
func WithAppVersion(version string) Option {
	return func(c *clientConfig) {
		c.appVersion = version
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP timeout for API calls.
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithRetries sets the number of retries for API calls.
func WithRetries(count int) Option {
	return func(c *clientConfig) {
		c.retries = count
	}
}

// WithRetryOn sets the HTTP status codes that trigger a retry.
// Default: [408, 429, 500, 502, 503, 504]
func WithRetryOn(statusCodes []int) Option {
	return func(c *clientConfig) {
		c.retryOn = statusCodes
	}
}

// WithWorkers bounds how many recipients are resolved concurrently.
// Default: 4
func WithWorkers(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithKeyInfoCacheTTL sets how long parsed key information is cached.
// Default: 30 minutes
func WithKeyInfoCacheTTL(ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.keyInfoTTL = ttl
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithKeyFetcher overrides the public key source.
func WithKeyFetcher(f KeyFetcher) Option {
	return func(c *clientConfig) {
		c.keys = f
	}
}

// WithContactFetcher overrides the remote contact source.
func WithContactFetcher(f ContactFetcher) Option {
	return func(c *clientConfig) {
		c.contacts = f
	}
}

// WithContactStore sets the local contact cache.
func WithContactStore(s ContactStore) Option {
	return func(c *clientConfig) {
		c.store = s
	}
}

// WithContactStorePath opens a SQLite contact cache at path. The client
// owns it and closes it in Close.
func WithContactStorePath(path string) Option {
	return func(c *clientConfig) {
		c.storePath = path
	}
}

// WithMailSettings sets the mail settings provider.
func WithMailSettings(p MailSettingsProvider) Option {
	return func(c *clientConfig) {
		c.settings = p
	}
}

// WithSRPGenerator overrides the verifier source for password packages.
func WithSRPGenerator(g SRPGenerator) Option {
	return func(c *clientConfig) {
		c.srp = g
	}
}

// WithOwnAddress registers one of the sender's own addresses with its
// armored public keys. Own addresses are resolved without a key lookup.
func WithOwnAddress(email string, armoredPublicKeys ...string) Option {
	return func(c *clientConfig) {
		if c.ownAddresses == nil {
			c.ownAddresses = make(map[string][]string)
		}
		c.ownAddresses[normalizeEmail(email)] = armoredPublicKeys
	}
}

// WithRecipientErrorHandler registers a callback for recoverable
// per-recipient errors. Calls are serialized.
func WithRecipientErrorHandler(fn func(*RecipientError)) Option {
	return func(c *clientConfig) {
		c.onRecipientError = fn
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
