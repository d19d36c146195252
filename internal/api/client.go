package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Default client settings.
const (
	DefaultBaseURL    = "https://mail.proton.me/api"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
	DefaultWorkers    = 4
)

// Config configures a Client.
type Config struct {
	// BaseURL is the API root, without a trailing slash.
	BaseURL string
	// UID is the session identifier.
	UID string
	// AccessToken is the session bearer token.
	AccessToken string
	// AppVersion is sent as x-pm-appversion when set.
	AppVersion string
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	// MaxRetries is the number of retries after the first attempt. Zero
	// selects DefaultMaxRetries and a negative value disables retries.
	MaxRetries int
	// RetryDelay is the delay before the first retry.
	RetryDelay time.Duration
	// RetryOn lists the HTTP status codes that trigger a retry.
	RetryOn []int
	// Workers bounds concurrent per-email requests in batch lookups.
	Workers int
}

// Client is the HTTP API client.
type Client struct {
	baseURL     string
	uid         string
	accessToken string
	appVersion  string
	httpClient  *http.Client
	maxRetries  int
	retryDelay  time.Duration
	retry       *RetryConfig
	workers     int
}

// NewClient creates a client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.UID == "" || cfg.AccessToken == "" {
		return nil, ErrMissingSession
	}

	c := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		uid:         cfg.UID,
		accessToken: cfg.AccessToken,
		appVersion:  cfg.AppVersion,
		httpClient:  cfg.HTTPClient,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
		workers:     cfg.Workers,
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if c.maxRetries == 0 {
		c.maxRetries = DefaultMaxRetries
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	if c.retryDelay == 0 {
		c.retryDelay = DefaultRetryDelay
	}
	if c.workers <= 0 {
		c.workers = DefaultWorkers
	}

	c.retry = DefaultRetryConfig()
	c.retry.MaxRetries = c.maxRetries
	c.retry.BaseDelay = c.retryDelay
	if len(cfg.RetryOn) > 0 {
		c.retry.RetryableOn = retryOnCodes(cfg.RetryOn)
	}

	return c, nil
}

// Option configures the API client.
type Option func(*Config)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if c.HTTPClient == nil {
			c.HTTPClient = &http.Client{}
		}
		c.HTTPClient.Timeout = timeout
	}
}

// WithRetries sets the number of retries.
func WithRetries(retries int) Option {
	return func(c *Config) {
		c.MaxRetries = retries
	}
}

// WithRetryOn sets the HTTP status codes that trigger a retry.
func WithRetryOn(statusCodes []int) Option {
	return func(c *Config) {
		c.RetryOn = statusCodes
	}
}

// WithAppVersion sets the x-pm-appversion header value.
func WithAppVersion(version string) Option {
	return func(c *Config) {
		c.AppVersion = version
	}
}

// WithWorkers bounds concurrent requests in batch lookups.
func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

// New creates a client for the given session using functional options.
func New(uid, accessToken string, opts ...Option) (*Client, error) {
	cfg := Config{
		BaseURL:     DefaultBaseURL,
		UID:         uid,
		AccessToken: accessToken,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewClient(cfg)
}

// SetHTTPClient sets a custom HTTP client.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do performs a JSON request against path, retrying transient failures, and
// decodes the response into result when it is non-nil.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, result interface{}) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.send(ctx, method, target, payload)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if attempt < c.retry.MaxRetries {
				if werr := c.retry.Wait(ctx, attempt); werr != nil {
					return werr
				}
				continue
			}
			return &NetworkError{Err: err, URL: target, Attempt: attempt + 1}
		}

		if resp.StatusCode >= 400 && c.retry.ShouldRetry(attempt, resp.StatusCode) {
			resp.Body.Close()
			if werr := c.retry.Wait(ctx, attempt); werr != nil {
				return werr
			}
			continue
		}

		return c.handleResponse(resp, result)
	}
}

func (c *Client) send(ctx context.Context, method, target string, payload []byte) (*http.Response, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-pm-uid", c.uid)
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/vnd.protonmail.v1+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.appVersion != "" {
		req.Header.Set("x-pm-appversion", c.appVersion)
	}

	return c.httpClient.Do(req)
}

func (c *Client) handleResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return parseErrorResponse(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Code  int    `json:"Code"`
		Error string `json:"Error"`
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("x-pm-request-id"),
	}
	if err := json.Unmarshal(body, &errResp); err == nil && (errResp.Error != "" || errResp.Code != 0) {
		apiErr.Code = errResp.Code
		apiErr.Message = errResp.Error
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(body))
	return apiErr
}
