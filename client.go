package sealedsend

import (
	"context"
	"encoding/hex"
	"io"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"github.com/sealedsend/client-go/internal/api"
	"github.com/sealedsend/client-go/internal/store"
)

// Client resolves send preferences and builds send packages. It is safe for
// concurrent use.
type Client struct {
	apiClient *api.Client

	keys     KeyFetcher
	contacts ContactFetcher
	store    ContactStore
	settings MailSettingsProvider
	srp      SRPGenerator

	ownAddresses map[string][]string
	workers      int
	log          logrus.FieldLogger

	// keyInfo caches parsed key information by a digest of the armored key.
	keyInfo    *cache.Cache
	keyInfoTTL time.Duration

	closer io.Closer

	reportMu         sync.Mutex
	onRecipientError func(*RecipientError)

	mu     sync.RWMutex
	closed bool
}

// buildAPIClient creates and configures an API client from the given config.
func buildAPIClient(cfg *clientConfig) (*api.Client, error) {
	apiOpts := []api.Option{
		api.WithBaseURL(cfg.baseURL),
		api.WithWorkers(cfg.workers),
	}
	if cfg.timeout > 0 {
		apiOpts = append(apiOpts, api.WithTimeout(cfg.timeout))
	}
	if cfg.retries != 0 {
		apiOpts = append(apiOpts, api.WithRetries(cfg.retries))
	}
	if len(cfg.retryOn) > 0 {
		apiOpts = append(apiOpts, api.WithRetryOn(cfg.retryOn))
	}
	if cfg.appVersion != "" {
		apiOpts = append(apiOpts, api.WithAppVersion(cfg.appVersion))
	}

	apiClient, err := api.New(cfg.uid, cfg.accessToken, apiOpts...)
	if err != nil {
		return nil, err
	}

	if cfg.httpClient != nil {
		apiClient.SetHTTPClient(cfg.httpClient)
	}

	return apiClient, nil
}

// New creates a client. Either WithSession or WithKeyFetcher is required.
// With a session, the API client backs every collaborator that is not set
// explicitly.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		baseURL:    defaultBaseURL,
		timeout:    defaultTimeout,
		workers:    defaultWorkers,
		keyInfoTTL: defaultKeyInfoTTL,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	c := &Client{
		keys:             cfg.keys,
		contacts:         cfg.contacts,
		store:            cfg.store,
		settings:         cfg.settings,
		srp:              cfg.srp,
		ownAddresses:     cfg.ownAddresses,
		workers:          cfg.workers,
		log:              cfg.logger,
		keyInfo:          cache.New(cfg.keyInfoTTL, 2*cfg.keyInfoTTL),
		keyInfoTTL:       cfg.keyInfoTTL,
		onRecipientError: cfg.onRecipientError,
	}
	if c.log == nil {
		c.log = discardLogger()
	}
	if c.settings == nil {
		c.settings = StaticMailSettings(DefaultMailSettings())
	}

	if cfg.uid != "" || cfg.accessToken != "" {
		apiClient, err := buildAPIClient(cfg)
		if err != nil {
			return nil, wrapError(err)
		}
		c.apiClient = apiClient
		if c.keys == nil {
			c.keys = apiKeyFetcher{apiClient}
		}
		if c.contacts == nil {
			c.contacts = apiContactFetcher{apiClient}
		}
		if c.srp == nil {
			c.srp = NewSRPGenerator(apiModulusSource{apiClient})
		}
	}

	if c.keys == nil {
		return nil, ErrMissingKeyFetcher
	}

	if c.store == nil && cfg.storePath != "" {
		s, err := store.Open(cfg.storePath)
		if err != nil {
			return nil, err
		}
		c.store = s
		c.closer = s
	}

	return c, nil
}

// checkClosed returns ErrClientClosed if the client has been closed.
func (c *Client) checkClosed() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	return nil
}

// keyInformation derives key information through cr, caching the result.
func (c *Client) keyInformation(cr Crypto, armored string) (KeyInformation, error) {
	sum := blake2b.Sum256([]byte(armored))
	id := hex.EncodeToString(sum[:])

	if v, ok := c.keyInfo.Get(id); ok {
		return v.(KeyInformation), nil
	}

	info, err := cr.DeriveKeyInfo(armored)
	if err != nil {
		return KeyInformation{}, err
	}
	c.keyInfo.Set(id, info, c.keyInfoExpiration(info))
	return info, nil
}

// keyInfoExpiration keeps a cached entry no longer than the key stays
// unexpired.
func (c *Client) keyInfoExpiration(info KeyInformation) time.Duration {
	if info.IsExpired || info.ExpiresAt.IsZero() {
		return cache.DefaultExpiration
	}
	until := time.Until(info.ExpiresAt)
	if until <= 0 {
		return time.Nanosecond
	}
	if until < c.keyInfoTTL {
		return until
	}
	return cache.DefaultExpiration
}

// mailSettings fetches the current settings from the provider.
func (c *Client) mailSettings(ctx context.Context) (MailSettings, error) {
	s, err := c.settings.MailSettings(ctx)
	if err != nil {
		return MailSettings{}, wrapError(err)
	}
	return s, nil
}

// report logs a recoverable recipient error and hands it to the handler.
func (c *Client) report(email string, err error) {
	rerr := &RecipientError{Email: email, Err: err}
	c.log.WithField("email", email).WithError(err).Warn("recipient degraded to defaults")

	if c.onRecipientError == nil {
		return
	}
	c.reportMu.Lock()
	defer c.reportMu.Unlock()
	c.onRecipientError(rerr)
}

// forEach runs fn for indexes [0, n) on at most c.workers goroutines. It
// returns early with the context error when ctx is cancelled.
func (c *Client) forEach(ctx context.Context, n int, fn func(ctx context.Context, i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i := 0; i < n; i++ {
		i := i
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(gctx, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Close releases the contact store opened by WithContactStorePath.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
