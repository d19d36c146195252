package api

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/sync/errgroup"
)

// GetPublicKeys looks up the public keys published for email.
func (c *Client) GetPublicKeys(ctx context.Context, email string) (*KeysResponse, error) {
	var result KeysResponse
	query := url.Values{"Email": {email}}
	if err := c.Do(ctx, "GET", "/core/v4/keys", query, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchPublicKeys looks up every email with at most Workers requests in
// flight. Per-email failures are recorded in the returned KeyLookup; the
// error is only non-nil when ctx ends first.
func (c *Client) FetchPublicKeys(ctx context.Context, emails []string) (map[string]KeyLookup, error) {
	results := make(map[string]KeyLookup, len(emails))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for _, email := range emails {
		email := email
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			var lookup KeyLookup
			resp, err := c.GetPublicKeys(gctx, email)
			if err != nil {
				lookup.Err = err
			} else {
				lookup.RecipientType = resp.RecipientType
				lookup.Keys = resp.Keys
			}

			mu.Lock()
			results[email] = lookup
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
