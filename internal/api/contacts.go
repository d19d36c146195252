package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// FindContactEmails returns the contact emails matching email.
func (c *Client) FindContactEmails(ctx context.Context, email string) ([]ContactEmail, error) {
	var result ContactEmailsResponse
	query := url.Values{"Email": {email}}
	if err := c.Do(ctx, "GET", "/contacts/v4/contacts/emails", query, nil, &result); err != nil {
		return nil, err
	}
	return result.ContactEmails, nil
}

// GetContact fetches a contact with its cards.
func (c *Client) GetContact(ctx context.Context, id string) (*Contact, error) {
	var result ContactResponse
	path := fmt.Sprintf("/contacts/v4/contacts/%s", url.PathEscape(id))
	if err := c.Do(ctx, "GET", path, nil, nil, &result); err != nil {
		return nil, err
	}
	return &result.Contact, nil
}

// FindContactIDs searches contacts for every email with at most Workers
// requests in flight. Each email gets a ContactMatch holding the first
// contact that lists it or the search error. The error is only non-nil when
// ctx ends first.
func (c *Client) FindContactIDs(ctx context.Context, emails []string) (map[string]ContactMatch, error) {
	matches := make(map[string]ContactMatch, len(emails))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for _, email := range emails {
		email := email
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			var match ContactMatch
			found, err := c.FindContactEmails(gctx, email)
			if err != nil {
				match.Err = fmt.Errorf("find contact for %s: %w", email, err)
			}
			for _, m := range found {
				if strings.EqualFold(m.Email, email) {
					match.ContactID = m.ContactID
					break
				}
			}

			mu.Lock()
			matches[email] = match
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return matches, err
	}
	return matches, ctx.Err()
}

// FetchContacts fetches the given contacts. Contacts that no longer exist
// are absent from the result; other failures are recorded per ID. The error
// is only non-nil when ctx ends first.
func (c *Client) FetchContacts(ctx context.Context, ids []string) (map[string]ContactFetch, error) {
	contacts := make(map[string]ContactFetch, len(ids))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			contact, err := c.GetContact(gctx, id)
			if isNotFound(err) {
				return nil
			}

			fetch := ContactFetch{Contact: contact}
			if err != nil {
				fetch = ContactFetch{Err: fmt.Errorf("fetch contact %s: %w", id, err)}
			}
			mu.Lock()
			contacts[id] = fetch
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return contacts, err
	}
	return contacts, ctx.Err()
}
