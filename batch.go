package sealedsend

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sealedsend/client-go/internal/contact"
)

// FetchSendPreferences resolves a SendPreference for every distinct email.
// Emails are deduplicated case-insensitively and keyed by their first
// spelling. Key and contact failures degrade the affected recipient to the
// defaults path and are reported to the recipient error handler; the call
// itself fails only when the settings cannot be read or ctx is cancelled.
func (c *Client) FetchSendPreferences(ctx context.Context, cr Crypto, emails []string) (map[string]SendPreference, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	if cr == nil {
		return nil, ErrMissingCrypto
	}

	settings, err := c.mailSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("mail settings: %w", err)
	}

	emails = dedupeEmails(emails)
	log := c.log.WithField("recipients", len(emails))
	log.Debug("fetching send preferences")

	lookups, err := c.lookupKeys(ctx, cr, emails)
	if err != nil {
		return nil, err
	}
	contacts, err := c.lookupContacts(ctx, emails, settings)
	if err != nil {
		return nil, err
	}

	prefs := make([]SendPreference, len(emails))
	err = c.forEach(ctx, len(emails), func(_ context.Context, i int) {
		email := emails[i]
		lookup := lookups[email]

		if lookup.Err != nil {
			c.report(email, fmt.Errorf("%w: %w", ErrKeyLookupFailed, lookup.Err))
			prefs[i] = c.ResolveSendPreference(cr, email, PublicKeyLookupResult{}, nil, settings)
			return
		}

		var policy *ContactPolicy
		if rec := contacts[email]; rec != nil {
			p, err := contact.Extract(*rec, email, cr)
			if err != nil {
				c.report(email, wrapError(err))
			} else if p.Found {
				policy = &p
			}
		}
		prefs[i] = c.ResolveSendPreference(cr, email, lookup, policy, settings)
	})
	if err != nil {
		return nil, err
	}

	result := make(map[string]SendPreference, len(emails))
	for i, email := range emails {
		result[email] = prefs[i]
	}
	log.Debug("fetched send preferences")
	return result, nil
}

// lookupKeys synthesizes own addresses and fetches the rest in one call.
func (c *Client) lookupKeys(ctx context.Context, cr Crypto, emails []string) (map[string]PublicKeyLookupResult, error) {
	lookups := make(map[string]PublicKeyLookupResult, len(emails))

	var remote []string
	for _, email := range emails {
		if lookup, ok := c.ownLookup(cr, email); ok {
			lookups[email] = lookup
			continue
		}
		remote = append(remote, email)
	}
	if len(remote) == 0 {
		return lookups, nil
	}

	fetched, err := c.keys.FetchPublicKeys(ctx, remote)
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	for _, email := range remote {
		lookup, ok := fetched[email]
		switch {
		case err != nil:
			lookup = PublicKeyLookupResult{Err: err}
		case !ok:
			lookup = PublicKeyLookupResult{Err: ErrRecipientNotFound}
		}
		lookups[email] = lookup
	}
	return lookups, nil
}

// lookupContacts reads contacts from the store and fetches the misses from
// the server, saving them back when the settings ask for it.
func (c *Client) lookupContacts(ctx context.Context, emails []string, settings MailSettings) (map[string]*ContactRecord, error) {
	found := make(map[string]*ContactRecord, len(emails))
	misses := emails

	if c.store != nil {
		var mu sync.Mutex
		var missed []string
		err := c.forEach(ctx, len(emails), func(ctx context.Context, i int) {
			email := emails[i]
			rec, err := c.store.FindByEmail(ctx, email)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				c.report(email, fmt.Errorf("%w: %w", ErrContactLookupFailed, err))
				missed = append(missed, email)
			case rec == nil:
				missed = append(missed, email)
			default:
				found[email] = rec
			}
		})
		if err != nil {
			return nil, err
		}
		misses = missed
	}

	if c.contacts == nil || len(misses) == 0 {
		return found, nil
	}

	matches, err := c.contacts.FindContactIDs(ctx, misses)
	if err != nil {
		return c.contactsFailed(ctx, found, misses, err)
	}

	ids := make(map[string]string, len(matches))
	unique := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, email := range misses {
		m := matches[email]
		if m.Err != nil {
			c.report(email, fmt.Errorf("%w: %w", ErrContactLookupFailed, m.Err))
			continue
		}
		if m.ID == "" {
			continue
		}
		ids[email] = m.ID
		if _, dup := seen[m.ID]; !dup {
			seen[m.ID] = struct{}{}
			unique = append(unique, m.ID)
		}
	}
	if len(unique) == 0 {
		return found, nil
	}

	details, err := c.contacts.FetchContactDetails(ctx, unique)
	if err != nil {
		pending := make([]string, 0, len(ids))
		for _, email := range misses {
			if _, ok := ids[email]; ok {
				pending = append(pending, email)
			}
		}
		return c.contactsFailed(ctx, found, pending, err)
	}

	for _, email := range misses {
		id, ok := ids[email]
		if !ok {
			continue
		}
		d, ok := details[id]
		if !ok {
			continue
		}
		if d.Err != nil {
			c.report(email, fmt.Errorf("%w: %w", ErrContactLookupFailed, d.Err))
			continue
		}
		rec := d.Record
		found[email] = &rec
	}

	if settings.AutoSaveContacts && c.store != nil {
		for _, id := range unique {
			d, ok := details[id]
			if !ok || d.Err != nil {
				continue
			}
			if err := c.store.Insert(ctx, d.Record); err != nil {
				c.log.WithFields(logrus.Fields{"contact": id}).WithError(err).Warn("saving contact failed")
			}
		}
	}

	return found, nil
}

// contactsFailed reports a failed contact request for every email it
// covered. Those recipients resolve without a contact.
func (c *Client) contactsFailed(ctx context.Context, found map[string]*ContactRecord, emails []string, err error) (map[string]*ContactRecord, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	for _, email := range emails {
		c.report(email, fmt.Errorf("%w: %w", ErrContactLookupFailed, err))
	}
	return found, nil
}

// dedupeEmails trims emails and drops case-insensitive duplicates, keeping
// the first spelling.
func dedupeEmails(emails []string) []string {
	out := make([]string, 0, len(emails))
	seen := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		email = strings.TrimSpace(email)
		if email == "" {
			continue
		}
		key := strings.ToLower(email)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, email)
	}
	return out
}
