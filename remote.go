package sealedsend

import (
	"context"

	"github.com/sealedsend/client-go/internal/api"
)

// apiKeyFetcher adapts the API client to KeyFetcher.
type apiKeyFetcher struct {
	c *api.Client
}

func (f apiKeyFetcher) FetchPublicKeys(ctx context.Context, emails []string) (map[string]PublicKeyLookupResult, error) {
	lookups, err := f.c.FetchPublicKeys(ctx, emails)
	if err != nil {
		return nil, wrapError(err)
	}

	results := make(map[string]PublicKeyLookupResult, len(lookups))
	for email, l := range lookups {
		r := PublicKeyLookupResult{Err: wrapError(l.Err)}
		if l.RecipientType == api.RecipientTypeInternal {
			r.RecipientType = RecipientTypeInternal
		}
		for _, k := range l.Keys {
			r.Keys = append(r.Keys, PublicKey{
				Armored:           k.PublicKey,
				AllowedForSending: k.AllowedForSending(),
			})
		}
		results[email] = r
	}
	return results, nil
}

// apiContactFetcher adapts the API client to ContactFetcher.
type apiContactFetcher struct {
	c *api.Client
}

func (f apiContactFetcher) FindContactIDs(ctx context.Context, emails []string) (map[string]ContactMatch, error) {
	found, err := f.c.FindContactIDs(ctx, emails)
	if err != nil {
		return nil, wrapError(err)
	}

	matches := make(map[string]ContactMatch, len(found))
	for email, m := range found {
		matches[email] = ContactMatch{ID: m.ContactID, Err: wrapError(m.Err)}
	}
	return matches, nil
}

func (f apiContactFetcher) FetchContactDetails(ctx context.Context, ids []string) (map[string]ContactDetails, error) {
	contacts, err := f.c.FetchContacts(ctx, ids)
	if err != nil {
		return nil, wrapError(err)
	}

	details := make(map[string]ContactDetails, len(contacts))
	for id, c := range contacts {
		if c.Err != nil {
			details[id] = ContactDetails{Err: wrapError(c.Err)}
			continue
		}
		details[id] = ContactDetails{Record: contactRecord(c.Contact)}
	}
	return details, nil
}

// contactRecord keeps the cleartext and signed cards of c. Encrypted cards
// carry no sending preferences.
func contactRecord(c *api.Contact) ContactRecord {
	rec := ContactRecord{ID: c.ID}
	for _, e := range c.ContactEmails {
		rec.Emails = append(rec.Emails, e.Email)
	}
	if card, ok := c.Card(api.CardTypeClear); ok {
		rec.ClearCard = card.Data
	}
	if card, ok := c.Card(api.CardTypeSigned); ok {
		rec.SignedCard = card.Data
		rec.Signature = card.Signature
	}
	return rec
}

// apiModulusSource adapts the API client to ModulusSource.
type apiModulusSource struct {
	c *api.Client
}

func (s apiModulusSource) GetModulus(ctx context.Context) (string, string, error) {
	return s.c.GetModulus(ctx)
}
