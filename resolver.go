package sealedsend

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// keySelection is the outcome of validating the candidate keys.
type keySelection struct {
	pinned string
	server string
}

// ResolveSendPreference combines the key server answer for email, its
// contact policy and the account settings into a SendPreference. A nil
// policy resolves on defaults. Recoverable problems are reported to the
// recipient error handler; resolution itself never fails. A nil cr is
// reported as ErrMissingCrypto and resolves without keys.
func (c *Client) ResolveSendPreference(cr Crypto, email string, lookup PublicKeyLookupResult, policy *ContactPolicy, settings MailSettings) SendPreference {
	var p ContactPolicy
	if policy != nil {
		p = *policy
	}

	isInternal := lookup.RecipientType == RecipientTypeInternal
	var sel keySelection
	if cr == nil {
		c.report(email, ErrMissingCrypto)
	} else {
		sel = c.selectKeys(cr, email, lookup, p, isInternal)
	}

	// Internal recipients stay internal without a key; BuildPackages fails for them.
	if isInternal && sel.pinned == "" && sel.server == "" {
		c.report(email, ErrNoUsableKey)
	}

	d := decide(decisionInput{
		isInternal:   isInternal,
		hasPinnedKey: sel.pinned != "",
		hasServerKey: sel.server != "",
		policy:       p,
		settings:     settings,
	})

	pref := SendPreference{
		Email:                      email,
		Encrypt:                    d.encrypt,
		Sign:                       d.sign,
		MIMEType:                   d.mimeType,
		Scheme:                     d.scheme,
		HasPinnedKeys:              p.HasPinnedKeys(),
		IsContactSignatureVerified: p.IsSignatureValid,
		IsOwnAddress:               c.isOwnAddress(cr, email),
	}
	switch d.key {
	case keyPinned:
		pref.EncryptionKey = sel.pinned
		pref.IsEncryptionKeyPinned = true
	case keyServer:
		pref.EncryptionKey = sel.server
	}

	c.log.WithFields(logrus.Fields{
		"email":    email,
		"scheme":   pref.Scheme.String(),
		"mimeType": string(pref.MIMEType),
		"encrypt":  pref.Encrypt,
		"sign":     pref.Sign,
		"pinned":   pref.IsEncryptionKeyPinned,
	}).Debug("resolved send preference")

	return pref
}

// selectKeys picks the first usable sending key from the server and the
// first usable pinned key. A pinned key must match a server sending key
// when the recipient is internal or the server published any.
func (c *Client) selectKeys(cr Crypto, email string, lookup PublicKeyLookupResult, policy ContactPolicy, isInternal bool) keySelection {
	var sel keySelection

	published := false
	fingerprints := make(map[string]struct{})
	for _, k := range lookup.Keys {
		if !k.AllowedForSending {
			continue
		}
		published = true
		info, err := c.keyInformation(cr, k.Armored)
		if err != nil {
			c.report(email, fmt.Errorf("server key: %w", err))
			continue
		}
		fingerprints[strings.ToLower(info.Fingerprint)] = struct{}{}
		if sel.server == "" && info.Usable() {
			sel.server = k.Armored
		}
	}

	mustMatch := isInternal || published
	for _, armored := range policy.PinnedKeys {
		info, err := c.keyInformation(cr, armored)
		if err != nil {
			c.report(email, fmt.Errorf("pinned key: %w", err))
			continue
		}
		if !info.Usable() {
			continue
		}
		if _, ok := fingerprints[strings.ToLower(info.Fingerprint)]; mustMatch && !ok {
			continue
		}
		sel.pinned = armored
		break
	}

	return sel
}

// isOwnAddress reports whether email is the sending address or one
// registered with WithOwnAddress.
func (c *Client) isOwnAddress(cr Crypto, email string) bool {
	if _, ok := c.ownAddresses[normalizeEmail(email)]; ok {
		return true
	}
	return cr != nil && strings.EqualFold(strings.TrimSpace(email), cr.Email())
}

// ownLookup synthesizes the key server answer for one of the sender's own
// addresses.
func (c *Client) ownLookup(cr Crypto, email string) (PublicKeyLookupResult, bool) {
	var armored []string
	if keys, ok := c.ownAddresses[normalizeEmail(email)]; ok {
		armored = keys
	} else if strings.EqualFold(strings.TrimSpace(email), cr.Email()) {
		key, err := cr.ArmoredPublicKey()
		if err != nil {
			c.report(email, fmt.Errorf("%w: %v", ErrCryptoOperationFailed, err))
		} else {
			armored = []string{key}
		}
	} else {
		return PublicKeyLookupResult{}, false
	}

	lookup := PublicKeyLookupResult{RecipientType: RecipientTypeInternal}
	for _, k := range armored {
		lookup.Keys = append(lookup.Keys, PublicKey{Armored: k, AllowedForSending: true})
	}
	return lookup, true
}
