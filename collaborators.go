package sealedsend

import "context"

// KeyFetcher looks up published public keys. The result holds an entry for
// every requested email; per-email failures go in its Err field.
type KeyFetcher interface {
	FetchPublicKeys(ctx context.Context, emails []string) (map[string]PublicKeyLookupResult, error)
}

// ContactFetcher fetches contacts from the server. Failures for single
// emails or IDs go in the Err fields of the results; the returned error
// fails the lookup of every requested email.
type ContactFetcher interface {
	// FindContactIDs finds the contact listing each email.
	FindContactIDs(ctx context.Context, emails []string) (map[string]ContactMatch, error)
	// FetchContactDetails fetches contacts by ID. Deleted contacts are absent.
	FetchContactDetails(ctx context.Context, ids []string) (map[string]ContactDetails, error)
}

// ContactMatch is the contact search answer for one email. ID is empty when
// no contact lists the email.
type ContactMatch struct {
	ID  string
	Err error
}

// ContactDetails is one fetched contact, or the error fetching it.
type ContactDetails struct {
	Record ContactRecord
	Err    error
}

// ContactStore is the local contact cache. FindByEmail returns nil without
// error on a miss.
type ContactStore interface {
	FindByEmail(ctx context.Context, email string) (*ContactRecord, error)
	Insert(ctx context.Context, rec ContactRecord) error
}

// MailSettingsProvider returns the current account mail settings.
type MailSettingsProvider interface {
	MailSettings(ctx context.Context) (MailSettings, error)
}

// StaticMailSettings is a MailSettingsProvider for fixed settings.
type StaticMailSettings MailSettings

// MailSettings implements MailSettingsProvider.
func (s StaticMailSettings) MailSettings(context.Context) (MailSettings, error) {
	return MailSettings(s), nil
}

// SRPGenerator produces a password verifier for encrypt-outside packages.
type SRPGenerator interface {
	GenerateVerifier(ctx context.Context, password []byte) (*SRPAuth, error)
}

// Crypto is the OpenPGP capability of the sending address. It is passed
// into every call rather than held by the Client. NewAddressCrypto returns
// the gopenpgp-backed implementation.
type Crypto interface {
	Email() string
	DecryptSessionKey(keyPacket []byte) (*SessionKey, error)
	EncryptSessionKey(sk *SessionKey, armoredPublicKey string) ([]byte, error)
	EncryptSessionKeyWithPassword(sk *SessionKey, password []byte) ([]byte, error)
	GenerateSessionKey() (*SessionKey, error)
	DecryptBody(dataPacket []byte, sk *SessionKey) ([]byte, error)
	EncryptBody(plaintext []byte, sk *SessionKey) ([]byte, error)
	DeriveKeyInfo(armored string) (KeyInformation, error)
	// VerifySignedText checks a contact card signature. Cards are signed
	// by the account's user keys.
	VerifySignedText(text, armoredSignature string) error
	ArmorKey(data []byte) (string, error)
	ArmoredPublicKey() (string, error)
	Fingerprint() string
	EncryptToken(token, password []byte) (string, error)
}
