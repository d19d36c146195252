package sealedsend

import (
	"github.com/sealedsend/client-go/internal/contact"
	"github.com/sealedsend/client-go/internal/crypto"
)

// MIMEType is the body representation a recipient receives.
type MIMEType string

// MIME types a package can carry.
const (
	MIMETypeMIME      MIMEType = "multipart/mixed"
	MIMETypePlaintext MIMEType = "text/plain"
	MIMETypeHTML      MIMEType = "text/html"
)

// parseMIMEType maps an override value to a MIMEType. Unknown values are
// reported as not ok.
func parseMIMEType(s string) (MIMEType, bool) {
	switch MIMEType(s) {
	case MIMETypeMIME, MIMETypePlaintext, MIMETypeHTML:
		return MIMEType(s), true
	}
	return "", false
}

// PackageScheme identifies how a recipient's copy is protected. Values are
// bit flags so a package can advertise every scheme its recipients use.
type PackageScheme int

// Package schemes.
const (
	SchemeInternal       PackageScheme = 1
	SchemeEncryptOutside PackageScheme = 2
	SchemeCleartext      PackageScheme = 4
	SchemePGPInline      PackageScheme = 8
	SchemePGPMIME        PackageScheme = 16
	SchemeMIME           PackageScheme = 32
)

func (s PackageScheme) String() string {
	switch s {
	case SchemeInternal:
		return "internal"
	case SchemeEncryptOutside:
		return "encrypt-outside"
	case SchemeCleartext:
		return "cleartext"
	case SchemePGPInline:
		return "pgp-inline"
	case SchemePGPMIME:
		return "pgp-mime"
	case SchemeMIME:
		return "mime"
	}
	return "unknown"
}

// PGPScheme is the account default for external PGP recipients.
type PGPScheme string

// PGP schemes.
const (
	PGPSchemeMIME   PGPScheme = "pgp-mime"
	PGPSchemeInline PGPScheme = "pgp-inline"
)

// MailSettings are the account-wide defaults that feed resolution.
type MailSettings struct {
	DefaultSign      bool
	DefaultPGPScheme PGPScheme
	AttachPublicKey  bool
	AutoSaveContacts bool
}

// DefaultMailSettings returns the settings used when no provider is set.
func DefaultMailSettings() MailSettings {
	return MailSettings{
		DefaultPGPScheme: PGPSchemeMIME,
		AutoSaveContacts: true,
	}
}

// RecipientType tells whether the key server considers an address its own.
type RecipientType int

// Recipient types.
const (
	RecipientTypeExternal RecipientType = iota
	RecipientTypeInternal
)

// PublicKey is one key returned by the key server.
type PublicKey struct {
	Armored           string
	AllowedForSending bool
}

// PublicKeyLookupResult is the key server answer for one email. Err is set
// when the lookup failed; the recipient then resolves on defaults.
type PublicKeyLookupResult struct {
	RecipientType RecipientType
	Keys          []PublicKey
	Err           error
}

// ContactRecord is a contact with its cleartext and signed cards.
type ContactRecord = contact.Record

// ContactPolicy is the send policy a contact card defines for one email.
type ContactPolicy = contact.Policy

// SessionKey is a raw symmetric key with its cipher name.
type SessionKey = crypto.SessionKey

// KeyInformation describes what a public key can be used for.
type KeyInformation = crypto.KeyInfo

// SRPAuth is the password verifier sent with encrypt-outside packages.
type SRPAuth = crypto.SRPAuth

// SendPreference is the resolved policy for one recipient. It is produced
// once per send attempt and never mutated.
type SendPreference struct {
	Email    string
	Encrypt  bool
	Sign     bool
	MIMEType MIMEType
	Scheme   PackageScheme

	// EncryptionKey is the armored key to encrypt to, empty when none.
	EncryptionKey string

	IsEncryptionKeyPinned      bool
	HasPinnedKeys              bool
	IsContactSignatureVerified bool
	IsOwnAddress               bool
}

// HasEncryptionKey reports whether a key was selected.
func (p SendPreference) HasEncryptionKey() bool {
	return p.EncryptionKey != ""
}

// Attachment is a stored attachment of the outgoing message. KeyPacket is
// encrypted to the sender.
type Attachment struct {
	ID         string
	Name       string
	MIMEType   string
	ContentID  string
	Inline     bool
	KeyPacket  []byte
	DataPacket []byte
	Signed     bool
}

// Message is the outgoing draft. MIMEType is its native representation,
// HTML or plaintext; BodyKeyPacket is encrypted to the sender.
type Message struct {
	ID             string
	Sender         string
	MIMEType       MIMEType
	BodyKeyPacket  []byte
	BodyDataPacket []byte
	Attachments    []*Attachment
}

// SecurityOptions carry the message password for recipients without a key.
type SecurityOptions struct {
	Password     string
	PasswordHint string
}

// AddressPackage is the per-recipient part of a package.
type AddressPackage struct {
	Scheme               PackageScheme
	Signature            bool
	BodyKeyPacket        []byte
	AttachmentKeyPackets map[string][]byte

	// Encrypt-outside fields.
	Token        string
	EncToken     string
	PasswordHint string
	Auth         *SRPAuth
}

// MessageSendPackage is the body encrypted once for every recipient of one
// MIME type. BodySessionKey and AttachmentSessionKeys are set only when a
// recipient receives the message unencrypted.
type MessageSendPackage struct {
	MIMEType              MIMEType
	Schemes               PackageScheme
	EncryptedBody         []byte
	BodySessionKey        *SessionKey
	AttachmentSessionKeys map[string]*SessionKey
	Addresses             map[string]*AddressPackage
}
