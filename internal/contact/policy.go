package contact

import "strings"

// Card property names carrying per-recipient overrides.
const (
	FieldPMSign             = "X-PM-SIGN"
	FieldPMEncrypt          = "X-PM-ENCRYPT"
	FieldPMEncryptUntrusted = "X-PM-ENCRYPT-UNTRUSTED"
	FieldPMScheme           = "X-PM-SCHEME"
	FieldPMMIMEType         = "X-PM-MIMETYPE"
)

// Scheme override values.
const (
	SchemePGPMIME   = "pgp-mime"
	SchemePGPInline = "pgp-inline"
)

// Flag is a boolean card override. Only an explicit "false" is recorded; any
// other value, including "true", leaves the flag unset so the caller's
// default applies.
type Flag int

const (
	FlagUnset Flag = iota
	FlagFalse
)

func parseFlag(value string) Flag {
	if strings.EqualFold(strings.TrimSpace(value), "false") {
		return FlagFalse
	}
	return FlagUnset
}

// IsFalse reports whether the card explicitly disabled the option.
func (f Flag) IsFalse() bool {
	return f == FlagFalse
}

// Or returns false for an explicit "false" and def otherwise.
func (f Flag) Or(def bool) bool {
	if f == FlagFalse {
		return false
	}
	return def
}

func (f Flag) String() string {
	if f == FlagFalse {
		return "false"
	}
	return "unset"
}

// Record is a contact as fetched from the server or the local store.
type Record struct {
	ID         string
	Emails     []string
	ClearCard  string
	SignedCard string
	Signature  string
}

// Policy is the send policy a contact card defines for one email.
type Policy struct {
	// Found is true when a card group containing the email was located.
	Found bool
	// Group is the vCard group label the email belongs to.
	Group string
	// PinnedKeys are the armored KEY values of the group, in PREF order.
	PinnedKeys []string

	Sign             Flag
	Encrypt          Flag
	EncryptUntrusted Flag

	// Scheme is the lowercased X-PM-SCHEME value, or empty.
	Scheme string
	// MIMEType is the lowercased X-PM-MIMETYPE value, or empty.
	MIMEType string

	// IsSignatureValid reports whether the signed card verified.
	IsSignatureValid bool
}

// HasPinnedKeys reports whether the group carries at least one key.
func (p Policy) HasPinnedKeys() bool {
	return len(p.PinnedKeys) > 0
}
