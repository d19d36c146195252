package sealedsend

import "github.com/sealedsend/client-go/internal/contact"

// keySource names where the selected encryption key came from.
type keySource int

const (
	keyNone keySource = iota
	keyPinned
	keyServer
)

// decisionInput is everything the decision table looks at.
type decisionInput struct {
	isInternal bool
	// hasPinnedKey is true when a pinned key passed validation.
	hasPinnedKey bool
	// hasServerKey is true when the server returned a usable sending key.
	hasServerKey bool
	policy       ContactPolicy
	settings     MailSettings
}

// decision is the table's output tuple.
type decision struct {
	encrypt  bool
	sign     bool
	scheme   PackageScheme
	mimeType MIMEType
	key      keySource
}

// decide resolves one recipient. Rules are evaluated in order; the first
// key rule that applies wins.
func decide(in decisionInput) decision {
	if in.isInternal {
		d := decision{encrypt: true, sign: true, scheme: SchemeInternal}
		switch {
		case in.hasPinnedKey:
			d.key = keyPinned
		case in.hasServerKey:
			d.key = keyServer
		}
		d.mimeType = overrideMIMEType(in.policy)
		return d
	}

	var d decision
	switch {
	case in.hasPinnedKey:
		d.encrypt = in.policy.Encrypt.Or(true)
		d.key = keyPinned
	case in.hasServerKey:
		d.encrypt = in.policy.EncryptUntrusted.Or(true)
		d.key = keyServer
	}
	if !d.encrypt {
		d.key = keyNone
	}

	d.sign = d.encrypt || in.policy.Sign.Or(in.settings.DefaultSign)
	d.scheme = selectScheme(pgpScheme(in.policy, in.settings), d.encrypt, d.sign)
	d.mimeType = selectMIMEType(d.scheme, d.sign, in.policy)
	return d
}

// pgpScheme returns the card's scheme override when it names a known
// scheme, else the account default.
func pgpScheme(policy ContactPolicy, settings MailSettings) PGPScheme {
	switch policy.Scheme {
	case contact.SchemePGPMIME:
		return PGPSchemeMIME
	case contact.SchemePGPInline:
		return PGPSchemeInline
	}
	return settings.DefaultPGPScheme
}

func selectScheme(pgp PGPScheme, encrypt, sign bool) PackageScheme {
	switch {
	case pgp == PGPSchemeMIME && encrypt:
		return SchemePGPMIME
	case pgp == PGPSchemeMIME && sign:
		return SchemeMIME
	case pgp == PGPSchemeInline && encrypt:
		return SchemePGPInline
	}
	return SchemeCleartext
}

func selectMIMEType(scheme PackageScheme, sign bool, policy ContactPolicy) MIMEType {
	switch {
	case scheme == SchemePGPMIME || scheme == SchemeMIME:
		return MIMETypeMIME
	case scheme == SchemePGPInline:
		return MIMETypePlaintext
	case scheme == SchemeCleartext && sign:
		return MIMETypePlaintext
	}
	return overrideMIMEType(policy)
}

// overrideMIMEType honors a text/plain or text/html card override.
func overrideMIMEType(policy ContactPolicy) MIMEType {
	if mt, ok := parseMIMEType(policy.MIMEType); ok && mt != MIMETypeMIME {
		return mt
	}
	return MIMETypeHTML
}
