package sealedsend

import (
	"testing"

	"github.com/sealedsend/client-go/internal/contact"
)

func TestDecide(t *testing.T) {
	mimeDefaults := MailSettings{DefaultPGPScheme: PGPSchemeMIME}
	inlineSigning := MailSettings{DefaultSign: true, DefaultPGPScheme: PGPSchemeInline}

	tests := []struct {
		name string
		in   decisionInput
		want decision
	}{
		{
			name: "internal ignores contact flags",
			in: decisionInput{
				isInternal:   true,
				hasServerKey: true,
				policy:       ContactPolicy{Sign: contact.FlagFalse, Encrypt: contact.FlagFalse},
				settings:     mimeDefaults,
			},
			want: decision{encrypt: true, sign: true, scheme: SchemeInternal, mimeType: MIMETypeHTML, key: keyServer},
		},
		{
			name: "internal prefers pinned key",
			in:   decisionInput{isInternal: true, hasPinnedKey: true, hasServerKey: true, settings: mimeDefaults},
			want: decision{encrypt: true, sign: true, scheme: SchemeInternal, mimeType: MIMETypeHTML, key: keyPinned},
		},
		{
			name: "internal without key stays internal",
			in:   decisionInput{isInternal: true, settings: mimeDefaults},
			want: decision{encrypt: true, sign: true, scheme: SchemeInternal, mimeType: MIMETypeHTML, key: keyNone},
		},
		{
			name: "internal honors plaintext override",
			in:   decisionInput{isInternal: true, hasServerKey: true, policy: ContactPolicy{MIMEType: "text/plain"}},
			want: decision{encrypt: true, sign: true, scheme: SchemeInternal, mimeType: MIMETypePlaintext, key: keyServer},
		},
		{
			name: "pinned key encrypts by default",
			in:   decisionInput{hasPinnedKey: true, settings: mimeDefaults},
			want: decision{encrypt: true, sign: true, scheme: SchemePGPMIME, mimeType: MIMETypeMIME, key: keyPinned},
		},
		{
			name: "pinned key with encryption disabled",
			in:   decisionInput{hasPinnedKey: true, policy: ContactPolicy{Encrypt: contact.FlagFalse}, settings: mimeDefaults},
			want: decision{scheme: SchemeCleartext, mimeType: MIMETypeHTML},
		},
		{
			name: "untrusted server key encrypts by default",
			in:   decisionInput{hasServerKey: true, settings: inlineSigning},
			want: decision{encrypt: true, sign: true, scheme: SchemePGPInline, mimeType: MIMETypePlaintext, key: keyServer},
		},
		{
			name: "untrusted server key disabled",
			in:   decisionInput{hasServerKey: true, policy: ContactPolicy{EncryptUntrusted: contact.FlagFalse}, settings: mimeDefaults},
			want: decision{scheme: SchemeCleartext, mimeType: MIMETypeHTML},
		},
		{
			name: "encrypt flag does not apply to server keys",
			in:   decisionInput{hasServerKey: true, policy: ContactPolicy{Encrypt: contact.FlagFalse}, settings: mimeDefaults},
			want: decision{encrypt: true, sign: true, scheme: SchemePGPMIME, mimeType: MIMETypeMIME, key: keyServer},
		},
		{
			name: "no key and no signing",
			in:   decisionInput{settings: mimeDefaults},
			want: decision{scheme: SchemeCleartext, mimeType: MIMETypeHTML},
		},
		{
			name: "no key signs with pgp-mime default",
			in:   decisionInput{settings: MailSettings{DefaultSign: true, DefaultPGPScheme: PGPSchemeMIME}},
			want: decision{sign: true, scheme: SchemeMIME, mimeType: MIMETypeMIME},
		},
		{
			name: "no key signs inline as plaintext",
			in:   decisionInput{settings: inlineSigning},
			want: decision{sign: true, scheme: SchemeCleartext, mimeType: MIMETypePlaintext},
		},
		{
			name: "sign flag false overrides default",
			in:   decisionInput{policy: ContactPolicy{Sign: contact.FlagFalse}, settings: inlineSigning},
			want: decision{scheme: SchemeCleartext, mimeType: MIMETypeHTML},
		},
		{
			name: "sign flag false cannot disable signing when encrypting",
			in:   decisionInput{hasPinnedKey: true, policy: ContactPolicy{Sign: contact.FlagFalse}, settings: mimeDefaults},
			want: decision{encrypt: true, sign: true, scheme: SchemePGPMIME, mimeType: MIMETypeMIME, key: keyPinned},
		},
		{
			name: "scheme override beats settings",
			in:   decisionInput{hasPinnedKey: true, policy: ContactPolicy{Scheme: "pgp-inline"}, settings: mimeDefaults},
			want: decision{encrypt: true, sign: true, scheme: SchemePGPInline, mimeType: MIMETypePlaintext, key: keyPinned},
		},
		{
			name: "unknown scheme override falls back to settings",
			in:   decisionInput{hasPinnedKey: true, policy: ContactPolicy{Scheme: "smime"}, settings: mimeDefaults},
			want: decision{encrypt: true, sign: true, scheme: SchemePGPMIME, mimeType: MIMETypeMIME, key: keyPinned},
		},
		{
			name: "plaintext override for cleartext",
			in:   decisionInput{policy: ContactPolicy{MIMEType: "text/plain"}, settings: mimeDefaults},
			want: decision{scheme: SchemeCleartext, mimeType: MIMETypePlaintext},
		},
		{
			name: "multipart override ignored for cleartext",
			in:   decisionInput{policy: ContactPolicy{MIMEType: "multipart/mixed"}, settings: mimeDefaults},
			want: decision{scheme: SchemeCleartext, mimeType: MIMETypeHTML},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decide(tt.in)
			if got != tt.want {
				t.Errorf("decide() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecide_EncryptImpliesSign(t *testing.T) {
	flags := []contact.Flag{contact.FlagUnset, contact.FlagFalse}
	schemes := []string{"", "pgp-mime", "pgp-inline"}

	for _, internal := range []bool{false, true} {
		for _, pinned := range []bool{false, true} {
			for _, server := range []bool{false, true} {
				for _, sign := range flags {
					for _, enc := range flags {
						for _, untrusted := range flags {
							for _, scheme := range schemes {
								for _, defaultSign := range []bool{false, true} {
									in := decisionInput{
										isInternal:   internal,
										hasPinnedKey: pinned,
										hasServerKey: server,
										policy: ContactPolicy{
											Sign:             sign,
											Encrypt:          enc,
											EncryptUntrusted: untrusted,
											Scheme:           scheme,
										},
										settings: MailSettings{DefaultSign: defaultSign, DefaultPGPScheme: PGPSchemeMIME},
									}
									d := decide(in)
									if d.encrypt && !d.sign {
										t.Fatalf("decide(%+v) encrypts without signing", in)
									}
									if d.encrypt != (d.key != keyNone) {
										t.Fatalf("decide(%+v) encrypt = %v with key source %v", in, d.encrypt, d.key)
									}
									if internal && d.scheme != SchemeInternal {
										t.Fatalf("decide(%+v) scheme = %v, want internal", in, d.scheme)
									}
								}
							}
						}
					}
				}
			}
		}
	}
}
