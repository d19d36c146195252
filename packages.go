package sealedsend

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sealedsend/client-go/internal/crypto"
	"github.com/sealedsend/client-go/internal/mimebody"
)

// Package construction stages reported in PackageError.
const (
	stageBody       = "body"
	stageAttachment = "attachment"
	stageRender     = "render"
	stageAddress    = "address"
	stageSRP        = "srp"
)

// packageOrder fixes the order packages are emitted in.
var packageOrder = []MIMEType{MIMETypeMIME, MIMETypePlaintext, MIMETypeHTML}

// BuildPackages encrypts msg for every recipient in prefs, one package per
// MIME type in use. opts may be nil. Any failure aborts the whole send and
// is returned as a *PackageError.
func (c *Client) BuildPackages(ctx context.Context, cr Crypto, msg *Message, prefs map[string]SendPreference, opts *SecurityOptions) ([]*MessageSendPackage, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	if cr == nil {
		return nil, ErrMissingCrypto
	}
	if msg == nil {
		return nil, errors.New("message is required")
	}
	if msg.MIMEType != MIMETypeHTML && msg.MIMEType != MIMETypePlaintext {
		return nil, fmt.Errorf("unsupported message MIME type %q", msg.MIMEType)
	}
	if len(prefs) == 0 {
		return nil, ErrMissingPreference
	}

	settings, err := c.mailSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("mail settings: %w", err)
	}

	b := &packageBuilder{
		client:   c,
		cr:       cr,
		msg:      msg,
		opts:     opts,
		settings: settings,
		log: c.log.WithFields(logrus.Fields{
			"attempt": uuid.NewString(),
			"message": msg.ID,
		}),
	}
	return b.build(ctx, prefs)
}

// packageBuilder holds the state of one send attempt. Decrypted material is
// computed once and shared by every package and recipient.
type packageBuilder struct {
	client   *Client
	cr       Crypto
	msg      *Message
	opts     *SecurityOptions
	settings MailSettings
	log      logrus.FieldLogger

	bodyKey   *SessionKey
	attKeys   map[string]*SessionKey
	plaintext []byte
	auth      *SRPAuth
}

func (b *packageBuilder) build(ctx context.Context, prefs map[string]SendPreference) ([]*MessageSendPackage, error) {
	groups := b.partition(prefs)

	bodyKey, err := b.cr.DecryptSessionKey(b.msg.BodyKeyPacket)
	if err != nil {
		return nil, &PackageError{Stage: stageBody, Err: err}
	}
	b.bodyKey = bodyKey

	var packages []*MessageSendPackage
	for _, mimeType := range packageOrder {
		emails, ok := groups[mimeType]
		if !ok {
			continue
		}
		pkg, err := b.buildPackage(ctx, mimeType, emails, prefs)
		if err != nil {
			return nil, err
		}
		packages = append(packages, pkg)

		b.log.WithFields(logrus.Fields{
			"mimeType":   string(mimeType),
			"recipients": len(emails),
		}).Debug("built package")
	}

	b.log.WithField("packages", len(packages)).Info("send packages ready")
	return packages, nil
}

// partition groups recipients by MIME type. HTML recipients of a plaintext
// message share the plaintext package.
func (b *packageBuilder) partition(prefs map[string]SendPreference) map[MIMEType][]string {
	groups := make(map[MIMEType][]string)
	for email, pref := range prefs {
		mimeType, ok := parseMIMEType(string(pref.MIMEType))
		if !ok {
			mimeType = b.msg.MIMEType
		}
		if mimeType == MIMETypeHTML && b.msg.MIMEType == MIMETypePlaintext {
			mimeType = MIMETypePlaintext
		}
		groups[mimeType] = append(groups[mimeType], email)
	}
	for _, emails := range groups {
		sort.Strings(emails)
	}
	return groups
}

func (b *packageBuilder) buildPackage(ctx context.Context, mimeType MIMEType, emails []string, prefs map[string]SendPreference) (*MessageSendPackage, error) {
	pkg := &MessageSendPackage{
		MIMEType:  mimeType,
		Addresses: make(map[string]*AddressPackage, len(emails)),
	}

	sk := b.bodyKey
	if mimeType == b.msg.MIMEType {
		pkg.EncryptedBody = b.msg.BodyDataPacket
	} else {
		rendered, err := b.render(mimeType)
		if err != nil {
			return nil, err
		}
		if sk, err = b.cr.GenerateSessionKey(); err != nil {
			return nil, &PackageError{Stage: stageBody, Err: err}
		}
		if pkg.EncryptedBody, err = b.cr.EncryptBody(rendered, sk); err != nil {
			return nil, &PackageError{Stage: stageBody, Err: err}
		}
	}

	// Attachments are embedded in MIME bodies.
	var attKeys map[string]*SessionKey
	if mimeType != MIMETypeMIME {
		var err error
		if attKeys, err = b.attachmentKeys(); err != nil {
			return nil, err
		}
	}

	unencrypted := false
	for _, email := range emails {
		addr, err := b.address(ctx, prefs[email], sk, attKeys)
		if err != nil {
			var perr *PackageError
			if errors.As(err, &perr) {
				perr.Email = email
				return nil, perr
			}
			return nil, &PackageError{Stage: stageAddress, Email: email, Err: err}
		}
		pkg.Addresses[email] = addr
		pkg.Schemes |= addr.Scheme
		if addr.BodyKeyPacket == nil {
			unencrypted = true
		}
	}

	if unencrypted {
		pkg.BodySessionKey = sk
		pkg.AttachmentSessionKeys = attKeys
	}
	return pkg, nil
}

// address builds the package entry for one recipient.
func (b *packageBuilder) address(ctx context.Context, pref SendPreference, sk *SessionKey, attKeys map[string]*SessionKey) (*AddressPackage, error) {
	signature := pref.Sign && b.allAttachmentsSigned()

	switch {
	case pref.Encrypt:
		if !pref.HasEncryptionKey() {
			return nil, ErrNoUsableKey
		}
		encrypt := func(k *SessionKey) ([]byte, error) {
			return b.cr.EncryptSessionKey(k, pref.EncryptionKey)
		}
		return b.encryptedAddress(pref.Scheme, signature, sk, attKeys, encrypt)

	case b.usePassword(pref):
		return b.passwordAddress(ctx, sk, attKeys)
	}

	return &AddressPackage{Scheme: pref.Scheme, Signature: signature}, nil
}

func (b *packageBuilder) encryptedAddress(scheme PackageScheme, signature bool, sk *SessionKey, attKeys map[string]*SessionKey, encrypt func(*SessionKey) ([]byte, error)) (*AddressPackage, error) {
	addr := &AddressPackage{Scheme: scheme, Signature: signature}

	var err error
	if addr.BodyKeyPacket, err = encrypt(sk); err != nil {
		return nil, err
	}
	if len(attKeys) > 0 {
		addr.AttachmentKeyPackets = make(map[string][]byte, len(attKeys))
		for id, k := range attKeys {
			if addr.AttachmentKeyPackets[id], err = encrypt(k); err != nil {
				return nil, &PackageError{Stage: stageAttachment, Err: err}
			}
		}
	}
	return addr, nil
}

// usePassword reports whether pref gets an encrypt-outside package.
func (b *packageBuilder) usePassword(pref SendPreference) bool {
	return !pref.Encrypt &&
		!pref.HasEncryptionKey() &&
		pref.Scheme != SchemeInternal &&
		b.opts != nil && b.opts.Password != ""
}

func (b *packageBuilder) passwordAddress(ctx context.Context, sk *SessionKey, attKeys map[string]*SessionKey) (*AddressPackage, error) {
	password := []byte(b.opts.Password)
	encrypt := func(k *SessionKey) ([]byte, error) {
		return b.cr.EncryptSessionKeyWithPassword(k, password)
	}
	addr, err := b.encryptedAddress(SchemeEncryptOutside, false, sk, attKeys, encrypt)
	if err != nil {
		return nil, err
	}

	if addr.Token, err = crypto.NewEOToken(); err != nil {
		return nil, err
	}
	if addr.EncToken, err = b.cr.EncryptToken([]byte(addr.Token), password); err != nil {
		return nil, err
	}
	if addr.Auth, err = b.srpAuth(ctx, password); err != nil {
		return nil, err
	}
	addr.PasswordHint = b.opts.PasswordHint
	return addr, nil
}

// srpAuth generates the password verifier once per send attempt.
func (b *packageBuilder) srpAuth(ctx context.Context, password []byte) (*SRPAuth, error) {
	if b.auth != nil {
		return b.auth, nil
	}
	if b.client.srp == nil {
		return nil, &PackageError{Stage: stageSRP, Err: ErrMissingSRP}
	}
	auth, err := b.client.srp.GenerateVerifier(ctx, password)
	if err != nil {
		return nil, &PackageError{Stage: stageSRP, Err: err}
	}
	b.auth = auth
	return auth, nil
}

// attachmentKeys decrypts every attachment key packet once per send.
func (b *packageBuilder) attachmentKeys() (map[string]*SessionKey, error) {
	if b.attKeys != nil {
		return b.attKeys, nil
	}
	keys := make(map[string]*SessionKey, len(b.msg.Attachments))
	for _, att := range b.msg.Attachments {
		sk, err := b.cr.DecryptSessionKey(att.KeyPacket)
		if err != nil {
			return nil, &PackageError{Stage: stageAttachment, Err: fmt.Errorf("attachment %s: %w", att.ID, err)}
		}
		keys[att.ID] = sk
	}
	b.attKeys = keys
	return keys, nil
}

func (b *packageBuilder) allAttachmentsSigned() bool {
	for _, att := range b.msg.Attachments {
		if !att.Signed {
			return false
		}
	}
	return true
}

// nativeBody decrypts the message body once.
func (b *packageBuilder) nativeBody() ([]byte, error) {
	if b.plaintext != nil {
		return b.plaintext, nil
	}
	body, err := b.cr.DecryptBody(b.msg.BodyDataPacket, b.bodyKey)
	if err != nil {
		return nil, &PackageError{Stage: stageBody, Err: err}
	}
	b.plaintext = body
	return body, nil
}

// render converts the native body to mimeType.
func (b *packageBuilder) render(mimeType MIMEType) ([]byte, error) {
	body, err := b.nativeBody()
	if err != nil {
		return nil, err
	}

	switch mimeType {
	case MIMETypePlaintext:
		text, err := mimebody.HTMLToPlaintext(string(body))
		if err != nil {
			return nil, &PackageError{Stage: stageRender, Err: err}
		}
		return []byte(text), nil

	case MIMETypeMIME:
		parts, err := b.attachmentParts()
		if err != nil {
			return nil, err
		}
		key, err := b.senderKey()
		if err != nil {
			return nil, err
		}
		out, err := mimebody.BuildMultipart(string(body), string(b.msg.MIMEType), parts, key)
		if err != nil {
			return nil, &PackageError{Stage: stageRender, Err: err}
		}
		return out, nil
	}

	return body, nil
}

// attachmentParts decrypts the attachments for embedding.
func (b *packageBuilder) attachmentParts() ([]mimebody.Part, error) {
	keys, err := b.attachmentKeys()
	if err != nil {
		return nil, err
	}
	parts := make([]mimebody.Part, 0, len(b.msg.Attachments))
	for _, att := range b.msg.Attachments {
		data, err := b.cr.DecryptBody(att.DataPacket, keys[att.ID])
		if err != nil {
			return nil, &PackageError{Stage: stageAttachment, Err: fmt.Errorf("attachment %s: %w", att.ID, err)}
		}
		parts = append(parts, mimebody.Part{
			Filename:    att.Name,
			ContentType: att.MIMEType,
			ContentID:   att.ContentID,
			Inline:      att.Inline,
			Data:        data,
		})
	}
	return parts, nil
}

// senderKey returns the sender's public key part when the settings ask
// for it, else nil.
func (b *packageBuilder) senderKey() (*mimebody.PublicKey, error) {
	if !b.settings.AttachPublicKey {
		return nil, nil
	}
	armored, err := b.cr.ArmoredPublicKey()
	if err != nil {
		return nil, &PackageError{Stage: stageRender, Err: err}
	}
	return &mimebody.PublicKey{
		Email:       b.cr.Email(),
		Fingerprint: b.cr.Fingerprint(),
		Armored:     armored,
	}, nil
}
