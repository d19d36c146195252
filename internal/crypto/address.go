package crypto

import (
	"fmt"

	pgp "github.com/ProtonMail/gopenpgp/v2/crypto"
)

// AddressCrypto is the OpenPGP capability of one sender address. It holds the
// address's unlocked private keys and is passed explicitly into every
// resolution and packaging call. It is immutable and safe for concurrent use.
type AddressCrypto struct {
	email   string
	keyRing *pgp.KeyRing
	// contactRing verifies signed contact cards; nil means keyRing.
	contactRing *pgp.KeyRing
}

// NewAddressCrypto wraps an unlocked key ring for the given address.
func NewAddressCrypto(email string, keyRing *pgp.KeyRing) (*AddressCrypto, error) {
	if keyRing == nil || keyRing.CountDecryptionEntities() == 0 {
		return nil, ErrLockedKeyRing
	}
	return &AddressCrypto{email: email, keyRing: keyRing}, nil
}

// NewAddressCryptoFromArmored unlocks an armored private key with the given
// passphrase. A nil passphrase means the key is stored unlocked.
func NewAddressCryptoFromArmored(email, armoredPrivateKey string, passphrase []byte) (*AddressCrypto, error) {
	key, err := pgp.NewKeyFromArmored(armoredPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}

	if passphrase != nil {
		key, err = key.Unlock(passphrase)
		if err != nil {
			return nil, fmt.Errorf("unlock key: %w", err)
		}
	}

	keyRing, err := pgp.NewKeyRing(key)
	if err != nil {
		return nil, fmt.Errorf("build key ring: %w", err)
	}
	return NewAddressCrypto(email, keyRing)
}

// WithContactKeys returns a copy of a that verifies signed contact cards
// against the given armored public keys. Contact cards are signed by the
// account's user keys, not by the address keys.
func (a *AddressCrypto) WithContactKeys(armored ...string) (*AddressCrypto, error) {
	ring, err := pgp.NewKeyRing(nil)
	if err != nil {
		return nil, fmt.Errorf("build key ring: %w", err)
	}
	for _, k := range armored {
		key, err := pgp.NewKeyFromArmored(k)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
		}
		if err := ring.AddKey(key); err != nil {
			return nil, fmt.Errorf("add contact key: %w", err)
		}
	}

	c := *a
	c.contactRing = ring
	return &c, nil
}

// Email returns the sender address this capability belongs to.
func (a *AddressCrypto) Email() string {
	return a.email
}

// DecryptSessionKey decrypts a key packet addressed to the sender.
func (a *AddressCrypto) DecryptSessionKey(keyPacket []byte) (*SessionKey, error) {
	sk, err := a.keyRing.DecryptSessionKey(keyPacket)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionKeyDecryption, err)
	}
	return fromPGP(sk), nil
}

// EncryptSessionKey wraps sk for a recipient public key.
func (a *AddressCrypto) EncryptSessionKey(sk *SessionKey, armoredPublicKey string) ([]byte, error) {
	return EncryptSessionKey(sk, armoredPublicKey)
}

// EncryptSessionKeyWithPassword wraps sk under a message password.
func (a *AddressCrypto) EncryptSessionKeyWithPassword(sk *SessionKey, password []byte) ([]byte, error) {
	return EncryptSessionKeyWithPassword(sk, password)
}

// GenerateSessionKey creates a fresh body session key.
func (a *AddressCrypto) GenerateSessionKey() (*SessionKey, error) {
	return GenerateSessionKey()
}

// DecryptBody decrypts a body or attachment data packet.
func (a *AddressCrypto) DecryptBody(dataPacket []byte, sk *SessionKey) ([]byte, error) {
	return DecryptData(dataPacket, sk)
}

// EncryptBody encrypts and signs plaintext with sk, returning the data packet.
func (a *AddressCrypto) EncryptBody(plaintext []byte, sk *SessionKey) ([]byte, error) {
	dataPacket, err := sk.toPGP().EncryptAndSign(pgp.NewPlainMessage(plaintext), a.keyRing)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	return dataPacket, nil
}

// DeriveKeyInfo reports the capabilities of an armored key.
func (a *AddressCrypto) DeriveKeyInfo(armored string) (KeyInfo, error) {
	return DeriveKeyInfo(armored)
}

// VerifySignedText checks a detached armored signature over text against the
// contact keys set with WithContactKeys, or the sender's keys when none are.
func (a *AddressCrypto) VerifySignedText(text, armoredSignature string) error {
	signature, err := pgp.NewPGPSignatureFromArmored(armoredSignature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureVerificationFailed, err)
	}

	ring := a.keyRing
	if a.contactRing != nil {
		ring = a.contactRing
	}
	if err := ring.VerifyDetached(pgp.NewPlainMessageFromString(text), signature, pgp.GetUnixTime()); err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureVerificationFailed, err)
	}
	return nil
}

// ArmorKey armors a binary key.
func (a *AddressCrypto) ArmorKey(data []byte) (string, error) {
	return ArmorKey(data)
}

// ArmoredPublicKey returns the sender's primary public key, armored.
func (a *AddressCrypto) ArmoredPublicKey() (string, error) {
	key, err := a.keyRing.GetKey(0)
	if err != nil {
		return "", err
	}
	return key.GetArmoredPublicKey()
}

// Fingerprint returns the fingerprint of the sender's primary key.
func (a *AddressCrypto) Fingerprint() string {
	key, err := a.keyRing.GetKey(0)
	if err != nil {
		return ""
	}
	return key.GetFingerprint()
}

// EncryptToken encrypts an access token under a password and returns the
// armored message.
func (a *AddressCrypto) EncryptToken(token, password []byte) (string, error) {
	return EncryptToken(token, password)
}
