package crypto

import (
	"crypto/rand"
	"fmt"
	"io"

	pgp "github.com/ProtonMail/gopenpgp/v2/crypto"
)

// randReader is the random source for access tokens. It defaults to
// crypto/rand but can be overridden for testing.
var randReader io.Reader = rand.Reader

// NewEOToken returns a fresh random access token for an encrypt-outside
// recipient, base64 encoded.
func NewEOToken() (string, error) {
	raw := make([]byte, EOTokenSize)
	if _, err := io.ReadFull(randReader, raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return ToBase64(raw), nil
}

// EncryptToken encrypts token under password and returns the armored message
// the server later decrypts with the recipient-supplied password.
func EncryptToken(token, password []byte) (string, error) {
	message, err := pgp.EncryptMessageWithPassword(pgp.NewPlainMessage(token), password)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	armored, err := message.GetArmored()
	if err != nil {
		return "", fmt.Errorf("armor token: %w", err)
	}
	return armored, nil
}

// DecryptToken is the inverse of EncryptToken.
func DecryptToken(armored string, password []byte) ([]byte, error) {
	message, err := pgp.NewPGPMessageFromArmored(armored)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	plain, err := pgp.DecryptMessageWithPassword(message, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return plain.GetBinary(), nil
}
