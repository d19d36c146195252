package crypto

import (
	"fmt"

	pgp "github.com/ProtonMail/gopenpgp/v2/crypto"
)

// SessionKey is a raw symmetric key together with its cipher name.
type SessionKey struct {
	// Algorithm is the OpenPGP cipher name, e.g. "aes256".
	Algorithm string
	// Key is the raw key material.
	Key []byte
}

func (sk *SessionKey) toPGP() *pgp.SessionKey {
	return pgp.NewSessionKeyFromToken(sk.Key, sk.Algorithm)
}

func fromPGP(sk *pgp.SessionKey) *SessionKey {
	key := make([]byte, len(sk.Key))
	copy(key, sk.Key)
	return &SessionKey{Algorithm: sk.Algo, Key: key}
}

// GenerateSessionKey creates a fresh AES-256 session key.
func GenerateSessionKey() (*SessionKey, error) {
	sk, err := pgp.GenerateSessionKeyAlgo(SessionKeyAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("generate session key: %w", err)
	}
	return fromPGP(sk), nil
}

// EncryptSessionKey wraps a session key for the given armored public key and
// returns the binary public-key encrypted session key packet.
func EncryptSessionKey(sk *SessionKey, armoredPublicKey string) ([]byte, error) {
	key, err := pgp.NewKeyFromArmored(armoredPublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	if !key.CanEncrypt() {
		return nil, ErrNoEncryptionKey
	}

	keyRing, err := pgp.NewKeyRing(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionKeyEncryption, err)
	}

	packet, err := keyRing.EncryptSessionKey(sk.toPGP())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionKeyEncryption, err)
	}
	return packet, nil
}

// EncryptSessionKeyWithPassword wraps a session key under a password and
// returns the binary symmetric-key encrypted session key packet.
func EncryptSessionKeyWithPassword(sk *SessionKey, password []byte) ([]byte, error) {
	packet, err := pgp.EncryptSessionKeyWithPassword(sk.toPGP(), password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionKeyEncryption, err)
	}
	return packet, nil
}

// DecryptSessionKeyWithPassword is the inverse of EncryptSessionKeyWithPassword.
func DecryptSessionKeyWithPassword(keyPacket, password []byte) (*SessionKey, error) {
	sk, err := pgp.DecryptSessionKeyWithPassword(keyPacket, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionKeyDecryption, err)
	}
	return fromPGP(sk), nil
}

// DecryptData decrypts a symmetrically encrypted data packet.
func DecryptData(dataPacket []byte, sk *SessionKey) ([]byte, error) {
	message, err := sk.toPGP().Decrypt(dataPacket)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return message.GetBinary(), nil
}
