package crypto

import "errors"

var (
	// ErrMalformedKey is returned when an armored key cannot be parsed.
	ErrMalformedKey = errors.New("malformed key")

	// ErrNoEncryptionKey is returned when a public key has no usable encryption subkey.
	ErrNoEncryptionKey = errors.New("key cannot encrypt")

	// ErrSessionKeyDecryption is returned when a key packet cannot be decrypted
	// with the sender's address keys.
	ErrSessionKeyDecryption = errors.New("session key decryption failed")

	// ErrSessionKeyEncryption is returned when a session key cannot be wrapped.
	ErrSessionKeyEncryption = errors.New("session key encryption failed")

	// ErrDecryptionFailed is returned when a data packet cannot be decrypted.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrEncryptionFailed is returned when a data packet cannot be produced.
	ErrEncryptionFailed = errors.New("encryption failed")

	// ErrSignatureVerificationFailed is returned when a detached signature
	// does not match the signed text.
	ErrSignatureVerificationFailed = errors.New("signature verification failed")

	// ErrLockedKeyRing is returned when the sender key ring holds no unlocked key.
	ErrLockedKeyRing = errors.New("key ring has no unlocked keys")

	// ErrInvalidModulus is returned when the SRP modulus is not a valid signed message.
	ErrInvalidModulus = errors.New("invalid SRP modulus")
)
