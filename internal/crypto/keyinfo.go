package crypto

import (
	"fmt"
	"strings"
	"time"

	"github.com/ProtonMail/gopenpgp/v2/armor"
	pgp "github.com/ProtonMail/gopenpgp/v2/crypto"
)

// KeyInfo describes what an armored key can be used for.
type KeyInfo struct {
	// Fingerprint is the lowercase hex fingerprint of the primary key.
	Fingerprint string
	// IsValid is false when the key or its primary identity is revoked.
	IsValid bool
	// IsExpired reports whether the key is expired at the current time.
	IsExpired bool
	// CanEncrypt reports whether the key has a usable encryption subkey.
	CanEncrypt bool
	// ExpiresAt is when the primary key or its encryption subkey expires,
	// zero when neither does.
	ExpiresAt time.Time
}

// Usable reports whether the key may be used to encrypt a message today.
func (k KeyInfo) Usable() bool {
	return k.IsValid && !k.IsExpired && k.CanEncrypt
}

// DeriveKeyInfo parses an armored public or private key and reports its
// fingerprint and capabilities. It is safe for concurrent use.
func DeriveKeyInfo(armored string) (KeyInfo, error) {
	key, err := pgp.NewKeyFromArmored(armored)
	if err != nil {
		return KeyInfo{}, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}

	return KeyInfo{
		Fingerprint: key.GetFingerprint(),
		IsValid:     !key.IsRevoked(),
		IsExpired:   key.IsExpired(),
		CanEncrypt:  key.CanEncrypt(),
		ExpiresAt:   expiresAt(key),
	}, nil
}

// expiresAt returns the earliest expiry of the primary key and the current
// encryption subkey.
func expiresAt(key *pgp.Key) time.Time {
	var earliest time.Time
	add := func(created time.Time, lifetime *uint32) {
		if lifetime == nil || *lifetime == 0 {
			return
		}
		t := created.Add(time.Duration(*lifetime) * time.Second)
		if earliest.IsZero() || t.Before(earliest) {
			earliest = t
		}
	}

	entity := key.GetEntity()
	if id := entity.PrimaryIdentity(); id != nil && id.SelfSignature != nil {
		add(entity.PrimaryKey.CreationTime, id.SelfSignature.KeyLifetimeSecs)
	}
	if sub, ok := entity.EncryptionKey(pgp.GetTime()); ok && sub.SelfSignature != nil {
		add(sub.PublicKey.CreationTime, sub.SelfSignature.KeyLifetimeSecs)
	}
	return earliest
}

// ArmorKey armors a binary public key. Input that is already armored is
// returned unchanged, and data URIs as found in contact cards are unpacked
// first.
func ArmorKey(data []byte) (string, error) {
	text := strings.TrimSpace(string(data))
	if strings.HasPrefix(text, "-----BEGIN PGP") {
		return text, nil
	}

	binary := data
	if strings.HasPrefix(text, dataURIKeyPrefix) {
		decoded, err := DecodeBase64(strings.TrimPrefix(text, dataURIKeyPrefix))
		if err != nil {
			return "", fmt.Errorf("%w: decode data uri: %v", ErrMalformedKey, err)
		}
		binary = decoded
	}

	armored, err := armor.ArmorKey(binary)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	return armored, nil
}
