package crypto

import (
	"testing"

	pgp "github.com/ProtonMail/gopenpgp/v2/crypto"
)

func generateKey(t *testing.T, email string) *pgp.Key {
	t.Helper()

	key, err := pgp.GenerateKey("Test", email, "x25519", 0)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	return key
}

func armoredPublicKey(t *testing.T, key *pgp.Key) string {
	t.Helper()

	armored, err := key.GetArmoredPublicKey()
	if err != nil {
		t.Fatalf("GetArmoredPublicKey() error = %v", err)
	}
	return armored
}

func newAddressCrypto(t *testing.T, email string) (*AddressCrypto, *pgp.Key) {
	t.Helper()

	key := generateKey(t, email)
	keyRing, err := pgp.NewKeyRing(key)
	if err != nil {
		t.Fatalf("NewKeyRing() error = %v", err)
	}

	ac, err := NewAddressCrypto(email, keyRing)
	if err != nil {
		t.Fatalf("NewAddressCrypto() error = %v", err)
	}
	return ac, key
}
