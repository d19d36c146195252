package sealedsend

import (
	"context"
	"fmt"

	"github.com/sealedsend/client-go/internal/crypto"
)

// NewAddressCrypto unlocks the armored private key of a sending address. A
// nil passphrase means the key is stored unlocked. contactKeys are the
// armored public user keys that sign the account's contact cards; without
// them cards are checked against the address key and rarely verify.
func NewAddressCrypto(email, armoredPrivateKey string, passphrase []byte, contactKeys ...string) (Crypto, error) {
	ac, err := crypto.NewAddressCryptoFromArmored(email, armoredPrivateKey, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoOperationFailed, err)
	}
	if len(contactKeys) == 0 {
		return ac, nil
	}
	if ac, err = ac.WithContactKeys(contactKeys...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoOperationFailed, err)
	}
	return ac, nil
}

// ModulusSource returns a server-signed SRP modulus and its ID.
type ModulusSource interface {
	GetModulus(ctx context.Context) (modulus, modulusID string, err error)
}

type modulusSRP struct {
	source ModulusSource
}

// NewSRPGenerator returns an SRPGenerator that fetches a fresh modulus from
// source for every verifier.
func NewSRPGenerator(source ModulusSource) SRPGenerator {
	return &modulusSRP{source: source}
}

func (g *modulusSRP) GenerateVerifier(ctx context.Context, password []byte) (*SRPAuth, error) {
	modulus, modulusID, err := g.source.GetModulus(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch modulus: %w", wrapError(err))
	}
	return crypto.GenerateSRPVerifier(password, modulusID, modulus)
}
