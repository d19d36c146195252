package crypto

import (
	"fmt"

	"github.com/ProtonMail/go-srp"
)

// SRPAuth is the password verifier block sent along with an encrypt-outside
// package so the recipient can later authenticate with the message password.
type SRPAuth struct {
	ModulusID string
	Version   int
	Salt      string
	Verifier  string
}

// GenerateSRPVerifier derives an SRP verifier for password over the
// server-signed modulus identified by modulusID.
func GenerateSRPVerifier(password []byte, modulusID, signedModulus string) (*SRPAuth, error) {
	salt, err := srp.RandomBytes(SRPSaltSize)
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	auth, err := srp.NewAuthForVerifier(password, signedModulus, salt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModulus, err)
	}

	verifier, err := auth.GenerateVerifier(SRPBitLength)
	if err != nil {
		return nil, fmt.Errorf("generate verifier: %w", err)
	}

	return &SRPAuth{
		ModulusID: modulusID,
		Version:   auth.Version,
		Salt:      ToBase64(salt),
		Verifier:  ToBase64(verifier),
	}, nil
}
