package crypto

import "github.com/ProtonMail/gopenpgp/v2/constants"

const (
	// SessionKeyAlgorithm is the symmetric cipher used for freshly generated
	// body session keys.
	SessionKeyAlgorithm = constants.AES256

	// EOTokenSize is the size of the random access token generated for
	// encrypt-outside recipients, in bytes.
	EOTokenSize = 32

	// SRPSaltSize is the size of the random salt fed into the SRP verifier.
	SRPSaltSize = 10
	// SRPBitLength is the modulus size of the SRP group.
	SRPBitLength = 2048
	// SRPVersion is the password hashing version understood by the server.
	SRPVersion = 4

	// PublicKeyArmorType is the armor header of an OpenPGP public key block.
	PublicKeyArmorType = constants.PublicKeyHeader

	// dataURIKeyPrefix is how contact cards embed binary keys.
	dataURIKeyPrefix = "data:application/pgp-keys;base64,"
)
