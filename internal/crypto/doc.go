// Package crypto provides the OpenPGP operations needed to turn a draft into
// per-recipient send packages. It wraps gopenpgp v2 and go-srp behind a small
// surface of session-key and key-information helpers.
//
// # Session Keys
//
// A message body and each attachment are encrypted once with a symmetric
// session key. Recipients receive that session key wrapped for them:
//
//   - [EncryptSessionKey]: public-key wrapping for a recipient key.
//   - [EncryptSessionKeyWithPassword]: symmetric wrapping for encrypt-outside
//     recipients that have no key.
//
// The sender's own copy is unwrapped with [AddressCrypto.DecryptSessionKey].
//
// # Key Information
//
// [DeriveKeyInfo] reports fingerprint, revocation, expiry and encryption
// capability of an armored key. It has no side effects and may be called
// concurrently; callers cache results by key if they need to.
//
// # Encrypt Outside
//
// Recipients without a key may receive a password-protected message. The
// package needs a random token ([NewEOToken]), the token encrypted under the
// password ([EncryptToken]) and an SRP verifier ([GenerateSRPVerifier]).
//
// Keep unlocked key rings and raw session keys out of logs.
package crypto
