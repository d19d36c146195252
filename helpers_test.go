package sealedsend

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	pgp "github.com/ProtonMail/gopenpgp/v2/crypto"
)

var errNotImplemented = errors.New("not implemented")

// fakeCrypto answers DeriveKeyInfo from a table. Everything else fails.
type fakeCrypto struct {
	email  string
	keys   map[string]KeyInformation
	keyErr error

	mu      sync.Mutex
	derived int
}

func (f *fakeCrypto) Email() string { return f.email }

func (f *fakeCrypto) DeriveKeyInfo(armored string) (KeyInformation, error) {
	f.mu.Lock()
	f.derived++
	f.mu.Unlock()

	info, ok := f.keys[armored]
	if !ok {
		return KeyInformation{}, ErrMalformedKey
	}
	return info, nil
}

func (f *fakeCrypto) derivations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.derived
}

func (f *fakeCrypto) ArmoredPublicKey() (string, error) {
	if f.keyErr != nil {
		return "", f.keyErr
	}
	return "own-key", nil
}

func (f *fakeCrypto) Fingerprint() string { return "own" }

func (f *fakeCrypto) ArmorKey(data []byte) (string, error) {
	return strings.TrimSpace(string(data)), nil
}

func (f *fakeCrypto) VerifySignedText(string, string) error { return nil }

func (f *fakeCrypto) DecryptSessionKey([]byte) (*SessionKey, error) { return nil, errNotImplemented }
func (f *fakeCrypto) EncryptSessionKey(*SessionKey, string) ([]byte, error) {
	return nil, errNotImplemented
}
func (f *fakeCrypto) EncryptSessionKeyWithPassword(*SessionKey, []byte) ([]byte, error) {
	return nil, errNotImplemented
}
func (f *fakeCrypto) GenerateSessionKey() (*SessionKey, error) { return nil, errNotImplemented }
func (f *fakeCrypto) DecryptBody([]byte, *SessionKey) ([]byte, error) {
	return nil, errNotImplemented
}
func (f *fakeCrypto) EncryptBody([]byte, *SessionKey) ([]byte, error) {
	return nil, errNotImplemented
}
func (f *fakeCrypto) EncryptToken([]byte, []byte) (string, error) { return "", errNotImplemented }

// Key capabilities used by the fake.
var (
	goodKey        = KeyInformation{Fingerprint: "aaaa", IsValid: true, CanEncrypt: true}
	otherGoodKey   = KeyInformation{Fingerprint: "bbbb", IsValid: true, CanEncrypt: true}
	expiredKey     = KeyInformation{Fingerprint: "cccc", IsValid: true, IsExpired: true, CanEncrypt: true}
	signOnlyKey    = KeyInformation{Fingerprint: "dddd", IsValid: true}
	revokedKey     = KeyInformation{Fingerprint: "eeee", CanEncrypt: true}
	defaultFakeKey = map[string]KeyInformation{
		"good":      goodKey,
		"good-2":    otherGoodKey,
		"expired":   expiredKey,
		"sign-only": signOnlyKey,
		"revoked":   revokedKey,
		"own-key":   {Fingerprint: "ffff", IsValid: true, CanEncrypt: true},
	}
)

func newFakeCrypto() *fakeCrypto {
	return &fakeCrypto{email: "me@example.com", keys: defaultFakeKey}
}

// fakeKeyFetcher returns canned lookups.
type fakeKeyFetcher struct {
	results map[string]PublicKeyLookupResult
	err     error

	mu    sync.Mutex
	calls [][]string
}

func (f *fakeKeyFetcher) FetchPublicKeys(_ context.Context, emails []string) (map[string]PublicKeyLookupResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), emails...))
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]PublicKeyLookupResult, len(emails))
	for _, email := range emails {
		out[email] = f.results[strings.ToLower(email)]
	}
	return out, nil
}

// fakeContactFetcher serves contacts by ID. findErrs and fetchErrs fail
// single emails and IDs; err fails every call.
type fakeContactFetcher struct {
	ids       map[string]string
	records   map[string]ContactRecord
	findErrs  map[string]error
	fetchErrs map[string]error
	err       error

	mu      sync.Mutex
	fetched [][]string
}

func (f *fakeContactFetcher) FindContactIDs(_ context.Context, emails []string) (map[string]ContactMatch, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]ContactMatch, len(emails))
	for _, email := range emails {
		key := strings.ToLower(email)
		out[email] = ContactMatch{ID: f.ids[key], Err: f.findErrs[key]}
	}
	return out, nil
}

func (f *fakeContactFetcher) FetchContactDetails(_ context.Context, ids []string) (map[string]ContactDetails, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, append([]string(nil), ids...))
	f.mu.Unlock()

	out := make(map[string]ContactDetails)
	for _, id := range ids {
		if err, ok := f.fetchErrs[id]; ok {
			out[id] = ContactDetails{Err: err}
			continue
		}
		if rec, ok := f.records[id]; ok {
			out[id] = ContactDetails{Record: rec}
		}
	}
	return out, nil
}

// errorRecorder collects reported recipient errors.
type errorRecorder struct {
	mu   sync.Mutex
	errs []*RecipientError
}

func (r *errorRecorder) handle(err *RecipientError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *errorRecorder) all() []*RecipientError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*RecipientError(nil), r.errs...)
}

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()

	opts = append([]Option{WithKeyFetcher(&fakeKeyFetcher{})}, opts...)
	c, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// generateKey creates an unlocked x25519 key for email.
func generateKey(t *testing.T, email string) *pgp.Key {
	t.Helper()

	key, err := pgp.GenerateKey("Test", email, "x25519", 0)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	return key
}

func armoredPublic(t *testing.T, key *pgp.Key) string {
	t.Helper()

	armored, err := key.GetArmoredPublicKey()
	if err != nil {
		t.Fatalf("GetArmoredPublicKey() error = %v", err)
	}
	return armored
}

// newSenderCrypto returns a real sender capability.
func newSenderCrypto(t *testing.T, email string) Crypto {
	t.Helper()

	armored, err := generateKey(t, email).Armor()
	if err != nil {
		t.Fatalf("Armor() error = %v", err)
	}
	cr, err := NewAddressCrypto(email, armored, nil)
	if err != nil {
		t.Fatalf("NewAddressCrypto() error = %v", err)
	}
	return cr
}

// decryptKeyPacket opens a key packet with key.
func decryptKeyPacket(t *testing.T, key *pgp.Key, packet []byte) []byte {
	t.Helper()

	keyRing, err := pgp.NewKeyRing(key)
	if err != nil {
		t.Fatalf("NewKeyRing() error = %v", err)
	}
	sk, err := keyRing.DecryptSessionKey(packet)
	if err != nil {
		t.Fatalf("DecryptSessionKey() error = %v", err)
	}
	return sk.Key
}
