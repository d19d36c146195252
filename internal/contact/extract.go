package contact

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/emersion/go-vcard"

	"github.com/sealedsend/client-go/internal/crypto"
)

const dataURIPrefix = "data:"

// Crypto is the subset of the OpenPGP capability Extract needs.
type Crypto interface {
	VerifySignedText(text, armoredSignature string) error
	ArmorKey(data []byte) (string, error)
}

// Extract reads the policy rec defines for email. A contact without a group
// for email yields an empty policy and no error. Keys that cannot be armored
// are skipped.
func Extract(rec Record, email string, c Crypto) (Policy, error) {
	var clear, signed vcard.Card
	var err error

	if rec.ClearCard != "" {
		if clear, err = decodeCard(rec.ClearCard); err != nil {
			return Policy{}, err
		}
	}
	if rec.SignedCard != "" {
		if signed, err = decodeCard(rec.SignedCard); err != nil {
			return Policy{}, err
		}
	}

	var policy Policy
	if signed != nil && rec.Signature != "" {
		policy.IsSignatureValid = c.VerifySignedText(rec.SignedCard, rec.Signature) == nil
	}

	group := findGroup(email, signed, clear)
	if group == "" {
		return policy, nil
	}
	policy.Found = true
	policy.Group = group

	if signed == nil {
		return policy, nil
	}

	for _, field := range sortByPref(groupFields(signed, vcard.FieldKey, group)) {
		armored, err := armorKeyValue(field.Value, c)
		if err != nil {
			continue
		}
		policy.PinnedKeys = append(policy.PinnedKeys, armored)
	}

	policy.Sign = parseFlag(firstValue(signed, FieldPMSign, group))
	policy.Encrypt = parseFlag(firstValue(signed, FieldPMEncrypt, group))
	policy.EncryptUntrusted = parseFlag(firstValue(signed, FieldPMEncryptUntrusted, group))
	policy.Scheme = strings.ToLower(strings.TrimSpace(firstValue(signed, FieldPMScheme, group)))
	policy.MIMEType = strings.ToLower(strings.TrimSpace(firstValue(signed, FieldPMMIMEType, group)))

	return policy, nil
}

func decodeCard(text string) (vcard.Card, error) {
	card, err := vcard.NewDecoder(strings.NewReader(text)).Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContactParse, err)
	}
	return card, nil
}

// findGroup returns the group of the first EMAIL property matching email,
// looking at the signed card before the cleartext one.
func findGroup(email string, cards ...vcard.Card) string {
	for _, card := range cards {
		for _, field := range fields(card, vcard.FieldEmail) {
			if field.Group != "" && strings.EqualFold(strings.TrimSpace(field.Value), email) {
				return field.Group
			}
		}
	}
	return ""
}

func fields(card vcard.Card, name string) []*vcard.Field {
	for key, fields := range card {
		if strings.EqualFold(key, name) {
			return fields
		}
	}
	return nil
}

func groupFields(card vcard.Card, name, group string) []*vcard.Field {
	var out []*vcard.Field
	for _, field := range fields(card, name) {
		if strings.EqualFold(field.Group, group) {
			out = append(out, field)
		}
	}
	return out
}

func firstValue(card vcard.Card, name, group string) string {
	matched := groupFields(card, name, group)
	if len(matched) == 0 {
		return ""
	}
	return matched[0].Value
}

// sortByPref orders fields by ascending PREF. Fields without a usable PREF go
// last and ties keep card order.
func sortByPref(in []*vcard.Field) []*vcard.Field {
	out := make([]*vcard.Field, len(in))
	copy(out, in)

	sort.SliceStable(out, func(i, j int) bool {
		return pref(out[i]) < pref(out[j])
	})
	return out
}

func pref(field *vcard.Field) int {
	for key, values := range field.Params {
		if !strings.EqualFold(key, vcard.ParamPreferred) || len(values) == 0 {
			continue
		}
		if n, err := strconv.Atoi(values[0]); err == nil {
			return n
		}
	}
	return int(^uint(0) >> 1)
}

// armorKeyValue accepts an armored key, a data URI or bare base64.
func armorKeyValue(value string, c Crypto) (string, error) {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, dataURIPrefix) || strings.HasPrefix(value, "-----BEGIN PGP") {
		return c.ArmorKey([]byte(value))
	}

	binary, err := crypto.DecodeBase64(value)
	if err != nil {
		return "", err
	}
	return c.ArmorKey(binary)
}
