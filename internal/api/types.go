package api

// Recipient types returned by the key endpoint.
const (
	RecipientTypeInternal = 1
	RecipientTypeExternal = 2
)

// Key flag bits.
const (
	KeyFlagNotCompromised = 1 << 0
	KeyFlagNotObsolete    = 1 << 1
)

// Contact card types.
const (
	CardTypeClear           = 0
	CardTypeEncrypted       = 1
	CardTypeSigned          = 2
	CardTypeEncryptedSigned = 3
)

// PublicKey is one entry of the key endpoint response.
type PublicKey struct {
	Flags     int    `json:"Flags"`
	PublicKey string `json:"PublicKey"`
}

// AllowedForSending reports whether the key may be used to encrypt to the
// address.
func (k PublicKey) AllowedForSending() bool {
	return k.Flags&KeyFlagNotObsolete != 0
}

// KeysResponse represents the GET /core/v4/keys response.
type KeysResponse struct {
	Code          int         `json:"Code"`
	RecipientType int         `json:"RecipientType"`
	MIMEType      string      `json:"MIMEType"`
	Keys          []PublicKey `json:"Keys"`
}

// KeyLookup is the outcome of looking up one email. Err is set when the
// lookup failed and the other fields are then zero.
type KeyLookup struct {
	RecipientType int
	Keys          []PublicKey
	Err           error
}

// ContactMatch is the outcome of searching contacts for one email.
// ContactID is empty when no contact lists the email.
type ContactMatch struct {
	ContactID string
	Err       error
}

// ContactFetch is the outcome of fetching one contact.
type ContactFetch struct {
	Contact *Contact
	Err     error
}

// ContactEmail links an email address to a contact.
type ContactEmail struct {
	ID        string `json:"ID"`
	Email     string `json:"Email"`
	ContactID string `json:"ContactID"`
}

// ContactEmailsResponse represents the GET /contacts/v4/contacts/emails response.
type ContactEmailsResponse struct {
	Code          int            `json:"Code"`
	ContactEmails []ContactEmail `json:"ContactEmails"`
	Total         int            `json:"Total"`
}

// Card is one vCard of a contact.
type Card struct {
	Type      int    `json:"Type"`
	Data      string `json:"Data"`
	Signature string `json:"Signature"`
}

// Contact is a contact with its cards.
type Contact struct {
	ID            string         `json:"ID"`
	Name          string         `json:"Name"`
	ContactEmails []ContactEmail `json:"ContactEmails"`
	Cards         []Card         `json:"Cards"`
}

// Card returns the first card of the given type.
func (c *Contact) Card(cardType int) (Card, bool) {
	for _, card := range c.Cards {
		if card.Type == cardType {
			return card, true
		}
	}
	return Card{}, false
}

// ContactResponse represents the GET /contacts/v4/contacts/{id} response.
type ContactResponse struct {
	Code    int     `json:"Code"`
	Contact Contact `json:"Contact"`
}

// ModulusResponse represents the GET /core/v4/auth/modulus response.
type ModulusResponse struct {
	Code      int    `json:"Code"`
	Modulus   string `json:"Modulus"`
	ModulusID string `json:"ModulusID"`
}
