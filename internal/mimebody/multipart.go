package mimebody

import (
	"bytes"
	"fmt"
	"mime"
	"strings"

	"github.com/emersion/go-message/mail"
)

// Part is a decrypted attachment embedded in a multipart body.
type Part struct {
	Filename    string
	ContentType string
	ContentID   string
	Inline      bool
	Data        []byte
}

// PublicKey is the sender key attached when the mail settings ask for it.
type PublicKey struct {
	Email       string
	Fingerprint string
	Armored     string
}

// Filename returns the conventional name of an attached public key.
func (k PublicKey) Filename() string {
	fp := k.Fingerprint
	if len(fp) > 8 {
		fp = fp[:8]
	}
	return fmt.Sprintf("publickey - %s - 0x%s.asc", k.Email, strings.ToUpper(fp))
}

// BuildMultipart renders body followed by parts as a multipart/mixed entity.
// bodyType is the media type of body, text/html or text/plain. A non-nil key
// is appended as a final application/pgp-keys attachment.
func BuildMultipart(body, bodyType string, parts []Part, key *PublicKey) ([]byte, error) {
	var buf bytes.Buffer

	var h mail.Header
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create multipart writer: %w", err)
	}

	var bh mail.InlineHeader
	bh.SetContentType(bodyType, map[string]string{"charset": "utf-8"})
	bh.Set("Content-Transfer-Encoding", "quoted-printable")

	w, err := mw.CreateSingleInline(bh)
	if err != nil {
		return nil, fmt.Errorf("create body part: %w", err)
	}
	if _, err := w.Write([]byte(body)); err != nil {
		return nil, fmt.Errorf("write body part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close body part: %w", err)
	}

	if key != nil {
		parts = append(parts, Part{
			Filename:    key.Filename(),
			ContentType: "application/pgp-keys",
			Data:        []byte(key.Armored),
		})
	}

	for _, part := range parts {
		if err := writePart(mw, part); err != nil {
			return nil, fmt.Errorf("write attachment %q: %w", part.Filename, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}
	return buf.Bytes(), nil
}

func writePart(mw *mail.Writer, part Part) error {
	contentType := part.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var ah mail.AttachmentHeader
	ah.SetContentType(contentType, map[string]string{"name": part.Filename})
	if part.Inline {
		ah.Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": part.Filename}))
	} else {
		ah.SetFilename(part.Filename)
	}
	if part.ContentID != "" {
		ah.Set("Content-ID", "<"+strings.Trim(part.ContentID, "<>")+">")
	}
	ah.Set("Content-Transfer-Encoding", "base64")

	w, err := mw.CreateAttachment(ah)
	if err != nil {
		return err
	}
	if _, err := w.Write(part.Data); err != nil {
		return err
	}
	return w.Close()
}
