package mimebody

import (
	"bytes"
	"io"
	"testing"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readPart struct {
	contentType string
	filename    string
	body        string
}

func readMultipart(t *testing.T, raw []byte) []readPart {
	t.Helper()

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer mr.Close()

	contentType, _, err := mr.Header.ContentType()
	require.NoError(t, err)
	require.Equal(t, "multipart/mixed", contentType)

	var parts []readPart
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		body, err := io.ReadAll(p.Body)
		require.NoError(t, err)

		var rp readPart
		rp.body = string(body)
		switch h := p.Header.(type) {
		case *mail.InlineHeader:
			rp.contentType, _, _ = h.ContentType()
		case *mail.AttachmentHeader:
			rp.contentType, _, _ = h.ContentType()
			rp.filename, _ = h.Filename()
		}
		parts = append(parts, rp)
	}
	return parts
}

func TestBuildMultipart(t *testing.T) {
	raw, err := BuildMultipart("<p>Hello</p>", "text/html", []Part{
		{Filename: "report.pdf", ContentType: "application/pdf", Data: []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0xff}},
	}, nil)
	require.NoError(t, err)

	parts := readMultipart(t, raw)
	require.Len(t, parts, 2)

	assert.Equal(t, "text/html", parts[0].contentType)
	assert.Equal(t, "<p>Hello</p>", parts[0].body)

	assert.Equal(t, "application/pdf", parts[1].contentType)
	assert.Equal(t, "report.pdf", parts[1].filename)
	assert.Equal(t, string([]byte{0x25, 0x50, 0x44, 0x46, 0x00, 0xff}), parts[1].body)
}

func TestBuildMultipart_PublicKey(t *testing.T) {
	key := &PublicKey{
		Email:       "alice@example.com",
		Fingerprint: "abcdef0123456789",
		Armored:     "-----BEGIN PGP PUBLIC KEY BLOCK-----\n...\n-----END PGP PUBLIC KEY BLOCK-----",
	}

	raw, err := BuildMultipart("plain text", "text/plain", nil, key)
	require.NoError(t, err)

	parts := readMultipart(t, raw)
	require.Len(t, parts, 2)

	assert.Equal(t, "text/plain", parts[0].contentType)
	assert.Equal(t, "plain text", parts[0].body)

	assert.Equal(t, "application/pgp-keys", parts[1].contentType)
	assert.Equal(t, "publickey - alice@example.com - 0xABCDEF01.asc", parts[1].filename)
	assert.Equal(t, key.Armored, parts[1].body)
}

func TestBuildMultipart_InlinePart(t *testing.T) {
	raw, err := BuildMultipart("<img src=\"cid:logo\">", "text/html", []Part{
		{Filename: "logo.png", ContentType: "image/png", ContentID: "<logo>", Inline: true, Data: []byte("png")},
	}, nil)
	require.NoError(t, err)

	assert.Contains(t, string(raw), "<logo>")

	parts := readMultipart(t, raw)
	require.Len(t, parts, 2)
	assert.Equal(t, "png", parts[1].body)
}

func TestPublicKeyFilename_ShortFingerprint(t *testing.T) {
	key := PublicKey{Email: "a@example.com", Fingerprint: "abc"}
	assert.Equal(t, "publickey - a@example.com - 0xABC.asc", key.Filename())
}
