// Package mimebody re-renders a message body for recipients that need a
// different shape than the draft was composed in: HTML to a Markdown-like
// plaintext, or a complete multipart/mixed entity with attachments embedded.
package mimebody
