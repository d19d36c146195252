package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations. Versions are
// sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS contacts (
	id          TEXT PRIMARY KEY,
	clear_card  TEXT NOT NULL DEFAULT '',
	signed_card TEXT NOT NULL DEFAULT '',
	signature   TEXT NOT NULL DEFAULT '',
	updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS contact_emails (
	contact_id TEXT NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
	email      TEXT NOT NULL,
	PRIMARY KEY (contact_id, email)
);

CREATE INDEX IF NOT EXISTS idx_contact_emails_email ON contact_emails(email);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
