// Package store keeps a local copy of contact records so repeated sends do
// not refetch unchanged contacts.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/sealedsend/client-go/internal/contact"
)

// ErrMissingID is returned when inserting a record without an ID.
var ErrMissingID = errors.New("contact record has no ID")

// SQLiteStore is a contact store backed by a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// Open opens (or creates) the database at path and applies pending
// migrations. ":memory:" gives a private in-memory store.
func Open(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// A single connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(&tableCount, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'")
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		if err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}
	return nil
}

type contactRow struct {
	ID         string `db:"id"`
	ClearCard  string `db:"clear_card"`
	SignedCard string `db:"signed_card"`
	Signature  string `db:"signature"`
}

// FindByEmail returns the most recently stored contact listing email, or
// nil when there is none.
func (s *SQLiteStore) FindByEmail(ctx context.Context, email string) (*contact.Record, error) {
	const query = `
		SELECT c.id, c.clear_card, c.signed_card, c.signature
		FROM contacts c
		JOIN contact_emails e ON e.contact_id = c.id
		WHERE e.email = ?
		ORDER BY c.updated_at DESC
		LIMIT 1`

	var row contactRow
	if err := s.db.GetContext(ctx, &row, query, normalize(email)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding contact for %s: %w", email, err)
	}

	var emails []string
	err := s.db.SelectContext(ctx, &emails, "SELECT email FROM contact_emails WHERE contact_id = ? ORDER BY email", row.ID)
	if err != nil {
		return nil, fmt.Errorf("loading emails of contact %s: %w", row.ID, err)
	}

	return &contact.Record{
		ID:         row.ID,
		Emails:     emails,
		ClearCard:  row.ClearCard,
		SignedCard: row.SignedCard,
		Signature:  row.Signature,
	}, nil
}

// Insert stores rec, replacing any previous version with the same ID.
func (s *SQLiteStore) Insert(ctx context.Context, rec contact.Record) error {
	if rec.ID == "" {
		return ErrMissingID
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO contacts (id, clear_card, signed_card, signature, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.ClearCard, rec.SignedCard, rec.Signature, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting contact %s: %w", rec.ID, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM contact_emails WHERE contact_id = ?", rec.ID); err != nil {
		return fmt.Errorf("clearing emails of contact %s: %w", rec.ID, err)
	}

	for _, email := range rec.Emails {
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO contact_emails (contact_id, email) VALUES (?, ?)",
			rec.ID, normalize(email),
		)
		if err != nil {
			return fmt.Errorf("inserting email of contact %s: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
