package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealedsend/client-go/internal/contact"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_InsertAndFind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := contact.Record{
		ID:         "c1",
		Emails:     []string{"Bob@Example.com", "bob@work.example.com"},
		ClearCard:  "clear",
		SignedCard: "signed",
		Signature:  "sig",
	}
	require.NoError(t, s.Insert(ctx, rec))

	got, err := s.FindByEmail(ctx, "BOB@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "c1", got.ID)
	assert.Equal(t, "signed", got.SignedCard)
	assert.Equal(t, "sig", got.Signature)
	assert.Equal(t, []string{"bob@example.com", "bob@work.example.com"}, got.Emails)
}

func TestSQLiteStore_FindMissing(t *testing.T) {
	s := newTestStore(t)

	got, err := s.FindByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_InsertReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, contact.Record{ID: "c1", Emails: []string{"old@example.com"}, SignedCard: "v1"}))
	require.NoError(t, s.Insert(ctx, contact.Record{ID: "c1", Emails: []string{"new@example.com"}, SignedCard: "v2"}))

	old, err := s.FindByEmail(ctx, "old@example.com")
	require.NoError(t, err)
	assert.Nil(t, old)

	got, err := s.FindByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "v2", got.SignedCard)
}

func TestSQLiteStore_InsertRequiresID(t *testing.T) {
	s := newTestStore(t)
	assert.ErrorIs(t, s.Insert(context.Background(), contact.Record{}), ErrMissingID)
}

func TestOpen_ReappliesNothingOnReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Insert(context.Background(), contact.Record{ID: "c1", Emails: []string{"a@example.com"}}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	var versions int
	require.NoError(t, s.db.Get(&versions, "SELECT COUNT(*) FROM schema_version"))
	assert.Equal(t, 1, versions)

	got, err := s.FindByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
}
