package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *UserStore {
	t.Helper()
	db, err := NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := NewUserStore(db)
	require.NoError(t, err)
	return s
}

func TestUpsert_FirstContactCreatesDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, 42, Patch{}))

	rec, err := s.Get(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(42), rec.UserID)
	assert.Equal(t, "google", rec.DefaultProvider)
	assert.Empty(t, rec.GeminiKey)
	assert.Empty(t, rec.GPTKey)
	assert.Empty(t, rec.ClaudeKey)
}

func TestGet_UnknownUserIsAbsent(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.Get(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestUpsert_PartialUpdateKeepsOtherFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, 7, Patch{GeminiKey: StringPtr("AIza-test")}))
	// Changing the default provider must not clear the previously stored key.
	require.NoError(t, s.Upsert(ctx, 7, Patch{DefaultProvider: StringPtr("gemini")}))

	rec, err := s.Get(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "gemini", rec.DefaultProvider)
	assert.Equal(t, "AIza-test", rec.GeminiKey)
}

func TestUpsert_CredentialSetLeavesDefaultUntouched(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, 8, Patch{GPTKey: StringPtr("sk-test123")}))

	rec, err := s.Get(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, "google", rec.DefaultProvider)
	assert.Equal(t, "sk-test123", rec.GPTKey)
}

func TestUpsert_OverwriteSameSlot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, 9, Patch{ClaudeKey: StringPtr("old")}))
	require.NoError(t, s.Upsert(ctx, 9, Patch{ClaudeKey: StringPtr("new")}))

	rec, err := s.Get(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, "new", rec.ClaudeKey)
}

func TestUpsert_FirstContactWithFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, 10, Patch{GeminiKey: StringPtr("k1")}))

	rec, err := s.Get(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "google", rec.DefaultProvider)
	assert.Equal(t, "k1", rec.GeminiKey)
}

func TestUpsert_EmptyPatchOnExistingIssuesNoWrite(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := &UserStore{db: db}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	// No INSERT and no UPDATE expected before the commit.
	mock.ExpectCommit()

	require.NoError(t, s.Upsert(context.Background(), 5, Patch{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_StorageFailureIsNotMasked(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := &UserStore{db: db}
	boom := errors.New("disk I/O error")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(6)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec("UPDATE users").WillReturnError(boom)
	mock.ExpectRollback()

	err = s.Upsert(context.Background(), 6, Patch{GPTKey: StringPtr("sk")})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestCredential(t *testing.T) {
	rec := &UserRecord{GeminiKey: "g", GPTKey: "o", ClaudeKey: "c"}

	assert.Equal(t, "g", rec.Credential("gemini"))
	assert.Equal(t, "o", rec.Credential("gpt"))
	assert.Equal(t, "c", rec.Credential("claude"))
	assert.Empty(t, rec.Credential("google"))
	assert.Empty(t, rec.Credential("bogus"))
}
