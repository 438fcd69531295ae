package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relaybot/pkg/provider"
	"relaybot/pkg/store"
)

func newTestRouter(t *testing.T) (*Router, *store.UserStore) {
	t.Helper()
	db, err := store.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users, err := store.NewUserStore(db)
	require.NoError(t, err)
	return New(users), users
}

func TestResolve_DefaultProvider(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := &store.UserRecord{UserID: 1, DefaultProvider: provider.Google}

	call, err := r.Resolve(rec, "")
	require.NoError(t, err)
	assert.Equal(t, provider.Google, call.Provider.ID)
	assert.Empty(t, call.Credential)
}

func TestResolve_MissingCredential(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := &store.UserRecord{UserID: 1, DefaultProvider: provider.GPT}

	_, err := r.Resolve(rec, "")
	require.Error(t, err)

	var missing *MissingCredentialError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, provider.GPT, missing.Provider.ID)
	assert.Equal(t, "/gpt_api", missing.Provider.CredentialCommand)
}

func TestResolve_WithCredential(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := &store.UserRecord{UserID: 1, DefaultProvider: provider.Claude, ClaudeKey: "sk-ant"}

	call, err := r.Resolve(rec, "")
	require.NoError(t, err)
	assert.Equal(t, provider.Claude, call.Provider.ID)
	assert.Equal(t, "sk-ant", call.Credential)
}

func TestResolve_ExplicitOverridesDefault(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := &store.UserRecord{UserID: 1, DefaultProvider: provider.GPT, GeminiKey: "AIza"}

	call, err := r.Resolve(rec, provider.Gemini)
	require.NoError(t, err)
	assert.Equal(t, provider.Gemini, call.Provider.ID)
	assert.Equal(t, "AIza", call.Credential)
}

func TestResolve_UnknownProvider(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := &store.UserRecord{UserID: 1, DefaultProvider: "bing"}

	_, err := r.Resolve(rec, "")
	assert.ErrorIs(t, err, provider.ErrUnknownProvider)
}

func TestSetDefault_RejectedWithoutCredential(t *testing.T) {
	r, users := newTestRouter(t)
	ctx := context.Background()
	require.NoError(t, users.Upsert(ctx, 2, store.Patch{}))

	_, err := r.SetDefault(ctx, 2, provider.GPT)
	var missing *MissingCredentialError
	require.True(t, errors.As(err, &missing))

	// The previous default must be untouched.
	rec, err := users.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, provider.Google, rec.DefaultProvider)
}

func TestSetDefault_SucceedsWithCredential(t *testing.T) {
	r, users := newTestRouter(t)
	ctx := context.Background()
	require.NoError(t, users.Upsert(ctx, 3, store.Patch{GPTKey: store.StringPtr("sk-test123")}))

	desc, err := r.SetDefault(ctx, 3, provider.GPT)
	require.NoError(t, err)
	assert.Equal(t, provider.GPT, desc.ID)

	rec, err := users.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, provider.GPT, rec.DefaultProvider)

	// Subsequent resolution uses the new default and stored key.
	call, err := r.Resolve(rec, "")
	require.NoError(t, err)
	assert.Equal(t, provider.GPT, call.Provider.ID)
	assert.Equal(t, "sk-test123", call.Credential)
}

func TestSetDefault_GoogleAlwaysAllowed(t *testing.T) {
	r, users := newTestRouter(t)
	ctx := context.Background()
	require.NoError(t, users.Upsert(ctx, 4, store.Patch{
		GeminiKey:       store.StringPtr("AIza"),
		DefaultProvider: store.StringPtr(provider.Gemini),
	}))

	desc, err := r.SetDefault(ctx, 4, provider.Google)
	require.NoError(t, err)
	assert.Equal(t, provider.Google, desc.ID)

	rec, err := users.Get(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, provider.Google, rec.DefaultProvider)
	// Switching defaults never clears stored keys.
	assert.Equal(t, "AIza", rec.GeminiKey)
}

func TestSetDefault_FirstContactUser(t *testing.T) {
	r, users := newTestRouter(t)
	ctx := context.Background()

	// No record exists yet; selecting google should create one.
	desc, err := r.SetDefault(ctx, 5, provider.Google)
	require.NoError(t, err)
	assert.Equal(t, provider.Google, desc.ID)

	rec, err := users.Get(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, provider.Google, rec.DefaultProvider)
}
