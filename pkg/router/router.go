// Package router decides which provider answers a message and whether the
// user meets that provider's preconditions.
package router

import (
	"context"
	"fmt"

	"relaybot/pkg/provider"
	"relaybot/pkg/store"
)

// ResolvedCall is a dispatch-ready selection: the provider descriptor plus
// the credential to call it with (empty for the search provider).
type ResolvedCall struct {
	Provider   provider.Descriptor
	Credential string
}

// MissingCredentialError reports that the requested provider needs an API
// key the user has not stored yet. The caller renders the exact command to
// run from the embedded descriptor.
type MissingCredentialError struct {
	Provider provider.Descriptor
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("missing credential for provider %s", e.Provider.ID)
}

// Router resolves providers against a user's stored configuration.
type Router struct {
	users *store.UserStore
}

// New creates a Router backed by the given user store.
func New(users *store.UserStore) *Router {
	return &Router{users: users}
}

// Resolve validates that providerID can be dispatched for the given record.
// An empty providerID selects the record's default provider. Returns a
// MissingCredentialError when the provider requires a key that is absent.
func (r *Router) Resolve(rec *store.UserRecord, providerID string) (ResolvedCall, error) {
	if providerID == "" {
		providerID = rec.DefaultProvider
	}

	desc, err := provider.Describe(providerID)
	if err != nil {
		return ResolvedCall{}, err
	}

	credential := rec.Credential(desc.ID)
	if desc.RequiresCredential && credential == "" {
		return ResolvedCall{}, &MissingCredentialError{Provider: desc}
	}

	return ResolvedCall{Provider: desc, Credential: credential}, nil
}

// SetDefault switches the user's default provider, subject to the same
// precondition as Resolve: a credential-requiring provider is only accepted
// once its key is stored. On rejection the previous default is untouched.
func (r *Router) SetDefault(ctx context.Context, userID int64, providerID string) (provider.Descriptor, error) {
	desc, err := provider.Describe(providerID)
	if err != nil {
		return provider.Descriptor{}, err
	}

	rec, err := r.users.Get(ctx, userID)
	if err != nil {
		return provider.Descriptor{}, err
	}
	if rec == nil {
		rec = &store.UserRecord{UserID: userID, DefaultProvider: provider.Google}
	}

	if desc.RequiresCredential && rec.Credential(desc.ID) == "" {
		return provider.Descriptor{}, &MissingCredentialError{Provider: desc}
	}

	if err := r.users.Upsert(ctx, userID, store.Patch{DefaultProvider: store.StringPtr(desc.ID)}); err != nil {
		return provider.Descriptor{}, err
	}
	return desc, nil
}
