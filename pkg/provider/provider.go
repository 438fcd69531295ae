// Package provider describes the fixed set of answer providers a user can
// route free-text messages to, and the narrow contracts the dispatcher uses
// to call them. Providers are a closed set — this is deliberately not a
// plugin system.
package provider

import (
	"context"
	"fmt"
)

// Provider identifiers. These double as the default_provider values stored
// per user and as the suffix of the /def_* commands.
const (
	Google = "google"
	Gemini = "gemini"
	GPT    = "gpt"
	Claude = "claude"
)

// Descriptor is the static description of one provider.
type Descriptor struct {
	ID                 string // stable identifier, e.g. "gemini"
	DisplayName        string // human-facing name, e.g. "Gemini"
	RequiresCredential bool   // whether a per-user API key must be stored first
	CredentialCommand  string // command that stores the key, e.g. "/gemini_api"
	DefaultCommand     string // command that selects the provider, e.g. "/def_gemini"
}

// ErrUnknownProvider reports a provider ID outside the fixed set. Given the
// closed command surface this indicates a programming error, not user input.
var ErrUnknownProvider = fmt.Errorf("unknown provider")

var descriptors = map[string]Descriptor{
	Google: {
		ID:             Google,
		DisplayName:    "Google Search",
		DefaultCommand: "/def_google",
	},
	Gemini: {
		ID:                 Gemini,
		DisplayName:        "Gemini",
		RequiresCredential: true,
		CredentialCommand:  "/gemini_api",
		DefaultCommand:     "/def_gemini",
	},
	GPT: {
		ID:                 GPT,
		DisplayName:        "GPT",
		RequiresCredential: true,
		CredentialCommand:  "/gpt_api",
		DefaultCommand:     "/def_gpt",
	},
	Claude: {
		ID:                 Claude,
		DisplayName:        "Claude",
		RequiresCredential: true,
		CredentialCommand:  "/claude_api",
		DefaultCommand:     "/def_claude",
	},
}

// Describe looks up the descriptor for id.
func Describe(id string) (Descriptor, error) {
	d, ok := descriptors[id]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownProvider, id)
	}
	return d, nil
}

// All returns the descriptors of the four providers in a stable order.
func All() []Descriptor {
	return []Descriptor{
		descriptors[Google],
		descriptors[Gemini],
		descriptors[GPT],
		descriptors[Claude],
	}
}

// ModelClient is the single-turn completion contract every hosted model
// vendor client implements. The credential is supplied per call — nothing
// about a user's key is kept in process-wide state.
type ModelClient interface {
	// Complete sends prompt as the entire single-turn conversation and
	// returns the completion text verbatim.
	Complete(ctx context.Context, credential, prompt string) (string, error)
}

// SearchClient performs a web search and returns an ordered list of result
// URLs. An empty slice with a nil error is a valid "no results" outcome.
type SearchClient interface {
	Search(ctx context.Context, query string, maxResults int) ([]string, error)
}

// Page is the outcome of an encyclopedia lookup.
type Page struct {
	Exists  bool
	Title   string
	Summary string
	URL     string
}

// EncyclopediaClient looks up an article by title.
type EncyclopediaClient interface {
	Lookup(ctx context.Context, title string) (Page, error)
}
