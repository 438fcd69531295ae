// Package dispatch performs the single external call for a resolved message
// and folds every possible result into one normalized Outcome. Transport and
// SDK failures never escape this boundary: they are logged with context and
// replaced with a generic apology.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"relaybot/pkg/provider"
	"relaybot/pkg/router"
)

// Outcome kinds.
const (
	KindAnswer    = "answer"     // a reply produced by the provider
	KindNoResults = "no_results" // valid empty search outcome, not an error
	KindFailure   = "failure"    // any provider/transport failure, already logged
)

// Outcome is the normalized result of one dispatch, ready for delivery.
type Outcome struct {
	Kind string
	Text string
}

// User-facing strings for the non-answer outcomes.
const (
	apologyText   = "Sorry, an error occurred while processing your request. Please check your API key and the service status."
	noResultsText = "Sorry, I couldn't find any results for that search on Google."
)

// Dispatcher invokes external providers. One instance serves all users;
// credentials arrive per call inside the ResolvedCall.
type Dispatcher struct {
	search     provider.SearchClient
	models     map[string]provider.ModelClient
	maxResults int
	timeout    time.Duration
}

// New creates a Dispatcher. The models map is keyed by provider ID and must
// cover every credential-requiring provider.
func New(search provider.SearchClient, models map[string]provider.ModelClient, maxResults int, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		search:     search,
		models:     models,
		maxResults: maxResults,
		timeout:    timeout,
	}
}

// Dispatch performs exactly one external call for the resolved provider and
// returns a normalized outcome. It never returns an error: anything that
// goes wrong becomes a KindFailure outcome with the generic apology.
func (d *Dispatcher) Dispatch(ctx context.Context, call router.ResolvedCall, text string) Outcome {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	outcome := d.invoke(ctx, call, text)
	slog.Info("Dispatch finished",
		"provider", call.Provider.ID,
		"kind", outcome.Kind,
		"duration", time.Since(start).String(),
	)
	return outcome
}

func (d *Dispatcher) invoke(ctx context.Context, call router.ResolvedCall, text string) Outcome {
	if call.Provider.ID == provider.Google {
		return d.dispatchSearch(ctx, text)
	}

	client, ok := d.models[call.Provider.ID]
	if !ok {
		// Registry and dispatcher wiring disagree; treat like any provider failure.
		slog.Error("No model client wired for provider", "provider", call.Provider.ID)
		return Outcome{Kind: KindFailure, Text: apologyText}
	}

	completion, err := client.Complete(ctx, call.Credential, text)
	if err != nil {
		slog.Error("Model completion failed", "provider", call.Provider.ID, "error", err)
		return Outcome{Kind: KindFailure, Text: apologyText}
	}
	return Outcome{Kind: KindAnswer, Text: completion}
}

func (d *Dispatcher) dispatchSearch(ctx context.Context, query string) Outcome {
	results, err := d.search.Search(ctx, query, d.maxResults)
	if err != nil {
		slog.Error("Search failed", "query", query, "error", err)
		return Outcome{Kind: KindFailure, Text: apologyText}
	}

	if len(results) == 0 {
		return Outcome{Kind: KindNoResults, Text: noResultsText}
	}

	var sb strings.Builder
	sb.WriteString("Here are the top Google search results:\n\n")
	for i, result := range results {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, result)
	}
	return Outcome{Kind: KindAnswer, Text: sb.String()}
}
