// Package wiki looks up article summaries through the Wikipedia REST API
// (/api/rest_v1/page/summary/<title>).
package wiki

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"relaybot/pkg/provider"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultBaseURL = "https://en.wikipedia.org/api/rest_v1/page/summary"

// Client fetches English Wikipedia page summaries.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Wikipedia client against the public REST endpoint.
func NewClient() *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
	}
}

// summaryResponse is the subset of the REST summary payload we consume.
type summaryResponse struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	Type    string `json:"type"`
	Content struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Lookup implements provider.EncyclopediaClient. A missing page is reported
// through Page.Exists, not as an error.
func (c *Client) Lookup(ctx context.Context, title string) (provider.Page, error) {
	// Wikipedia titles use underscores for spaces in the path segment.
	slug := url.PathEscape(strings.ReplaceAll(strings.TrimSpace(title), " ", "_"))
	reqURL := c.baseURL + "/" + slug

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return provider.Page{}, fmt.Errorf("wiki: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return provider.Page{}, fmt.Errorf("wiki: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return provider.Page{Exists: false, Title: title}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return provider.Page{}, fmt.Errorf("wiki: unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.Page{}, fmt.Errorf("wiki: read response: %w", err)
	}

	var parsed summaryResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return provider.Page{}, fmt.Errorf("wiki: parse response: %w", err)
	}

	// Disambiguation and "no such page" stubs both count as not found for
	// a direct lookup.
	if parsed.Type == "disambiguation" || parsed.Extract == "" {
		return provider.Page{Exists: false, Title: parsed.Title}, nil
	}

	return provider.Page{
		Exists:  true,
		Title:   parsed.Title,
		Summary: parsed.Extract,
		URL:     parsed.Content.Desktop.Page,
	}, nil
}
