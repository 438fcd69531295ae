// Package search implements the web search provider by scraping the Google
// results page, the same approach the usual "googlesearch" helper libraries
// take. Result links appear as anchors whose href is a /url?q=... redirect.
package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

const (
	defaultBaseURL = "https://www.google.com/search"
	// A desktop browser user agent keeps the plain-HTML result page coming back.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// Client fetches and parses Google web search results.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a search client against the public Google endpoint.
func NewClient() *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
	}
}

// Search implements provider.SearchClient. It returns up to maxResults
// result URLs in page order. Zero matches yields an empty slice, not an error.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	reqURL := fmt.Sprintf("%s?q=%s&num=%d&hl=en", c.baseURL, url.QueryEscape(query), maxResults+2)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("search: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: unexpected status %d", resp.StatusCode)
	}

	results, err := parseResults(resp.Body, maxResults)
	if err != nil {
		return nil, fmt.Errorf("search: parse results: %w", err)
	}
	return results, nil
}

// parseResults walks the HTML token stream collecting /url?q= redirect
// anchors, which is how the no-JS results page links out.
func parseResults(body io.Reader, maxResults int) ([]string, error) {
	tokenizer := html.NewTokenizer(body)
	var results []string
	seen := make(map[string]struct{})

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			err := tokenizer.Err()
			if err == io.EOF {
				return results, nil
			}
			return nil, err
		case html.StartTagToken:
			token := tokenizer.Token()
			if token.Data != "a" {
				continue
			}
			for _, attr := range token.Attr {
				if attr.Key != "href" {
					continue
				}
				link, ok := extractResultLink(attr.Val)
				if !ok {
					continue
				}
				if _, dup := seen[link]; dup {
					continue
				}
				seen[link] = struct{}{}
				results = append(results, link)
				if len(results) >= maxResults {
					return results, nil
				}
			}
		}
	}
}

// extractResultLink unwraps a /url?q=<target> redirect href, rejecting
// Google-internal navigation links.
func extractResultLink(href string) (string, bool) {
	if !strings.HasPrefix(href, "/url?") {
		return "", false
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	target := parsed.Query().Get("q")
	if !strings.HasPrefix(target, "http") {
		return "", false
	}
	if strings.Contains(target, "google.com") {
		return "", false
	}
	return target, true
}
