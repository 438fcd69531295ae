package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsPage = `<html><body>
<a href="/search?q=nav">navigation</a>
<a href="/url?q=https://example.com/first&amp;sa=U">first</a>
<a href="/url?q=https://example.com/first&amp;sa=U">duplicate</a>
<a href="/url?q=https://maps.google.com/whatever">internal</a>
<a href="/url?q=https://example.org/second&amp;sa=U">second</a>
<a href="/url?q=https://example.net/third&amp;sa=U">third</a>
<a href="/url?q=https://example.net/fourth&amp;sa=U">fourth</a>
</body></html>`

func TestParseResults(t *testing.T) {
	results, err := parseResults(strings.NewReader(resultsPage), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://example.com/first",
		"https://example.org/second",
		"https://example.net/third",
	}, results)
}

func TestParseResults_Empty(t *testing.T) {
	results, err := parseResults(strings.NewReader("<html><body>No results</body></html>"), 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "golang", r.URL.Query().Get("q"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(resultsPage))
	}))
	defer srv.Close()

	c := &Client{baseURL: srv.URL, httpClient: srv.Client()}
	results, err := c.Search(context.Background(), "golang", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearch_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := &Client{baseURL: srv.URL, httpClient: srv.Client()}
	_, err := c.Search(context.Background(), "golang", 3)
	assert.Error(t, err)
}

func TestExtractResultLink(t *testing.T) {
	tests := []struct {
		href string
		want string
		ok   bool
	}{
		{"/url?q=https://example.com/page&sa=U", "https://example.com/page", true},
		{"/url?q=/relative", "", false},
		{"/url?q=https://www.google.com/intl", "", false},
		{"/search?q=plain", "", false},
		{"https://example.com", "", false},
	}

	for _, tt := range tests {
		got, ok := extractResultLink(tt.href)
		assert.Equal(t, tt.ok, ok, tt.href)
		assert.Equal(t, tt.want, got, tt.href)
	}
}
