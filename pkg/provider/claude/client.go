// Package claude implements the Claude ModelClient directly over the
// Anthropic Messages HTTP API. Anthropic ships no official Go SDK, so the
// wire format is spoken by hand.
package claude

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultURL       = "https://api.anthropic.com/v1/messages"
	defaultModel     = "claude-3-haiku-20240307"
	anthropicVersion = "2023-06-01"
	maxTokens        = 1024
)

// Client performs single-turn message completions against the Anthropic API.
type Client struct {
	url        string
	model      string
	httpClient *http.Client
}

// NewClient creates a Claude client using the default endpoint and model.
func NewClient() *Client {
	return &Client{
		url:        defaultURL,
		model:      defaultModel,
		httpClient: &http.Client{},
	}
}

// request mirrors the Messages API request body.
type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// response mirrors the subset of the Messages API response we consume.
type response struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete implements provider.ModelClient.
func (c *Client) Complete(ctx context.Context, credential, prompt string) (string, error) {
	body, err := json.Marshal(request{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("claude: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("claude: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", credential)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("claude: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("claude: read response: %w", err)
	}

	var parsed response
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("claude: parse response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("claude: api error (status %d): %s: %s",
			resp.StatusCode, parsed.Error.Type, parsed.Error.Message)
	}

	for _, block := range parsed.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("claude: response contained no text block")
}
