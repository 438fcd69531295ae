// Package gemini implements the Gemini ModelClient on the official
// google.golang.org/genai SDK.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultModel = "gemini-1.5-flash"

// Client performs single-turn completions against the Gemini API.
// Credentials are per-user, so the underlying SDK client is constructed
// per call rather than held for the process lifetime.
type Client struct {
	model string
}

// NewClient creates a Gemini client using the default model.
func NewClient() *Client {
	return &Client{model: defaultModel}
}

// Complete implements provider.ModelClient.
func (c *Client) Complete(ctx context.Context, credential, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  credential,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("gemini: create client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" && !part.Thought {
				sb.WriteString(part.Text)
			}
		}
		break // first candidate only
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini: empty completion")
	}
	return sb.String(), nil
}
