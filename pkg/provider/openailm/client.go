// Package openailm implements the GPT ModelClient as a thin wrapper around
// the official OpenAI Go SDK.
package openailm

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const defaultModel = openai.ChatModelGPT4oMini

// Client performs single-turn chat completions against the OpenAI API.
// Credentials are per-user, so an SDK client is constructed per call.
type Client struct {
	model openai.ChatModel
}

// NewClient creates an OpenAI client using the default model.
func NewClient() *Client {
	return &Client{model: defaultModel}
}

// Complete implements provider.ModelClient.
func (c *Client) Complete(ctx context.Context, credential, prompt string) (string, error) {
	client := openai.NewClient(option.WithAPIKey(credential))

	completion, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openai: completion returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}
