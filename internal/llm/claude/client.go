// Package claude implements the respond.Provider interface on top of the
// Anthropic Messages API.
package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// replyTokens caps the generated reply. The contract is a small two-field
// JSON object, so this stays low.
const replyTokens = 1024

// Client sends single-shot generation requests to Claude.
type Client struct {
	client anthropic.Client
	model  string
}

// New creates a Claude client with the given API key and model name.
func New(apiKey, model string) *Client {
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// Complete sends the prompt as one user message and returns the
// concatenated text blocks of the reply. The caller bounds the call with
// its context deadline.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: replyTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude message: %w", err)
	}

	return replyText(msg.Content)
}

// replyText concatenates the text blocks of a reply. A reply with no text
// content is an error, not an empty completion.
func replyText(content []anthropic.ContentBlockUnion) (string, error) {
	var sb strings.Builder
	for _, block := range content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("claude reply contained no text blocks")
	}
	return sb.String(), nil
}
