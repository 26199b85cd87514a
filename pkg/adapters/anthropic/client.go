// Package anthropic implements ports.ModelClient on top of the Anthropic Go
// SDK.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// DefaultVersion is the anthropic-version header the SDK sends.
const DefaultVersion = "2023-06-01"

// Client sends single-turn requests through the SDK's Messages service.
// Explicit options take precedence over the SDK's ANTHROPIC_* environment
// defaults.
type Client struct {
	apiKey   string
	settings []option.RequestOption
	client   sdk.Client
}

type Option func(*Client)

// WithBaseURL points the client at another endpoint (proxies, tests).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.settings = append(c.settings, option.WithBaseURL(url))
		}
	}
}

// WithVersion overrides the anthropic-version header.
func WithVersion(v string) Option {
	return func(c *Client) {
		if v != "" {
			c.settings = append(c.settings, option.WithHeader("anthropic-version", v))
		}
	}
}

// WithHTTPClient replaces the default client, which has a 2 minute timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.settings = append(c.settings, option.WithHTTPClient(hc))
		}
	}
}

// WithMaxRetries sets how often the SDK retries rate limits and server
// errors. The SDK default is 2.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.settings = append(c.settings, option.WithMaxRetries(n))
	}
}

// New creates a client. An empty apiKey is accepted; every call then fails
// with domain.ErrMissingCredentials.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey: apiKey,
		settings: []option.RequestOption{
			option.WithAPIKey(apiKey),
			option.WithHTTPClient(&http.Client{Timeout: 2 * time.Minute}),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.client = sdk.NewClient(c.settings...)
	return c
}

// Invoke sends a single-turn request. Text blocks of the reply are
// concatenated.
func (c *Client) Invoke(ctx context.Context, req ports.ModelRequest) (ports.ModelResponse, error) {
	if c.apiKey == "" {
		return ports.ModelResponse{}, fmt.Errorf("anthropic: %w", domain.ErrMissingCredentials)
	}

	params := sdk.MessageNewParams{
		Model:       sdk.Model(req.Model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: sdk.Float(req.Temperature),
		Messages:    []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(req.UserPrompt))},
	}
	if req.SystemPrompt != "" {
		params.System = []sdk.TextBlockParam{{Text: req.SystemPrompt}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return ports.ModelResponse{}, fmt.Errorf("anthropic API returned status %d: %w", apiErr.StatusCode, err)
		}
		return ports.ModelResponse{}, fmt.Errorf("failed to execute request: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return ports.ModelResponse{
		Text:         text.String(),
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}, nil
}
