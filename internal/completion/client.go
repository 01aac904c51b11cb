// Package completion wraps the external large-language-model API used to
// answer chat requests. The client is built once at startup and injected
// wherever completions are needed; without an API key it reports itself as
// unavailable and refuses every request.
package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const DefaultModel = "claude-3-5-haiku-latest"

var (
	ErrUnavailable     = errors.New("completion client unavailable")
	ErrEmptyCompletion = errors.New("empty completion")
)

// Config holds completion client configuration.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Request is a single completion call.
type Request struct {
	System      string
	Prompt      string
	Model       string // falls back to the client default when empty
	Temperature float64
	MaxTokens   int64
}

type Client struct {
	api     anthropic.Client
	model   string
	timeout time.Duration
	enabled bool
}

// New creates a client. Retries are disabled: each request gets exactly one
// attempt and callers decide what to do on failure.
func New(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return &Client{
		api:     anthropic.NewClient(opts...),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		enabled: strings.TrimSpace(cfg.APIKey) != "",
	}
}

// Available reports whether the client is configured to reach the API.
func (c *Client) Available() bool {
	return c != nil && c.enabled
}

// Model returns the default model identifier.
func (c *Client) Model() string {
	return c.model
}

// Complete sends the request and returns the concatenated text blocks of the reply.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if !c.Available() {
		return "", ErrUnavailable
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   req.MaxTokens,
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := c.api.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("create message (model=%s): %w", model, err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
