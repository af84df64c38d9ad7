// Package genai wraps the OpenAI chat completion API for funnelbot.
//
// The completion service is an external collaborator: the rest of the system
// only sees ClientInterface, so tests run against a fake without network
// access. Calls carry a bounded timeout and are retried once on transient
// failure.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Default configuration for completion calls.
const (
	// DefaultTimeout bounds a single completion call.
	DefaultTimeout = 30 * time.Second
	// DefaultTemperature matches the conversational tone the sales prompts
	// were tuned against.
	DefaultTemperature = 0.7
)

// ClientInterface defines the completion capability the funnel engine and
// the delegated intent classifier depend on.
type ClientInterface interface {
	// GenerateWithMessages produces a completion for a full message array
	// (system prompts, history, current utterance).
	GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error)
}

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float64
}

// Option defines a configuration option for the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key, overriding $OPENAI_API_KEY.
func WithAPIKey(key string) Option {
	return func(o *Opts) {
		o.APIKey = key
	}
}

// WithModel sets the chat model used for completions.
func WithModel(model string) Option {
	return func(o *Opts) {
		o.Model = model
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) {
		o.Timeout = d
	}
}

// Client wraps the OpenAI chat completion service.
type Client struct {
	client      openai.Client
	model       string
	timeout     time.Duration
	temperature float64
}

// NewClient initializes a new GenAI client. The API key comes from options
// or the OPENAI_API_KEY environment variable; a missing key is an
// initialization failure and aborts startup.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	model := cfg.Model
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	slog.Debug("genai.NewClient: client configured", "model", model, "timeout", timeout)
	return &Client{
		client:      openai.NewClient(option.WithAPIKey(apiKey)),
		model:       model,
		timeout:     timeout,
		temperature: temperature,
	}, nil
}

// GenerateWithMessages generates a completion for the given message array.
// A failed call is retried exactly once; callers surface their own fallback
// message when both attempts fail.
func (c *Client) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	content, err := c.complete(ctx, messages)
	if err == nil {
		return content, nil
	}
	if ctx.Err() != nil {
		return "", err
	}

	slog.Warn("genai.GenerateWithMessages: completion failed, retrying once", "error", err)
	content, retryErr := c.complete(ctx, messages)
	if retryErr != nil {
		return "", fmt.Errorf("completion failed after retry: %w", retryErr)
	}
	return content, nil
}

// complete performs a single bounded completion call.
func (c *Client) complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
