// Package llm is the text-generation client shared by the summarizer and
// the quiz extractor. Requests are role-tagged message lists sent to an
// OpenAI-compatible chat completion endpoint (OpenAI or DeepSeek).
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-lecturequiz/internal/apierr"
)

// serviceName tags ServiceCallErrors produced by this package.
const serviceName = "generation"

// Message roles.
const (
	RoleSystem = openai.ChatMessageRoleSystem
	RoleUser   = openai.ChatMessageRoleUser
)

// PlaceholderKey is a key value that means "not configured".
const PlaceholderKey = "EMPTY"

const (
	defaultTimeout    = 2 * time.Minute
	defaultMaxRetries = 3
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

var (
	// ErrAPIKeyMissing indicates no usable API key was configured.
	ErrAPIKeyMissing = errors.New("API key missing")

	// ErrEmptyResponse indicates the service answered without any choice.
	ErrEmptyResponse = errors.New("empty response")
)

// Message is one role-tagged chat message.
type Message struct {
	Role    string
	Content string
}

// System returns a system instruction message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User returns a user content message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// Request is one generation call. An empty Model uses the client's default.
type Request struct {
	Messages    []Message
	Model       string
	Temperature float32
	MaxTokens   int
}

// Generator produces one text completion per request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// chatCompleter is the subset of *openai.Client used here.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

var (
	_ Generator     = (*Client)(nil)
	_ chatCompleter = (*openai.Client)(nil)
)

// Client sends generation requests with a per-attempt timeout and retries
// transient failures with exponential backoff.
type Client struct {
	client  chatCompleter
	baseURL string
	model   string
	timeout time.Duration
	retry   apierr.RetryConfig
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the provider's default endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithModel sets the default chat model.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTimeout bounds each request attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retry.MaxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) Option {
	return func(c *Client) {
		if base > 0 {
			c.retry.BaseDelay = base
		}
		if max > 0 {
			c.retry.MaxDelay = max
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a Client for provider. An empty key, or the
// PlaceholderKey, is rejected with ErrAPIKeyMissing.
func NewClient(provider Provider, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" || apiKey == PlaceholderKey {
		return nil, fmt.Errorf("%s: %w", provider.OrDefault(), ErrAPIKeyMissing)
	}
	c := newClient(nil, provider, opts...)

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = c.baseURL
	c.client = openai.NewClientWithConfig(cfg)
	return c, nil
}

func newClient(cc chatCompleter, provider Provider, opts ...Option) *Client {
	c := &Client{
		client:  cc,
		baseURL: provider.BaseURL(),
		model:   provider.DefaultModel(),
		timeout: defaultTimeout,
		retry: apierr.RetryConfig{
			MaxRetries: defaultMaxRetries,
			BaseDelay:  defaultBaseDelay,
			MaxDelay:   defaultMaxDelay,
		},
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the default chat model.
func (c *Client) Model() string { return c.model }

// Generate returns the content of the first choice. Errors are
// ServiceCallErrors wrapping an apierr sentinel when classifiable.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	chat := openai.ChatCompletionRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages:    make([]openai.ChatCompletionMessage, len(req.Messages)),
	}
	if chat.Model == "" {
		chat.Model = c.model
	}
	for i, m := range req.Messages {
		chat.Messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	start := time.Now()
	text, err := apierr.RetryWithBackoff(ctx, c.retry, func() (string, error) {
		return c.attempt(ctx, chat)
	}, apierr.IsRetryable)
	if err != nil {
		return "", apierr.Wrap(serviceName, err)
	}

	c.log.Debug().
		Str("model", chat.Model).
		Dur("elapsed", time.Since(start)).
		Int("chars", len([]rune(text))).
		Msg("generation completed")
	return text, nil
}

func (c *Client) attempt(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(reqCtx, req)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return "", ctx.Err()
		}
		return "", apierr.FromOpenAI(err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
