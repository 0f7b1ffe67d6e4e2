// Package transcribe turns lecture audio into text: a Transcriber sends one
// file to the speech-to-text service and an Assembler drives it over the
// chunks of a whole recording.
package transcribe

import (
	"context"
	"errors"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-lecturequiz/internal/apierr"
	"github.com/alnah/go-lecturequiz/internal/lang"
)

// serviceName tags ServiceCallErrors produced by this package.
const serviceName = "transcription"

// Default configuration values.
const (
	DefaultModel = openai.Whisper1

	defaultTimeout    = 2 * time.Minute
	defaultMaxRetries = 3
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// Transcriber transcribes audio files to text.
type Transcriber interface {
	// Transcribe converts one audio file to text.
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// audioTranscriber is an internal interface for OpenAI audio transcription.
// *openai.Client implements this implicitly.
// This allows injecting mocks in tests.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Transcriber      = (*OpenAITranscriber)(nil)
	_ audioTranscriber = (*openai.Client)(nil)
)

// OpenAITranscriber transcribes audio using an OpenAI-compatible
// transcription endpoint. Each attempt runs under its own timeout and
// transient failures are retried with exponential backoff.
type OpenAITranscriber struct {
	client   audioTranscriber
	model    string
	language lang.Language
	prompt   string
	timeout  time.Duration
	retry    apierr.RetryConfig
}

// TranscriberOption configures an OpenAITranscriber.
type TranscriberOption func(*OpenAITranscriber)

// WithModel sets the transcription model.
func WithModel(model string) TranscriberOption {
	return func(t *OpenAITranscriber) {
		if model != "" {
			t.model = model
		}
	}
}

// WithLanguage hints the spoken language. The zero value lets the service detect it.
func WithLanguage(l lang.Language) TranscriberOption {
	return func(t *OpenAITranscriber) {
		t.language = l
	}
}

// WithPrompt provides vocabulary context such as course name and jargon.
func WithPrompt(prompt string) TranscriberOption {
	return func(t *OpenAITranscriber) {
		t.prompt = prompt
	}
}

// WithTimeout bounds each request attempt.
func WithTimeout(d time.Duration) TranscriberOption {
	return func(t *OpenAITranscriber) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) TranscriberOption {
	return func(t *OpenAITranscriber) {
		if n >= 0 {
			t.retry.MaxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) TranscriberOption {
	return func(t *OpenAITranscriber) {
		if base > 0 {
			t.retry.BaseDelay = base
		}
		if max > 0 {
			t.retry.MaxDelay = max
		}
	}
}

// NewOpenAITranscriber creates a new OpenAITranscriber.
func NewOpenAITranscriber(client *openai.Client, opts ...TranscriberOption) *OpenAITranscriber {
	return newTranscriber(client, opts...)
}

func newTranscriber(client audioTranscriber, opts ...TranscriberOption) *OpenAITranscriber {
	t := &OpenAITranscriber{
		client:  client,
		model:   DefaultModel,
		timeout: defaultTimeout,
		retry: apierr.RetryConfig{
			MaxRetries: defaultMaxRetries,
			BaseDelay:  defaultBaseDelay,
			MaxDelay:   defaultMaxDelay,
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Language returns the spoken-language hint sent with each request.
func (t *OpenAITranscriber) Language() lang.Language { return t.language }

// Prompt returns the vocabulary prompt sent with each request.
func (t *OpenAITranscriber) Prompt() string { return t.prompt }

// Transcribe sends audioPath to the service. Errors are ServiceCallErrors
// wrapping an apierr sentinel when the failure could be classified.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	req := openai.AudioRequest{
		Model:    t.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatJSON,
		Prompt:   t.prompt,
		Language: t.language.BaseCode(),
	}

	text, err := apierr.RetryWithBackoff(ctx, t.retry, func() (string, error) {
		return t.attempt(ctx, req)
	}, apierr.IsRetryable)
	if err != nil {
		return "", apierr.Wrap(serviceName, err)
	}
	return text, nil
}

// attempt runs a single request under the per-request timeout.
func (t *OpenAITranscriber) attempt(ctx context.Context, req openai.AudioRequest) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.client.CreateTranscription(reqCtx, req)
	if err != nil {
		// Parent cancellation is not a service timeout and must not be retried.
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return "", ctx.Err()
		}
		return "", apierr.FromOpenAI(err)
	}
	return resp.Text, nil
}
