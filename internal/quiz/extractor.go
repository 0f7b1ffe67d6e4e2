package quiz

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/alnah/go-lecturequiz/internal/lang"
	"github.com/alnah/go-lecturequiz/internal/llm"
)

// Default retry counts per kind. Multiple-choice generation retries once
// with a stricter prompt, true/false does not.
const (
	DefaultMCQRetries = 1
	DefaultTFRetries  = 0
)

const (
	mcqMaxTokens = 1500
	tfMaxTokens  = 1200
)

// errNoValidItems reports a decodable response with no usable record.
var errNoValidItems = errors.New("no valid items")

// Result is the outcome of one generation run.
type Result struct {
	Questions []Question
	Attempts  int // service calls made
}

// Extractor asks a generator for quiz questions and decodes the answers.
type Extractor struct {
	gen        llm.Generator
	model      string
	language   lang.Language
	mcqRetries int
	tfRetries  int
	log        zerolog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithModel overrides the generator's default model.
func WithModel(model string) Option {
	return func(e *Extractor) {
		e.model = model
	}
}

// WithLanguage sets the language questions are written in.
func WithLanguage(l lang.Language) Option {
	return func(e *Extractor) {
		e.language = l
	}
}

// WithMCQRetries sets how many stricter retries follow a failed
// multiple-choice attempt.
func WithMCQRetries(n int) Option {
	return func(e *Extractor) {
		if n >= 0 {
			e.mcqRetries = n
		}
	}
}

// WithTFRetries sets how many stricter retries follow a failed true/false
// attempt.
func WithTFRetries(n int) Option {
	return func(e *Extractor) {
		if n >= 0 {
			e.tfRetries = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Extractor) {
		e.log = log
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(gen llm.Generator, opts ...Option) *Extractor {
	e := &Extractor{
		gen:        gen,
		mcqRetries: DefaultMCQRetries,
		tfRetries:  DefaultTFRetries,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GenerateMCQ returns up to count multiple-choice questions about summary,
// or none when every attempt fails. It never returns an error.
func (e *Extractor) GenerateMCQ(ctx context.Context, summary string, count int) []Question {
	return e.MCQ(ctx, summary, count).Questions
}

// GenerateTF returns up to count true/false questions about summary, or
// none when every attempt fails. It never returns an error.
func (e *Extractor) GenerateTF(ctx context.Context, summary string, count int) []Question {
	return e.TF(ctx, summary, count).Questions
}

// MCQ is GenerateMCQ with the number of service calls made.
func (e *Extractor) MCQ(ctx context.Context, summary string, count int) Result {
	return e.run(ctx, KindMCQ, summary, count, e.mcqRetries, mcqMaxTokens)
}

// TF is GenerateTF with the number of service calls made.
func (e *Extractor) TF(ctx context.Context, summary string, count int) Result {
	return e.run(ctx, KindTF, summary, count, e.tfRetries, tfMaxTokens)
}

// run walks the attempt ladder until one attempt yields at least one valid
// question or the retries are spent.
func (e *Extractor) run(ctx context.Context, kind Kind, summary string, count, retries, maxTokens int) Result {
	var res Result
	if count <= 0 {
		return res
	}

	rungs := ladder(kind, e.language.Instruction(), summary, count)
	log := e.log.With().Str("kind", string(kind)).Int("count", count).Logger()

	for attempt := 0; attempt <= retries; attempt++ {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Msg("quiz generation cancelled")
			break
		}
		r := rungs[min(attempt, len(rungs)-1)]
		res.Attempts++

		questions, err := e.attempt(ctx, kind, r, maxTokens, log)
		if err == nil {
			if len(questions) > count {
				questions = questions[:count]
			}
			res.Questions = questions
			log.Info().Int("questions", len(questions)).Int("attempts", res.Attempts).Msg("quiz generated")
			return res
		}

		ev := log.Warn().Err(err).Int("attempt", res.Attempts)
		var malformed *MalformedResponseError
		if errors.As(err, &malformed) {
			ev = ev.Str("raw", malformed.Raw)
		}
		if attempt < retries {
			ev.Msg("quiz attempt failed, retrying with stricter prompt")
		} else {
			ev.Msg("quiz generation failed")
		}
	}
	return res
}

func (e *Extractor) attempt(ctx context.Context, kind Kind, r rung, maxTokens int, log zerolog.Logger) ([]Question, error) {
	raw, err := e.gen.Generate(ctx, llm.Request{
		Messages:    []llm.Message{llm.System(r.system), llm.User(r.user)},
		Model:       e.model,
		Temperature: r.temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, err
	}

	items, err := Decode(raw)
	if err != nil {
		return nil, err
	}

	var questions []Question
	if kind == KindTF {
		questions = NormalizeTF(items, log)
	} else {
		questions = NormalizeMCQ(items, log)
	}
	if len(questions) == 0 {
		return nil, errNoValidItems
	}
	return questions, nil
}
