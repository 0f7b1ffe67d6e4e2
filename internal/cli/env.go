package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-lecturequiz/internal/audio"
	"github.com/alnah/go-lecturequiz/internal/config"
	"github.com/alnah/go-lecturequiz/internal/ffmpeg"
	"github.com/alnah/go-lecturequiz/internal/llm"
	"github.com/alnah/go-lecturequiz/internal/pipeline"
	"github.com/alnah/go-lecturequiz/internal/store"
	"github.com/alnah/go-lecturequiz/internal/transcribe"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have production defaults via DefaultEnv(). Tests override
// specific fields with the With* options.
type Env struct {
	// I/O
	Stdout io.Writer
	Stderr io.Writer

	// Factories for domain objects
	ConfigLoader       ConfigLoader
	StoreOpener        StoreOpener
	FFmpegResolver     FFmpegResolver
	ChunkerFactory     ChunkerFactory
	TranscriberFactory TranscriberFactory
	GeneratorFactory   GeneratorFactory
}

// ConfigLoader loads the configuration. An empty path searches the default
// locations.
type ConfigLoader interface {
	Load(path string) (config.Config, error)
}

// Store is the data store used by commands.
type Store interface {
	pipeline.Store
	CreateCourse(ctx context.Context, name, description string) (*store.Course, error)
	Course(ctx context.Context, id uint) (*store.Course, error)
	CreateLecture(ctx context.Context, courseID uint, title, audioRef string) (*store.Lecture, error)
	ListLectures(ctx context.Context, courseID uint) ([]store.Lecture, error)
	Questions(ctx context.Context, lectureID uint) ([]store.Question, error)
	Close() error
}

// StoreOpener opens the data store.
type StoreOpener interface {
	Open(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (Store, error)
}

// FFmpegResolver resolves the path to the FFmpeg binary.
type FFmpegResolver interface {
	Resolve(ctx context.Context, configured string) (string, error)
	CheckVersion(ctx context.Context, ffmpegPath string, log zerolog.Logger)
}

// ChunkerFactory creates audio chunkers.
type ChunkerFactory interface {
	NewChunker(ffmpegPath string, cfg config.PipelineConfig, log zerolog.Logger) (audio.Chunker, error)
}

// TranscriberFactory creates transcribers for audio-to-text conversion.
// prompt carries vocabulary hints such as the course and lecture names.
type TranscriberFactory interface {
	NewTranscriber(cfg config.Config, prompt string) (transcribe.Transcriber, error)
}

// GeneratorFactory creates text generators for summaries and quizzes.
type GeneratorFactory interface {
	NewGenerator(cfg config.Config, log zerolog.Logger) (llm.Generator, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithStoreOpener sets the store opener.
func WithStoreOpener(o StoreOpener) EnvOption {
	return func(e *Env) {
		e.StoreOpener = o
	}
}

// WithFFmpegResolver sets the FFmpeg resolver.
func WithFFmpegResolver(r FFmpegResolver) EnvOption {
	return func(e *Env) {
		e.FFmpegResolver = r
	}
}

// WithChunkerFactory sets the chunker factory.
func WithChunkerFactory(f ChunkerFactory) EnvOption {
	return func(e *Env) {
		e.ChunkerFactory = f
	}
}

// WithTranscriberFactory sets the transcriber factory.
func WithTranscriberFactory(f TranscriberFactory) EnvOption {
	return func(e *Env) {
		e.TranscriberFactory = f
	}
}

// WithGeneratorFactory sets the generator factory.
func WithGeneratorFactory(f GeneratorFactory) EnvOption {
	return func(e *Env) {
		e.GeneratorFactory = f
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:             os.Stdout,
		Stderr:             os.Stderr,
		ConfigLoader:       config.NewLoader(),
		StoreOpener:        defaultStoreOpener{},
		FFmpegResolver:     defaultFFmpegResolver{},
		ChunkerFactory:     defaultChunkerFactory{},
		TranscriberFactory: defaultTranscriberFactory{},
		GeneratorFactory:   defaultGeneratorFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

type defaultStoreOpener struct{}

func (defaultStoreOpener) Open(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (Store, error) {
	return store.Open(ctx, store.Config{Path: cfg.Path, LogLevel: cfg.LogLevel}, log)
}

type defaultFFmpegResolver struct{}

func (defaultFFmpegResolver) Resolve(ctx context.Context, configured string) (string, error) {
	return ffmpeg.NewResolver(ffmpeg.WithConfiguredPath(configured)).Resolve(ctx)
}

func (defaultFFmpegResolver) CheckVersion(ctx context.Context, ffmpegPath string, log zerolog.Logger) {
	if major, ok := ffmpeg.NewVersionChecker(ffmpeg.WithVersionLogger(log)).Check(ctx, ffmpegPath); ok {
		log.Debug().Int("major", major).Str("path", ffmpegPath).Msg("ffmpeg found")
	}
}

type defaultChunkerFactory struct{}

func (defaultChunkerFactory) NewChunker(ffmpegPath string, cfg config.PipelineConfig, log zerolog.Logger) (audio.Chunker, error) {
	return audio.NewTimeChunker(ffmpegPath, cfg.ChunkDuration, cfg.ChunkOverlap, audio.WithLogger(log))
}

// defaultTranscriberFactory always uses the OpenAI settings: DeepSeek has
// no transcription endpoint.
type defaultTranscriberFactory struct{}

func (defaultTranscriberFactory) NewTranscriber(cfg config.Config, prompt string) (transcribe.Transcriber, error) {
	key := cfg.OpenAI.APIKey
	if key == "" || key == llm.PlaceholderKey {
		return nil, fmt.Errorf("transcription needs an OpenAI key (set OPENAI_API_KEY): %w", llm.ErrAPIKeyMissing)
	}
	oc := openai.DefaultConfig(key)
	if cfg.OpenAI.BaseURL != "" {
		oc.BaseURL = cfg.OpenAI.BaseURL
	}
	return transcribe.NewOpenAITranscriber(openai.NewClientWithConfig(oc),
		transcribe.WithModel(cfg.OpenAI.TranscriptionModel),
		transcribe.WithLanguage(cfg.OutputLanguage()),
		transcribe.WithPrompt(prompt),
		transcribe.WithTimeout(cfg.Pipeline.RequestTimeout),
		transcribe.WithMaxRetries(cfg.Pipeline.MaxRetries),
	), nil
}

type defaultGeneratorFactory struct{}

func (defaultGeneratorFactory) NewGenerator(cfg config.Config, log zerolog.Logger) (llm.Generator, error) {
	provider, err := llm.ParseProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}
	chat := cfg.Chat()
	opts := []llm.Option{
		llm.WithModel(chat.ChatModel),
		llm.WithTimeout(cfg.Pipeline.RequestTimeout),
		llm.WithMaxRetries(cfg.Pipeline.MaxRetries),
		llm.WithLogger(log),
	}
	if chat.BaseURL != "" {
		opts = append(opts, llm.WithBaseURL(chat.BaseURL))
	}
	return llm.NewClient(provider, chat.APIKey, opts...)
}

// Compile-time interface verification.
var (
	_ ConfigLoader       = (*config.Loader)(nil)
	_ Store              = (*store.Store)(nil)
	_ StoreOpener        = defaultStoreOpener{}
	_ FFmpegResolver     = defaultFFmpegResolver{}
	_ ChunkerFactory     = defaultChunkerFactory{}
	_ TranscriberFactory = defaultTranscriberFactory{}
	_ GeneratorFactory   = defaultGeneratorFactory{}
)
