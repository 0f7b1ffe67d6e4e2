// Package config loads lecturequiz settings from a YAML file, a .env file
// and environment variables, in increasing order of precedence. The result
// is validated once at startup and passed down explicitly.
package config

import (
	"errors"
	"time"

	"github.com/alnah/go-lecturequiz/internal/lang"
)

// ErrInvalid indicates configuration values that fail validation.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete application configuration.
type Config struct {
	Provider   string         `mapstructure:"provider" validate:"oneof=openai deepseek"`
	OpenAI     ProviderConfig `mapstructure:"openai"`
	DeepSeek   ProviderConfig `mapstructure:"deepseek"`
	Language   string         `mapstructure:"language"`
	FFmpegPath string         `mapstructure:"ffmpeg_path"`
	Database   DatabaseConfig `mapstructure:"database"`
	Storage    StorageConfig  `mapstructure:"storage"`
	Log        LogConfig      `mapstructure:"log"`
	Pipeline   PipelineConfig `mapstructure:"pipeline"`
}

// ProviderConfig holds the credentials and models of one OpenAI-compatible API.
type ProviderConfig struct {
	APIKey             string `mapstructure:"api_key"`
	BaseURL            string `mapstructure:"base_url" validate:"omitempty,url"`
	TranscriptionModel string `mapstructure:"transcription_model"`
	ChatModel          string `mapstructure:"chat_model"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path     string `mapstructure:"path" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"oneof=silent error warn info"`
}

// StorageConfig configures access to S3 audio references.
type StorageConfig struct {
	S3Region    string `mapstructure:"s3_region"`
	S3Endpoint  string `mapstructure:"s3_endpoint" validate:"omitempty,url"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`
}

// LogConfig configures the application logger.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// PipelineConfig tunes the audio-to-quiz pipeline.
type PipelineConfig struct {
	ChunkDuration  time.Duration `mapstructure:"chunk_duration" validate:"gt=0"`
	ChunkOverlap   time.Duration `mapstructure:"chunk_overlap" validate:"gte=0"`
	SegmentMin     int           `mapstructure:"segment_min" validate:"gte=0"`
	SegmentMax     int           `mapstructure:"segment_max" validate:"gt=0"`
	Parallel       int           `mapstructure:"parallel" validate:"min=1,max=10"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	MaxRetries     int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	MCQCount       int           `mapstructure:"mcq_count" validate:"gte=0"`
	TFCount        int           `mapstructure:"tf_count" validate:"gte=0"`
	MCQRetries     int           `mapstructure:"mcq_retries" validate:"gte=0"`
	TFRetries      int           `mapstructure:"tf_retries" validate:"gte=0"`
}

// Chat returns the settings of the configured generation provider.
func (c Config) Chat() ProviderConfig {
	if c.Provider == "deepseek" {
		return c.DeepSeek
	}
	return c.OpenAI
}

// OutputLanguage returns the parsed output language. Load has already
// rejected invalid codes.
func (c Config) OutputLanguage() lang.Language {
	l, _ := lang.Parse(c.Language)
	return l
}

// defaults lists every key with its default value. Keys not listed here
// cannot be set from the environment.
var defaults = map[string]any{
	"provider":                   "openai",
	"openai.api_key":             "",
	"openai.base_url":            "",
	"openai.transcription_model": "whisper-1",
	"openai.chat_model":          "gpt-4o-mini",
	"deepseek.api_key":           "",
	"deepseek.base_url":          "",
	"deepseek.chat_model":        "deepseek-chat",
	"language":                   "zh-TW",
	"ffmpeg_path":                "",
	"database.path":              "lecturequiz.db",
	"database.log_level":         "warn",
	"storage.s3_region":          "",
	"storage.s3_endpoint":        "",
	"storage.s3_access_key":      "",
	"storage.s3_secret_key":      "",
	"log.level":                  "info",
	"log.format":                 "console",
	"pipeline.chunk_duration":    "8m",
	"pipeline.chunk_overlap":     "2s",
	"pipeline.segment_min":       300,
	"pipeline.segment_max":       1000,
	"pipeline.parallel":          1,
	"pipeline.request_timeout":   "2m",
	"pipeline.max_retries":       3,
	"pipeline.mcq_count":         3,
	"pipeline.tf_count":          0,
	"pipeline.mcq_retries":       1,
	"pipeline.tf_retries":        0,
}

// envAliases maps conventional variable names to keys. Prefixed
// variables (LECTUREQUIZ_OPENAI_API_KEY) take precedence over these.
var envAliases = map[string]string{
	"OPENAI_API_KEY":   "openai.api_key",
	"OPENAI_API_BASE":  "openai.base_url",
	"DEEPSEEK_API_KEY": "deepseek.api_key",
	"FFMPEG_PATH":      "ffmpeg_path",
}
