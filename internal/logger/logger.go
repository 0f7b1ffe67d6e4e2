// Package logger builds the zerolog logger shared by every component.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Field names shared across components.
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldLectureID = "lecture_id"
)

// Config configures a logger.
type Config struct {
	Level   string    // debug, info, warn, error; unknown values mean info
	Format  string    // console or json
	Output  io.Writer // defaults to stderr
	NoColor bool
}

// New creates a timestamped logger. Console output is human-readable;
// anything else is JSON lines.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if strings.EqualFold(cfg.Format, FormatConsole) {
		out = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    cfg.NoColor,
			TimeFormat: time.TimeOnly,
		}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// WithComponent returns log tagged with a component name.
func WithComponent(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str(FieldComponent, name).Logger()
}
