package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/alnah/go-lecturequiz/internal/audio"
	"github.com/alnah/go-lecturequiz/internal/config"
	"github.com/alnah/go-lecturequiz/internal/ffmpeg"
	"github.com/alnah/go-lecturequiz/internal/lang"
	"github.com/alnah/go-lecturequiz/internal/llm"
	"github.com/alnah/go-lecturequiz/internal/source"
	"github.com/alnah/go-lecturequiz/internal/store"
)

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.
var (
	// ErrInvalidID indicates a course or lecture ID that is not a positive integer.
	ErrInvalidID = errors.New("invalid ID")

	// ErrFileNotFound indicates the specified input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidCount indicates a negative question count.
	ErrInvalidCount = errors.New("invalid question count")

	// ErrRunIncomplete indicates a pipeline run that stored no questions.
	ErrRunIncomplete = errors.New("pipeline run incomplete")
)

// Exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitInterrupt  = 130
)

// ExitCode maps errors to process exit codes.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	if isCobraUsageError(err) {
		return ExitUsage
	}

	if errors.Is(err, ffmpeg.ErrNotFound) || errors.Is(err, llm.ErrAPIKeyMissing) ||
		errors.Is(err, llm.ErrInvalidProvider) || errors.Is(err, config.ErrInvalid) ||
		errors.Is(err, config.ErrFileNotFound) || errors.Is(err, audio.ErrInvalidOverlap) {
		return ExitSetup
	}

	if errors.Is(err, ErrInvalidID) || errors.Is(err, ErrFileNotFound) || errors.Is(err, ErrInvalidCount) ||
		errors.Is(err, store.ErrNotFound) || errors.Is(err, source.ErrInvalidRef) ||
		errors.Is(err, source.ErrNotFound) || errors.Is(err, lang.ErrInvalid) {
		return ExitValidation
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// Cobra doesn't expose typed errors, so string matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",          // Missing required flag
	"unknown flag",           // Flag doesn't exist
	"unknown shorthand",      // Short flag doesn't exist
	"flag needs an argument", // Flag provided without value
	"invalid argument",       // Invalid flag value type
	"unknown command",        // Subcommand doesn't exist
	"accepts ",               // Wrong number of arguments (e.g., "accepts 1 arg(s)")
	"requires at least",      // Too few arguments
	"requires at most",       // Too many arguments
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	msg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
