package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alnah/go-lecturequiz/internal/apierr"
	"github.com/alnah/go-lecturequiz/internal/config"
	"github.com/alnah/go-lecturequiz/internal/ffmpeg"
	"github.com/alnah/go-lecturequiz/internal/lang"
	"github.com/alnah/go-lecturequiz/internal/llm"
	"github.com/alnah/go-lecturequiz/internal/source"
	"github.com/alnah/go-lecturequiz/internal/store"
)

// ---------------------------------------------------------------------------
// TestExitCode - errors to process exit codes
// ---------------------------------------------------------------------------

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"interrupt", fmt.Errorf("run: %w", context.Canceled), ExitInterrupt},
		{"missing arg", errors.New("accepts 1 arg(s), received 0"), ExitUsage},
		{"required flag", errors.New(`required flag(s) "course" not set`), ExitUsage},
		{"unknown command", errors.New(`unknown command "frobnicate" for "lecturequiz"`), ExitUsage},
		{"ffmpeg missing", fmt.Errorf("resolve: %w", ffmpeg.ErrNotFound), ExitSetup},
		{"api key", fmt.Errorf("openai: %w", llm.ErrAPIKeyMissing), ExitSetup},
		{"bad provider", llm.ErrInvalidProvider, ExitSetup},
		{"bad config", fmt.Errorf("%w: log.format", config.ErrInvalid), ExitSetup},
		{"config file", config.ErrFileNotFound, ExitSetup},
		{"bad id", ErrInvalidID, ExitValidation},
		{"negative count", ErrInvalidCount, ExitValidation},
		{"missing file", ErrFileNotFound, ExitValidation},
		{"unknown lecture", fmt.Errorf("lecture 9: %w", store.ErrNotFound), ExitValidation},
		{"bad ref", source.ErrInvalidRef, ExitValidation},
		{"missing source", source.ErrNotFound, ExitValidation},
		{"bad language", lang.ErrInvalid, ExitValidation},
		{"run incomplete", ErrRunIncomplete, ExitGeneral},
		{"service error", apierr.Wrap("generation", apierr.ErrRateLimit), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{ErrInvalidID, ErrInvalidCount, ErrFileNotFound, ErrRunIncomplete}
	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("sentinels %d and %d should not match: %v == %v", i, j, err1, err2)
			}
		}
	}
}

func TestParseID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    uint
		wantErr bool
	}{
		{"1", 1, false},
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := parseID("lecture", tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidID) {
				t.Errorf("error = %v, want ErrInvalidID", err)
			}
			if got != tt.want {
				t.Errorf("parseID(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
