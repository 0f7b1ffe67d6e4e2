// Package ffmpeg locates the FFmpeg binary and runs it.
package ffmpeg

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// minFFmpegMajorVersion is the oldest release whose resampler and
// pcm_s16le encoder flags behave as the chunker expects.
const minFFmpegMajorVersion = 4

// Resolver finds the FFmpeg binary.
type Resolver struct {
	configured string
	stat       fileStatter
	path       pathLooker
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithConfiguredPath sets an explicit path from configuration. It takes
// precedence over $PATH.
func WithConfiguredPath(path string) ResolverOption {
	return func(r *Resolver) { r.configured = path }
}

// WithFileStatter sets the file statter implementation.
func WithFileStatter(s fileStatter) ResolverOption {
	return func(r *Resolver) { r.stat = s }
}

// WithPathLooker sets the $PATH lookup implementation.
func WithPathLooker(l pathLooker) ResolverOption {
	return func(r *Resolver) { r.path = l }
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		stat: osFileStatter{},
		path: osPathLooker{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds ffmpeg using the following precedence:
//  1. configured path (error if set but missing)
//  2. system PATH
//
// FFMPEG_PATH is folded into the configured path by the config loader.
func (r *Resolver) Resolve(_ context.Context) (string, error) {
	if r.configured != "" {
		if _, err := r.stat.Stat(r.configured); err != nil {
			return "", fmt.Errorf("%w: configured path %q does not exist", ErrNotFound, r.configured)
		}
		return r.configured, nil
	}

	if path, err := r.path.LookPath("ffmpeg"); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%w: install ffmpeg or set ffmpeg_path (FFMPEG_PATH)", ErrNotFound)
}

// VersionChecker verifies FFmpeg version requirements.
type VersionChecker struct {
	executor *Executor
	log      zerolog.Logger
}

// VersionCheckerOption configures a VersionChecker.
type VersionCheckerOption func(*VersionChecker)

// WithVersionExecutor sets the executor for running FFmpeg.
func WithVersionExecutor(e *Executor) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.executor = e }
}

// WithVersionLogger sets the logger that receives the outdated-version warning.
func WithVersionLogger(log zerolog.Logger) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.log = log }
}

// NewVersionChecker creates a VersionChecker with the given options.
func NewVersionChecker(opts ...VersionCheckerOption) *VersionChecker {
	vc := &VersionChecker{
		executor: NewExecutor(),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(vc)
	}
	return vc
}

// Check reports the detected major version. It logs a warning below the
// minimum but never fails. ok is false when the version could not be parsed.
func (vc *VersionChecker) Check(ctx context.Context, ffmpegPath string) (major int, ok bool) {
	output, err := vc.executor.RunOutput(ctx, ffmpegPath, []string{"-version"})
	if err != nil && output == "" {
		return 0, false
	}

	first, _, _ := strings.Cut(output, "\n")
	if _, err := fmt.Sscanf(first, "ffmpeg version %d", &major); err != nil {
		// Git builds print "ffmpeg version n6.1.1-..."
		if _, err := fmt.Sscanf(first, "ffmpeg version n%d", &major); err != nil {
			return 0, false
		}
	}

	if major < minFFmpegMajorVersion {
		vc.log.Warn().
			Int("version", major).
			Int("recommended", minFFmpegMajorVersion).
			Msg("ffmpeg is older than recommended")
	}
	return major, true
}
