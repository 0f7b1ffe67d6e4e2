package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-lecturequiz/internal/audio"
)

// fileRemover releases chunk files as soon as they are consumed.
type fileRemover interface {
	Remove(name string) error
}

type osFileRemover struct{}

func (osFileRemover) Remove(name string) error { return os.Remove(name) }

// Report describes one assembly run.
type Report struct {
	Text   string // joined transcript, "" when nothing was recognized
	Chunks int    // chunks produced by the chunker
	Failed []int  // indices of chunks whose request failed
}

// Assembler chunks a recording, transcribes every chunk best-effort and
// joins the fragments in source order.
type Assembler struct {
	chunker     audio.Chunker
	transcriber Transcriber
	files       fileRemover
	cleanup     func([]audio.Chunk) error
	parallel    int
	log         zerolog.Logger
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithParallel sets how many chunks are transcribed concurrently.
// Values below 1 mean sequential.
func WithParallel(n int) AssemblerOption {
	return func(a *Assembler) {
		a.parallel = max(n, 1)
	}
}

// WithAssemblerLogger sets the logger.
func WithAssemblerLogger(log zerolog.Logger) AssemblerOption {
	return func(a *Assembler) {
		a.log = log
	}
}

// withFileRemover sets the per-chunk file remover (for testing).
func withFileRemover(f fileRemover) AssemblerOption {
	return func(a *Assembler) {
		a.files = f
	}
}

// withCleanup sets the temp directory cleanup (for testing).
func withCleanup(fn func([]audio.Chunk) error) AssemblerOption {
	return func(a *Assembler) {
		a.cleanup = fn
	}
}

// NewAssembler creates an Assembler.
func NewAssembler(chunker audio.Chunker, transcriber Transcriber, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		chunker:     chunker,
		transcriber: transcriber,
		files:       osFileRemover{},
		cleanup:     audio.CleanupChunks,
		parallel:    1,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble returns the transcript of audioPath, or false when the source
// is missing, chunking fails, or no chunk produced any text. It never
// returns an error: per-chunk failures are logged and skipped.
func (a *Assembler) Assemble(ctx context.Context, audioPath string) (string, bool) {
	r := a.AssembleReport(ctx, audioPath)
	return r.Text, r.Text != ""
}

// AssembleReport is Assemble with per-chunk diagnostics.
func (a *Assembler) AssembleReport(ctx context.Context, audioPath string) Report {
	chunks, err := a.chunker.Chunk(ctx, audioPath)
	if err != nil {
		ev := a.log.Error().Err(err).Str("audio", audioPath)
		if errors.Is(err, audio.ErrFileNotFound) {
			ev.Msg("audio source not found")
		} else {
			ev.Msg("audio chunking failed")
		}
		return Report{}
	}
	defer func() {
		if err := a.cleanup(chunks); err != nil {
			a.log.Warn().Err(err).Msg("chunk cleanup failed")
		}
	}()

	texts := make([]string, len(chunks))
	failed := make([]bool, len(chunks))

	var g errgroup.Group
	g.SetLimit(a.parallel)
	for i, chunk := range chunks {
		g.Go(func() error {
			text, err := a.transcribeChunk(ctx, chunk)
			if err != nil {
				failed[i] = true
				return nil
			}
			texts[i] = text
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	report := Report{Chunks: len(chunks)}
	var parts []string
	for i := range chunks {
		if failed[i] {
			report.Failed = append(report.Failed, i)
			continue
		}
		if t := strings.TrimSpace(texts[i]); t != "" {
			parts = append(parts, t)
		}
	}
	report.Text = strings.TrimSpace(strings.Join(parts, "\n"))

	ev := a.log.Info()
	if len(report.Failed) > 0 {
		ev = a.log.Warn().Ints("failed_chunks", report.Failed)
	}
	ev.Int("chunks", report.Chunks).
		Int("transcript_chars", len([]rune(report.Text))).
		Msg("transcript assembled")

	return report
}

// transcribeChunk sends one chunk and releases its file whatever the outcome.
func (a *Assembler) transcribeChunk(ctx context.Context, chunk audio.Chunk) (string, error) {
	defer func() {
		if err := a.files.Remove(chunk.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			a.log.Debug().Err(err).Str("chunk", filepath.Base(chunk.Path)).Msg("chunk remove failed")
		}
	}()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := a.transcriber.Transcribe(ctx, chunk.Path)
	if err != nil {
		a.log.Warn().Err(err).Stringer("chunk", chunk).Msg("chunk transcription failed")
		return "", err
	}
	a.log.Debug().Stringer("chunk", chunk).Int("chars", len([]rune(text))).Msg("chunk transcribed")
	return text, nil
}
