// Package audio splits lecture recordings into bounded, overlapping chunks
// that fit the transcription service's input limit.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-lecturequiz/internal/ffmpeg"
	"github.com/alnah/go-lecturequiz/internal/format"
)

// Compile-time interface implementation check.
var _ Chunker = (*TimeChunker)(nil)

// Chunk is a bounded segment of the source audio, normalized to 16 kHz mono
// 16-bit PCM WAV. Every chunk except the first starts Overlap before its
// nominal window so words at the boundary appear in both neighbours.
// The caller owns the file at Path and must remove it once consumed.
type Chunk struct {
	Path      string        // Absolute path to the chunk file.
	Index     int           // Zero-based index for ordering.
	StartTime time.Duration // Extraction start in the source audio (overlap included).
	EndTime   time.Duration // Extraction end in the source audio.
	Overlap   time.Duration // Leading overlap shared with the previous chunk.
}

// Duration returns the length of this chunk.
func (c Chunk) Duration() time.Duration {
	return c.EndTime - c.StartTime
}

// String returns a human-readable representation for logging.
func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d: %s-%s",
		c.Index,
		format.Duration(c.StartTime),
		format.Duration(c.EndTime))
}

// Chunker splits an audio file into smaller chunks suitable for transcription.
type Chunker interface {
	// Chunk splits audioPath into multiple chunk files.
	// Returns chunks ordered by their position in the source audio.
	// The caller is responsible for cleaning up the returned chunk files.
	Chunk(ctx context.Context, audioPath string) ([]Chunk, error)
}

// Default chunking parameters.
const (
	// DefaultChunkDuration keeps each 16 kHz mono WAV chunk around 15 MB,
	// below the transcription service's 25 MB upload limit.
	DefaultChunkDuration = 8 * time.Minute

	// DefaultOverlap is the backward extension applied to every chunk but the first.
	DefaultOverlap = 2 * time.Second

	// tempDirPrefix marks directories created by the chunker so CleanupChunks
	// never removes anything else.
	tempDirPrefix = "go-lecturequiz-"
)

// TimeChunker splits audio into fixed-duration windows with a leading overlap.
type TimeChunker struct {
	ffmpegPath    string
	chunkDuration time.Duration
	overlap       time.Duration
	log           zerolog.Logger

	// Injectable dependencies (defaults to OS implementations).
	cmd     commandRunner
	tempDir tempDirCreator
	files   fileRemover
	statter fileStatter
	prober  durationProber
}

// TimeChunkerOption configures a TimeChunker.
type TimeChunkerOption func(*TimeChunker)

// WithCommandRunner sets the command runner used for probing and extraction.
func WithCommandRunner(r commandRunner) TimeChunkerOption {
	return func(tc *TimeChunker) {
		tc.cmd = r
	}
}

// WithTempDirCreator sets the temp directory creator.
func WithTempDirCreator(t tempDirCreator) TimeChunkerOption {
	return func(tc *TimeChunker) {
		tc.tempDir = t
	}
}

// WithFileRemover sets the file remover used for cleanup after a failed extraction.
func WithFileRemover(f fileRemover) TimeChunkerOption {
	return func(tc *TimeChunker) {
		tc.files = f
	}
}

// WithFileStatter sets the statter used to check that the source exists.
func WithFileStatter(s fileStatter) TimeChunkerOption {
	return func(tc *TimeChunker) {
		tc.statter = s
	}
}

// WithFileOpener sets the opener used by the MP3 frame prober.
func WithFileOpener(o fileOpener) TimeChunkerOption {
	return func(tc *TimeChunker) {
		tc.prober.open = o
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) TimeChunkerOption {
	return func(tc *TimeChunker) {
		tc.log = log
	}
}

// NewTimeChunker creates a TimeChunker. A non-positive chunkDuration falls
// back to DefaultChunkDuration and a negative overlap becomes zero.
func NewTimeChunker(ffmpegPath string, chunkDuration, overlap time.Duration, opts ...TimeChunkerOption) (*TimeChunker, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ffmpeg.ErrNotFound)
	}
	if chunkDuration <= 0 {
		chunkDuration = DefaultChunkDuration
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkDuration {
		return nil, fmt.Errorf("%w: overlap %v >= chunk %v", ErrInvalidOverlap, overlap, chunkDuration)
	}

	tc := &TimeChunker{
		ffmpegPath:    ffmpegPath,
		chunkDuration: chunkDuration,
		overlap:       overlap,
		log:           zerolog.Nop(),
		cmd:           osCommandRunner{},
		tempDir:       osTempDirCreator{},
		files:         osFileRemover{},
		statter:       osFileStatter{},
		prober:        durationProber{open: osFileOpener{}},
	}

	for _, opt := range opts {
		opt(tc)
	}
	tc.prober.cmd = tc.cmd
	tc.prober.ffmpegPath = tc.ffmpegPath

	return tc, nil
}

// Chunk splits the audio file into windows [i*C, min((i+1)*C, D)], each
// extended backward by the overlap (clamped at zero) except the first.
func (tc *TimeChunker) Chunk(ctx context.Context, audioPath string) ([]Chunk, error) {
	info, err := tc.statter.Stat(audioPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, audioPath)
		}
		return nil, fmt.Errorf("stat %s: %w", audioPath, err)
	}

	total, err := tc.prober.probe(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to probe audio duration: %w", err)
	}
	if total <= 0 {
		return nil, ErrEmptyAudio
	}

	windows := planWindows(total, tc.chunkDuration, tc.overlap)

	tempDir, err := tc.tempDir.MkdirTemp("", tempDirPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	chunks := make([]Chunk, 0, len(windows))
	for _, w := range windows {
		w.Path = filepath.Join(tempDir, fmt.Sprintf("chunk_%03d.wav", w.Index))
		if err := runExtractChunk(ctx, tc.cmd, tc.ffmpegPath, audioPath, w.Path, w.StartTime, w.EndTime); err != nil {
			_ = tc.files.RemoveAll(tempDir) // best-effort cleanup; original error takes precedence
			return nil, err
		}
		tc.log.Debug().Stringer("chunk", w).Msg("chunk extracted")
		chunks = append(chunks, w)
	}

	ev := tc.log.Info()
	if info != nil {
		ev = ev.Str("size", format.Size(info.Size()))
	}
	ev.Str("duration", format.Duration(total)).
		Int("chunks", len(chunks)).
		Msg("audio chunked")

	return chunks, nil
}

// planWindows computes chunk boundaries without touching the filesystem.
// The windows cover [0, total] with no gaps: window i spans
// [max(0, i*size-overlap), min((i+1)*size, total)].
func planWindows(total, size, overlap time.Duration) []Chunk {
	var windows []Chunk
	for i := 0; ; i++ {
		nominal := time.Duration(i) * size
		if nominal >= total {
			break
		}
		end := min(nominal+size, total)
		start := max(0, nominal-overlap)
		windows = append(windows, Chunk{
			Index:     i,
			StartTime: start,
			EndTime:   end,
			Overlap:   nominal - start,
		})
	}
	return windows
}

// chunkEncodingArgs returns FFmpeg encoding arguments for chunk extraction:
// 16 kHz, mono, signed 16-bit little-endian PCM.
func chunkEncodingArgs() []string {
	return []string{
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
	}
}

// runExtractChunk extracts [start, end] of audioPath into chunkPath.
func runExtractChunk(ctx context.Context, cmd commandRunner, ffmpegPath, audioPath, chunkPath string, start, end time.Duration) error {
	args := []string{
		"-y",
		"-i", audioPath,
		"-ss", formatFFmpegTime(start),
		"-to", formatFFmpegTime(end),
	}
	args = append(args, chunkEncodingArgs()...)
	args = append(args, chunkPath)

	output, err := cmd.CombinedOutput(ctx, ffmpegPath, args)
	if err != nil {
		return fmt.Errorf("%w: failed to extract chunk %s: %v\nOutput: %s",
			ErrChunkingFailed, chunkPath, err, string(output))
	}
	return nil
}

// formatFFmpegTime formats a duration for FFmpeg -ss/-to arguments.
func formatFFmpegTime(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := d.Seconds() - float64(h*3600+m*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}

// CleanupChunks removes the temp directory holding chunks. Files already
// removed by the consumer are fine. A directory not created by the chunker
// is left alone and only the listed files are removed.
func CleanupChunks(chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tempDir := filepath.Dir(chunks[0].Path)
	if !strings.HasPrefix(filepath.Base(tempDir), tempDirPrefix) {
		for _, chunk := range chunks {
			_ = os.Remove(chunk.Path) // best-effort cleanup; files may already be gone
		}
		return nil
	}

	return os.RemoveAll(tempDir)
}
