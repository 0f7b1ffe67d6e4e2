// Package pipeline sequences transcription, summarization and quiz
// generation for one lecture and persists every artifact it produces.
//
// A run never returns an error. Each stage degrades to an empty or
// placeholder value, the failure is logged, and later stages run only when
// their input is usable.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/alnah/go-lecturequiz/internal/format"
	"github.com/alnah/go-lecturequiz/internal/logger"
	"github.com/alnah/go-lecturequiz/internal/quiz"
	"github.com/alnah/go-lecturequiz/internal/source"
	"github.com/alnah/go-lecturequiz/internal/store"
	"github.com/alnah/go-lecturequiz/internal/summarize"
	"github.com/alnah/go-lecturequiz/internal/transcribe"
)

// Store persists lecture artifacts. *store.Store implements it.
type Store interface {
	Lecture(ctx context.Context, id uint) (*store.Lecture, error)
	SaveTranscript(ctx context.Context, lectureID uint, transcript string) error
	SaveSummary(ctx context.Context, lectureID uint, summary string) error
	AddQuestions(ctx context.Context, lectureID uint, questions []quiz.Question) (int, error)
	MarkQuizGenerated(ctx context.Context, lectureID uint) error
}

// AudioOpener resolves a lecture's audio reference to a local file.
type AudioOpener interface {
	Open(ctx context.Context, ref string) (*source.Audio, error)
}

// Assembler turns a recording into a transcript.
type Assembler interface {
	AssembleReport(ctx context.Context, audioPath string) transcribe.Report
}

// Summarizer condenses a transcript into one summary.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) string
}

// Extractor generates quiz questions from a summary.
type Extractor interface {
	MCQ(ctx context.Context, summary string, count int) quiz.Result
	TF(ctx context.Context, summary string, count int) quiz.Result
}

// Compile-time interface compliance checks.
var (
	_ Store       = (*store.Store)(nil)
	_ AudioOpener = (*source.Resolver)(nil)
	_ Assembler   = (*transcribe.Assembler)(nil)
	_ Summarizer  = (*summarize.Summarizer)(nil)
	_ Extractor   = (*quiz.Extractor)(nil)
)

// Outcome reports what a run produced. It is informational only: the
// persisted lecture is the source of truth.
type Outcome struct {
	RunID        string
	Transcribed  bool
	FailedChunks []int
	Summarized   bool
	MCQ          int // MCQ rows stored
	TF           int // TF rows stored
	Elapsed      time.Duration
}

// Questions returns the number of stored questions.
func (o Outcome) Questions() int { return o.MCQ + o.TF }

// Pipeline runs the audio-to-quiz flow.
type Pipeline struct {
	store      Store
	summarizer Summarizer
	extractor  Extractor
	audio      AudioOpener
	assembler  Assembler
	log        zerolog.Logger
	now        func() time.Time
	newID      func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTranscription enables Run. Without it only RunFromTranscript works.
func WithTranscription(audio AudioOpener, assembler Assembler) Option {
	return func(p *Pipeline) {
		p.audio = audio
		p.assembler = assembler
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.log = log
	}
}

// withClock sets the time source (for testing).
func withClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// withRunID sets the run ID generator (for testing).
func withRunID(fn func() string) Option {
	return func(p *Pipeline) {
		p.newID = fn
	}
}

// New creates a Pipeline.
func New(st Store, summarizer Summarizer, extractor Extractor, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:      st,
		summarizer: summarizer,
		extractor:  extractor,
		log:        zerolog.Nop(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run transcribes the lecture's audio, then summarizes the transcript and
// generates mcqCount multiple-choice and tfCount true/false questions.
// A missing lecture, a missing audio source or an empty transcript stops
// the run before anything is written.
func (p *Pipeline) Run(ctx context.Context, lectureID uint, mcqCount, tfCount int) (out Outcome) {
	log, began := p.start(&out, lectureID)
	defer p.finish(&out, log, began)

	if p.audio == nil || p.assembler == nil {
		log.Error().Msg("transcription is not configured; run stopped")
		return out
	}

	lecture, ok := p.lecture(ctx, lectureID, log)
	if !ok {
		return out
	}

	log.Info().Msg("transcription started")
	audio, err := p.audio.Open(ctx, lecture.AudioRef)
	if err != nil {
		ev := log.Error().Err(err).Str("audio", lecture.AudioRef)
		if errors.Is(err, source.ErrNotFound) {
			ev.Msg("audio source not found; run stopped")
		} else {
			ev.Msg("audio source unavailable; run stopped")
		}
		return out
	}
	defer func() {
		if err := audio.Close(); err != nil {
			log.Warn().Err(err).Msg("audio cleanup failed")
		}
	}()

	report := p.assembler.AssembleReport(ctx, audio.Path)
	out.FailedChunks = report.Failed
	if report.Text == "" {
		log.Error().Int("chunks", report.Chunks).Msg("transcription failed; run stopped")
		return out
	}
	if len(report.Failed) > 0 {
		log.Warn().
			Ints("failed_chunks", report.Failed).
			Int("chunks", report.Chunks).
			Msg("transcript is partial")
	}
	out.Transcribed = true

	if err := p.store.SaveTranscript(ctx, lectureID, report.Text); err != nil {
		log.Error().Err(err).Msg("saving transcript failed")
	}

	p.generate(ctx, lectureID, report.Text, mcqCount, tfCount, &out, log)
	return out
}

// RunFromTranscript is Run without transcription: it summarizes the
// transcript already stored on the lecture.
func (p *Pipeline) RunFromTranscript(ctx context.Context, lectureID uint, mcqCount, tfCount int) (out Outcome) {
	log, began := p.start(&out, lectureID)
	defer p.finish(&out, log, began)

	lecture, ok := p.lecture(ctx, lectureID, log)
	if !ok {
		return out
	}
	transcript := strings.TrimSpace(lecture.Transcript)
	if transcript == "" {
		log.Error().Msg("lecture has no transcript; run stopped")
		return out
	}

	p.generate(ctx, lectureID, transcript, mcqCount, tfCount, &out, log)
	return out
}

// start assigns a run ID and returns the run logger and start time.
func (p *Pipeline) start(out *Outcome, lectureID uint) (zerolog.Logger, time.Time) {
	out.RunID = p.newID()
	log := p.log.With().
		Str(logger.FieldRunID, out.RunID).
		Uint(logger.FieldLectureID, lectureID).
		Logger()
	return log, p.now()
}

func (p *Pipeline) finish(out *Outcome, log zerolog.Logger, began time.Time) {
	out.Elapsed = p.now().Sub(began)
	log.Info().
		Bool("transcribed", out.Transcribed).
		Bool("summarized", out.Summarized).
		Int("mcq", out.MCQ).
		Int("tf", out.TF).
		Str("elapsed", format.Duration(out.Elapsed)).
		Msg("run finished")
}

func (p *Pipeline) lecture(ctx context.Context, id uint, log zerolog.Logger) (*store.Lecture, bool) {
	lecture, err := p.store.Lecture(ctx, id)
	if err != nil {
		log.Error().Err(err).Msg("loading lecture failed; run stopped")
		return nil, false
	}
	return lecture, true
}

// generate runs the summary and quiz stages.
func (p *Pipeline) generate(ctx context.Context, lectureID uint, transcript string, mcqCount, tfCount int, out *Outcome, log zerolog.Logger) {
	if p.cancelled(ctx, log) {
		return
	}

	log.Info().Int("transcript_chars", len([]rune(transcript))).Msg("summarization started")
	summary := p.summarizer.Summarize(ctx, transcript)
	if err := p.store.SaveSummary(ctx, lectureID, summary); err != nil {
		log.Error().Err(err).Msg("saving summary failed")
	}
	if !summarize.Usable(summary) {
		log.Warn().Msg("summary failed; quiz generation skipped")
		return
	}
	out.Summarized = true

	if p.cancelled(ctx, log) {
		return
	}

	log.Info().Int("mcq", mcqCount).Int("tf", tfCount).Msg("quiz generation started")
	if mcqCount > 0 {
		out.MCQ = p.saveQuestions(ctx, lectureID, quiz.KindMCQ, p.extractor.MCQ(ctx, summary, mcqCount), log)
	}
	if tfCount > 0 {
		out.TF = p.saveQuestions(ctx, lectureID, quiz.KindTF, p.extractor.TF(ctx, summary, tfCount), log)
	}

	if out.Questions() > 0 {
		if err := p.store.MarkQuizGenerated(ctx, lectureID); err != nil {
			log.Error().Err(err).Msg("marking quiz generated failed")
		}
	}
}

// saveQuestions persists one extraction result and returns the rows stored.
func (p *Pipeline) saveQuestions(ctx context.Context, lectureID uint, kind quiz.Kind, res quiz.Result, log zerolog.Logger) int {
	ev := log.With().Str("kind", string(kind)).Int("attempts", res.Attempts).Logger()
	if len(res.Questions) == 0 {
		ev.Warn().Msg("no questions returned")
		return 0
	}
	n, err := p.store.AddQuestions(ctx, lectureID, res.Questions)
	if err != nil {
		ev.Error().Err(err).Int("questions", len(res.Questions)).Msg("saving questions failed")
		return 0
	}
	ev.Info().Int("questions", n).Msg("questions stored")
	return n
}

func (p *Pipeline) cancelled(ctx context.Context, log zerolog.Logger) bool {
	if err := ctx.Err(); err != nil {
		log.Warn().Err(err).Msg("run cancelled")
		return true
	}
	return false
}
