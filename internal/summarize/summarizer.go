// Package summarize turns a transcript into one structured summary by
// summarizing each text segment and merging the partial summaries.
//
// Failures never abort the batch: a failed segment is replaced by a
// placeholder and a failed merge yields FailedSummary.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-lecturequiz/internal/lang"
	"github.com/alnah/go-lecturequiz/internal/llm"
	"github.com/alnah/go-lecturequiz/internal/segment"
)

// FailedSummary is returned by Combine when the merge request fails.
const FailedSummary = "combined summary failed"

// Generation parameters.
const (
	segmentTemperature = 0.3
	segmentMaxTokens   = 400
	combineTemperature = 0.3
	combineMaxTokens   = 512
)

// SegmentFailed returns the placeholder for the segment at index (0-based).
func SegmentFailed(index int) string {
	return fmt.Sprintf("segment %d summary failed", index+1)
}

// Usable reports whether summary can feed quiz generation.
func Usable(summary string) bool {
	s := strings.TrimSpace(summary)
	return s != "" && s != FailedSummary
}

// Summarizer runs the map (per segment) and reduce (combine) phases.
type Summarizer struct {
	gen        llm.Generator
	model      string
	language   lang.Language
	minLength  int
	maxLength  int
	parallel   int
	onProgress func(phase string, current, total int)
	log        zerolog.Logger
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithLanguage sets the output language. The zero value or English adds no instruction.
func WithLanguage(l lang.Language) Option {
	return func(s *Summarizer) {
		s.language = l
	}
}

// WithModel overrides the generator's default model.
func WithModel(model string) Option {
	return func(s *Summarizer) {
		s.model = model
	}
}

// WithSegmentBounds sets the segmenter bounds used by Summarize.
func WithSegmentBounds(minLength, maxLength int) Option {
	return func(s *Summarizer) {
		if maxLength > 0 {
			s.minLength = minLength
			s.maxLength = maxLength
		}
	}
}

// WithParallel sets how many segments are summarized concurrently.
func WithParallel(n int) Option {
	return func(s *Summarizer) {
		s.parallel = max(n, 1)
	}
}

// WithProgress sets a progress callback, called with phase "map" per
// segment and "reduce" once. With parallelism above 1 it may be called
// concurrently.
func WithProgress(fn func(phase string, current, total int)) Option {
	return func(s *Summarizer) {
		s.onProgress = fn
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Summarizer) {
		s.log = log
	}
}

// New creates a Summarizer.
func New(gen llm.Generator, opts ...Option) *Summarizer {
	s := &Summarizer{
		gen:       gen,
		minLength: segment.DefaultMinLength,
		maxLength: segment.DefaultMaxLength,
		parallel:  1,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize splits transcript into segments, summarizes each and combines
// the results. An empty transcript yields FailedSummary without any call.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) string {
	segments := segment.Split(transcript, s.minLength, s.maxLength)
	if len(segments) == 0 {
		s.log.Warn().Msg("empty transcript, nothing to summarize")
		return FailedSummary
	}
	s.log.Info().Int("segments", len(segments)).Msg("transcript segmented")
	return s.Combine(ctx, s.SummarizeSegments(ctx, segments))
}

// SummarizeSegments returns one partial summary per segment, in order.
// A segment whose request fails gets the SegmentFailed placeholder.
func (s *Summarizer) SummarizeSegments(ctx context.Context, segments []string) []string {
	partials := make([]string, len(segments))

	var g errgroup.Group
	g.SetLimit(s.parallel)
	for i, seg := range segments {
		g.Go(func() error {
			s.progress("map", i+1, len(segments))
			partials[i] = s.summarizeSegment(ctx, seg, i, len(segments))
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	return partials
}

func (s *Summarizer) summarizeSegment(ctx context.Context, text string, index, total int) string {
	out, err := s.gen.Generate(ctx, llm.Request{
		Messages: []llm.Message{
			llm.System(buildSegmentPrompt(s.language.Instruction(), index, total)),
			llm.User(text),
		},
		Model:       s.model,
		Temperature: segmentTemperature,
		MaxTokens:   segmentMaxTokens,
	})
	out = strings.TrimSpace(out)
	if err == nil && out == "" {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		s.log.Warn().Err(err).Int("segment", index+1).Int("segments", total).Msg("segment summary failed")
		return SegmentFailed(index)
	}
	return out
}

// Combine merges partial summaries into one labeled summary. It returns
// FailedSummary when there is nothing to merge or the request fails.
func (s *Summarizer) Combine(ctx context.Context, partials []string) string {
	if len(partials) == 0 {
		return FailedSummary
	}
	s.progress("reduce", 1, 1)

	out, err := s.gen.Generate(ctx, llm.Request{
		Messages: []llm.Message{
			llm.System(withInstruction(s.language.Instruction(), combinePrompt)),
			llm.User(buildCombineInput(partials)),
		},
		Model:       s.model,
		Temperature: combineTemperature,
		MaxTokens:   combineMaxTokens,
	})
	out = strings.TrimSpace(out)
	if err == nil && out == "" {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		s.log.Error().Err(err).Int("partials", len(partials)).Msg("summary combine failed")
		return FailedSummary
	}
	return out
}

func (s *Summarizer) progress(phase string, current, total int) {
	if s.onProgress != nil {
		s.onProgress(phase, current, total)
	}
}
