package pipeline_test

// Notes:
// - End-to-end tests wire the real chunker, assembler, summarizer,
//   extractor and an in-memory SQLite store. Only FFmpeg, the
//   transcription service and the generation service are mocked.
// - Generation requests are routed by MaxTokens, which differs per stage.
// - Unit tests use stub stages to check guards and persistence.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-lecturequiz/internal/audio"
	"github.com/alnah/go-lecturequiz/internal/llm"
	"github.com/alnah/go-lecturequiz/internal/pipeline"
	"github.com/alnah/go-lecturequiz/internal/quiz"
	"github.com/alnah/go-lecturequiz/internal/source"
	"github.com/alnah/go-lecturequiz/internal/store"
	"github.com/alnah/go-lecturequiz/internal/summarize"
	"github.com/alnah/go-lecturequiz/internal/transcribe"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

// ffmpegRunner reports a fixed duration and pretends every extraction works.
type ffmpegRunner struct {
	duration string
}

func (r ffmpegRunner) CombinedOutput(_ context.Context, _ string, args []string) ([]byte, error) {
	if slices.Contains(args, "null") {
		return []byte("  Duration: " + r.duration + ", start: 0.000000, bitrate: 128 kb/s"), nil
	}
	return nil, nil
}

type tempDirs struct {
	base string
}

func (d tempDirs) MkdirTemp(_, pattern string) (string, error) {
	return os.MkdirTemp(d.base, pattern)
}

// echoTranscriber answers with the chunk index, or fails every call.
type echoTranscriber struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (e *echoTranscriber) Transcribe(_ context.Context, path string) (string, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.fail {
		return "", errors.New("transcription service down")
	}
	var i int
	if _, err := fmt.Sscanf(filepath.Base(path), "chunk_%03d.wav", &i); err != nil {
		return "", err
	}
	return fmt.Sprint(i), nil
}

// stageGenerator scripts replies per stage. MCQ replies are consumed in order.
type stageGenerator struct {
	mu      sync.Mutex
	summary string
	mcq     []string
	tf      string
	calls   map[int]int
}

const (
	segmentTokens = 400
	combineTokens = 512
	mcqTokens     = 1500
	tfTokens      = 1200
)

func (g *stageGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.calls == nil {
		g.calls = map[int]int{}
	}
	n := g.calls[req.MaxTokens]
	g.calls[req.MaxTokens]++

	switch req.MaxTokens {
	case segmentTokens:
		return "partial summary", nil
	case combineTokens:
		return g.summary, nil
	case mcqTokens:
		if n < len(g.mcq) {
			return g.mcq[n], nil
		}
		return "", errors.New("no scripted reply")
	case tfTokens:
		return g.tf, nil
	}
	return "", fmt.Errorf("unexpected request with max_tokens %d", req.MaxTokens)
}

func (g *stageGenerator) Calls(maxTokens int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[maxTokens]
}

const threeMCQ = `[
 {"concept":"scheduling","question":"Which policy is preemptive?","options":{"A":"FIFO","B":"Round robin","C":"SJF","D":"None"},"answer":"B","explanation":"Time slices."},
 {"concept":"memory","question":"What does a TLB cache?","options":{"A":"Pages","B":"Inodes","C":"Address translations","D":"Sockets"},"answer":"c","explanation":""},
 {"concept":"io","question":"What is DMA?","options":{"A":"Direct memory access","B":"Disk map","C":"Data mode","D":"Dual mux"},"answer":"A"}
]`

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type fixture struct {
	store     *store.Store
	lecture   *store.Lecture
	tr        *echoTranscriber
	gen       *stageGenerator
	pipeline  *pipeline.Pipeline
	extractor *quiz.Extractor
}

// newFixture wires a full pipeline over a 20-minute recording.
func newFixture(t *testing.T, tr *echoTranscriber, gen *stageGenerator) *fixture {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	audioPath := filepath.Join(dir, "week1.wav")
	if err := os.WriteFile(audioPath, []byte("RIFF"), 0o600); err != nil {
		t.Fatal(err)
	}

	st, err := store.Open(ctx, store.Config{Path: store.MemoryPath, LogLevel: "silent"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	course, err := st.CreateCourse(ctx, "Operating Systems", "")
	if err != nil {
		t.Fatal(err)
	}
	lecture, err := st.CreateLecture(ctx, course.ID, "Week 1", audioPath)
	if err != nil {
		t.Fatal(err)
	}

	chunker, err := audio.NewTimeChunker("ffmpeg", 8*time.Minute, 2*time.Second,
		audio.WithCommandRunner(ffmpegRunner{duration: "00:20:00.00"}),
		audio.WithTempDirCreator(tempDirs{base: dir}),
	)
	if err != nil {
		t.Fatalf("NewTimeChunker() error = %v", err)
	}

	extractor := quiz.NewExtractor(gen)
	p := pipeline.New(st, summarize.New(gen), extractor,
		pipeline.WithTranscription(source.NewResolver(), transcribe.NewAssembler(chunker, tr)),
		pipeline.WithRunID(func() string { return "run-1" }),
	)

	return &fixture{store: st, lecture: lecture, tr: tr, gen: gen, pipeline: p, extractor: extractor}
}

func (f *fixture) reload(t *testing.T) *store.Lecture {
	t.Helper()
	l, err := f.store.Lecture(context.Background(), f.lecture.ID)
	if err != nil {
		t.Fatalf("Lecture() error = %v", err)
	}
	return l
}

func (f *fixture) questions(t *testing.T) []store.Question {
	t.Helper()
	qs, err := f.store.Questions(context.Background(), f.lecture.ID)
	if err != nil {
		t.Fatalf("Questions() error = %v", err)
	}
	return qs
}

// ---------------------------------------------------------------------------
// TestRun_HappyPath - audio to stored questions
// ---------------------------------------------------------------------------

func TestRun_HappyPath(t *testing.T) {
	t.Parallel()

	gen := &stageGenerator{summary: "[Overview] processes", mcq: []string{threeMCQ}}
	f := newFixture(t, &echoTranscriber{}, gen)

	out := f.pipeline.Run(context.Background(), f.lecture.ID, 3, 0)

	if !out.Transcribed || !out.Summarized || out.MCQ != 3 || out.RunID != "run-1" {
		t.Errorf("Outcome = %+v", out)
	}
	if f.tr.calls != 3 {
		t.Errorf("transcription calls = %d, want 3", f.tr.calls)
	}

	l := f.reload(t)
	if l.Transcript != "0\n1\n2" {
		t.Errorf("Transcript = %q, want %q", l.Transcript, "0\n1\n2")
	}
	if l.Summary != "[Overview] processes" || !l.QuizGenerated {
		t.Errorf("lecture = %+v", l)
	}

	qs := f.questions(t)
	if len(qs) != 3 {
		t.Fatalf("stored %d questions, want 3", len(qs))
	}
	for _, q := range qs {
		if q.QuestionType != "mcq" {
			t.Errorf("QuestionType = %q, want mcq", q.QuestionType)
		}
	}
	first := qs[0]
	if first.Concept != "scheduling" || first.QuestionText != "Which policy is preemptive?" ||
		first.OptionB != "Round robin" || first.CorrectAnswer != "B" || first.Explanation != "Time slices." {
		t.Errorf("first question = %+v", first)
	}
	if qs[1].CorrectAnswer != "C" {
		t.Errorf("answer = %q, want uppercase C", qs[1].CorrectAnswer)
	}
	if gen.Calls(mcqTokens) != 1 {
		t.Errorf("MCQ calls = %d, want 1", gen.Calls(mcqTokens))
	}
}

// ---------------------------------------------------------------------------
// TestRun_RetryPath - prose first, valid array on the stricter retry
// ---------------------------------------------------------------------------

func TestRun_RetryPath(t *testing.T) {
	t.Parallel()

	gen := &stageGenerator{
		summary: "[Overview] processes",
		mcq:     []string{"Sure! Here are some great questions about operating systems.", threeMCQ},
	}
	f := newFixture(t, &echoTranscriber{}, gen)

	res := f.extractor.MCQ(context.Background(), "[Overview] processes", 3)
	if len(res.Questions) != 3 || res.Attempts != 2 {
		t.Fatalf("MCQ() = %d questions after %d attempts, want 3 after 2", len(res.Questions), res.Attempts)
	}
	if gen.Calls(mcqTokens) != 2 {
		t.Errorf("generation calls = %d, want 2", gen.Calls(mcqTokens))
	}
}

// ---------------------------------------------------------------------------
// TestRun_TotalFailure - every chunk fails, nothing is overwritten
// ---------------------------------------------------------------------------

func TestRun_TotalFailure(t *testing.T) {
	t.Parallel()

	gen := &stageGenerator{summary: "[Overview] processes", mcq: []string{threeMCQ}}
	f := newFixture(t, &echoTranscriber{fail: true}, gen)
	ctx := context.Background()

	if err := f.store.SaveTranscript(ctx, f.lecture.ID, "previous transcript"); err != nil {
		t.Fatal(err)
	}

	out := f.pipeline.Run(ctx, f.lecture.ID, 3, 0)

	if out.Transcribed || out.Summarized || out.Questions() != 0 {
		t.Errorf("Outcome = %+v", out)
	}
	if !slices.Equal(out.FailedChunks, []int{0, 1, 2}) {
		t.Errorf("FailedChunks = %v, want [0 1 2]", out.FailedChunks)
	}
	l := f.reload(t)
	if l.Transcript != "previous transcript" || l.Summary != "" || l.QuizGenerated {
		t.Errorf("lecture changed: %+v", l)
	}
	if total := gen.Calls(segmentTokens) + gen.Calls(combineTokens) + gen.Calls(mcqTokens); total != 0 {
		t.Errorf("generation calls = %d, want 0", total)
	}
}

func TestRun_AudioNotFound(t *testing.T) {
	t.Parallel()

	gen := &stageGenerator{summary: "[Overview] processes", mcq: []string{threeMCQ}}
	f := newFixture(t, &echoTranscriber{}, gen)
	ctx := context.Background()

	missing, err := f.store.CreateLecture(ctx, f.lecture.CourseID, "Week 2", filepath.Join(t.TempDir(), "gone.wav"))
	if err != nil {
		t.Fatal(err)
	}

	out := f.pipeline.Run(ctx, missing.ID, 3, 0)
	if out.Transcribed || f.tr.calls != 0 {
		t.Errorf("Outcome = %+v after %d transcription calls", out, f.tr.calls)
	}
}

func TestRun_FailedSummarySkipsQuiz(t *testing.T) {
	t.Parallel()

	gen := &stageGenerator{summary: "   ", mcq: []string{threeMCQ}}
	f := newFixture(t, &echoTranscriber{}, gen)

	out := f.pipeline.Run(context.Background(), f.lecture.ID, 3, 2)

	if !out.Transcribed || out.Summarized {
		t.Errorf("Outcome = %+v", out)
	}
	if l := f.reload(t); l.Summary != summarize.FailedSummary || l.QuizGenerated {
		t.Errorf("lecture = %+v, want failure sentinel stored", l)
	}
	if gen.Calls(mcqTokens)+gen.Calls(tfTokens) != 0 {
		t.Error("quiz generation should be skipped")
	}
}

func TestRunFromTranscript(t *testing.T) {
	t.Parallel()

	const tf = `{"items":[{"concept":"io","question":"DMA bypasses the CPU.","answer":"true"},{"concept":"io","question":"Polling is free.","answer":false,"explanation":"It burns cycles."}]}`
	gen := &stageGenerator{summary: "[Overview] io", mcq: []string{"no", "still no"}, tf: tf}
	f := newFixture(t, &echoTranscriber{}, gen)
	ctx := context.Background()

	if err := f.store.SaveTranscript(ctx, f.lecture.ID, "Interrupts signal the CPU. DMA moves data."); err != nil {
		t.Fatal(err)
	}

	out := f.pipeline.RunFromTranscript(ctx, f.lecture.ID, 3, 2)

	if f.tr.calls != 0 {
		t.Errorf("transcription calls = %d, want 0", f.tr.calls)
	}
	if out.MCQ != 0 || out.TF != 2 {
		t.Errorf("Outcome = %+v, want 0 MCQ and 2 TF", out)
	}
	qs := f.questions(t)
	if len(qs) != 2 || qs[0].CorrectAnswer != quiz.AnswerTrue || qs[1].CorrectAnswer != quiz.AnswerFalse {
		t.Errorf("questions = %+v", qs)
	}
	if !f.reload(t).QuizGenerated {
		t.Error("QuizGenerated should be set")
	}
	if gen.Calls(mcqTokens) != 2 {
		t.Errorf("MCQ calls = %d, want 2", gen.Calls(mcqTokens))
	}
}

// ---------------------------------------------------------------------------
// Guards - stub stages
// ---------------------------------------------------------------------------

type stubSummarizer struct{ calls int }

func (s *stubSummarizer) Summarize(context.Context, string) string {
	s.calls++
	return "summary"
}

type stubExtractor struct{}

func (stubExtractor) MCQ(context.Context, string, int) quiz.Result { return quiz.Result{} }
func (stubExtractor) TF(context.Context, string, int) quiz.Result  { return quiz.Result{} }

func TestRun_Guards(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{Path: store.MemoryPath, LogLevel: "silent"}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })
	course, _ := st.CreateCourse(ctx, "Networks", "")
	empty, _ := st.CreateLecture(ctx, course.ID, "Empty", "/nope.wav")

	tests := []struct {
		name string
		run  func(p *pipeline.Pipeline) pipeline.Outcome
	}{
		{"unknown lecture", func(p *pipeline.Pipeline) pipeline.Outcome { return p.RunFromTranscript(ctx, 999, 3, 0) }},
		{"empty stored transcript", func(p *pipeline.Pipeline) pipeline.Outcome { return p.RunFromTranscript(ctx, empty.ID, 3, 0) }},
		{"transcription not configured", func(p *pipeline.Pipeline) pipeline.Outcome { return p.Run(ctx, empty.ID, 3, 0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sum := &stubSummarizer{}
			p := pipeline.New(st, sum, stubExtractor{})
			out := tt.run(p)

			if out.Summarized || sum.calls != 0 {
				t.Errorf("Outcome = %+v with %d summarizer calls", out, sum.calls)
			}
			if out.RunID == "" {
				t.Error("RunID should always be set")
			}
		})
	}
}

func TestRun_NoQuestionsLeavesFlagUnset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{Path: store.MemoryPath, LogLevel: "silent"}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })
	course, _ := st.CreateCourse(ctx, "Networks", "")
	l, _ := st.CreateLecture(ctx, course.ID, "TCP", "/tcp.wav")
	_ = st.SaveTranscript(ctx, l.ID, "TCP is reliable.")

	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	ticks := 0
	clock := func() time.Time {
		ticks++
		return start.Add(time.Duration(ticks) * time.Second)
	}

	out := pipeline.New(st, &stubSummarizer{}, stubExtractor{}, pipeline.WithClock(clock)).
		RunFromTranscript(ctx, l.ID, 3, 1)

	if !out.Summarized || out.Questions() != 0 {
		t.Errorf("Outcome = %+v", out)
	}
	if out.Elapsed != time.Second {
		t.Errorf("Elapsed = %v, want 1s", out.Elapsed)
	}
	got, _ := st.Lecture(ctx, l.ID)
	if got.QuizGenerated || strings.TrimSpace(got.Summary) != "summary" {
		t.Errorf("lecture = %+v", got)
	}
}
