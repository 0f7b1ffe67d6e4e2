package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-lecturequiz/internal/config"
	"github.com/alnah/go-lecturequiz/internal/store"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	config      *mockConfigLoader
	store       *sharedStoreOpener
	ffmpeg      *mockFFmpegResolver
	chunker     *mockChunkerFactory
	transcriber *mockTranscriberFactory
	generator   *mockGeneratorFactory
}

// testConfig returns a valid configuration using an in-memory database.
func testConfig() config.Config {
	return config.Config{
		Provider: "openai",
		OpenAI:   config.ProviderConfig{APIKey: "sk-test", TranscriptionModel: "whisper-1", ChatModel: "gpt-4o-mini"},
		Language: "en",
		Database: config.DatabaseConfig{Path: store.MemoryPath, LogLevel: "silent"},
		Log:      config.LogConfig{Level: "error", Format: "json"},
		Pipeline: config.PipelineConfig{
			ChunkDuration:  8 * time.Minute,
			ChunkOverlap:   2 * time.Second,
			SegmentMin:     300,
			SegmentMax:     1000,
			Parallel:       2,
			RequestTimeout: time.Minute,
			MCQCount:       3,
			MCQRetries:     1,
		},
	}
}

func newTestMocks(t *testing.T) *testMocks {
	t.Helper()
	return &testMocks{
		config:      &mockConfigLoader{cfg: testConfig()},
		store:       newSharedStoreOpener(t),
		ffmpeg:      &mockFFmpegResolver{},
		chunker:     &mockChunkerFactory{chunker: fileChunker{dir: t.TempDir(), n: 3}},
		transcriber: &mockTranscriberFactory{},
		generator:   &mockGeneratorFactory{gen: &stageGenerator{}},
	}
}

// testEnv bundles a mocked Env with its captured output.
type testEnv struct {
	env    *Env
	stdout *syncBuffer
	stderr *syncBuffer
	mocks  *testMocks
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	m := newTestMocks(t)
	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	env := NewEnv(
		WithStdout(stdout),
		WithStderr(stderr),
		WithConfigLoader(m.config),
		WithStoreOpener(m.store),
		WithFFmpegResolver(m.ffmpeg),
		WithChunkerFactory(m.chunker),
		WithTranscriberFactory(m.transcriber),
		WithGeneratorFactory(m.generator),
	)
	return &testEnv{env: env, stdout: stdout, stderr: stderr, mocks: m}
}

// execute runs the root command with args and returns stdout.
func (te *testEnv) execute(args ...string) (string, error) {
	te.stdout.Reset()
	root := NewRootCmd(te.env, "test")
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return te.stdout.String(), err
}

// seedLecture creates a course and a lecture backed by a real temp file.
func (te *testEnv) seedLecture(t *testing.T) *store.Lecture {
	t.Helper()
	ctx := context.Background()
	s := te.mocks.store.store

	audioPath := writeTestFile(t, t.TempDir(), "week1.wav", "RIFF")
	c, err := s.CreateCourse(ctx, "Operating Systems", "")
	if err != nil {
		t.Fatal(err)
	}
	l, err := s.CreateLecture(ctx, c.ID, "Week 1", audioPath)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func assertContains(t *testing.T, got string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Errorf("output missing %q:\n%s", w, got)
		}
	}
}
