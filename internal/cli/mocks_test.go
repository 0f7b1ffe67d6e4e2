package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/alnah/go-lecturequiz/internal/audio"
	"github.com/alnah/go-lecturequiz/internal/config"
	"github.com/alnah/go-lecturequiz/internal/llm"
	"github.com/alnah/go-lecturequiz/internal/store"
	"github.com/alnah/go-lecturequiz/internal/transcribe"
)

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	cfg config.Config
	err error

	mu    sync.Mutex
	paths []string
}

func (m *mockConfigLoader) Load(path string) (config.Config, error) {
	m.mu.Lock()
	m.paths = append(m.paths, path)
	m.mu.Unlock()
	return m.cfg, m.err
}

func (m *mockConfigLoader) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.paths...)
}

// ---------------------------------------------------------------------------
// sharedStoreOpener - one in-memory store shared across commands
// ---------------------------------------------------------------------------

// nopCloseStore keeps the in-memory database alive between commands.
type nopCloseStore struct {
	*store.Store
}

func (nopCloseStore) Close() error { return nil }

type sharedStoreOpener struct {
	store *store.Store
	err   error
}

func newSharedStoreOpener(t *testing.T) *sharedStoreOpener {
	t.Helper()
	s, err := store.Open(context.Background(), store.Config{Path: store.MemoryPath, LogLevel: "silent"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return &sharedStoreOpener{store: s}
}

func (o *sharedStoreOpener) Open(context.Context, config.DatabaseConfig, zerolog.Logger) (Store, error) {
	if o.err != nil {
		return nil, o.err
	}
	return nopCloseStore{o.store}, nil
}

// ---------------------------------------------------------------------------
// Mock FFmpegResolver
// ---------------------------------------------------------------------------

type mockFFmpegResolver struct {
	err error

	mu            sync.Mutex
	configured    string
	versionChecks int
}

func (m *mockFFmpegResolver) Resolve(_ context.Context, configured string) (string, error) {
	m.mu.Lock()
	m.configured = configured
	m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return "/usr/bin/ffmpeg", nil
}

func (m *mockFFmpegResolver) CheckVersion(context.Context, string, zerolog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versionChecks++
}

// ---------------------------------------------------------------------------
// Mock ChunkerFactory
// ---------------------------------------------------------------------------

// fileChunker writes n empty chunk files and returns them.
type fileChunker struct {
	dir string
	n   int
}

func (c fileChunker) Chunk(_ context.Context, audioPath string) ([]audio.Chunk, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("%w: %s", audio.ErrFileNotFound, audioPath)
	}
	chunks := make([]audio.Chunk, c.n)
	for i := range chunks {
		p := filepath.Join(c.dir, fmt.Sprintf("chunk_%03d.wav", i))
		if err := os.WriteFile(p, nil, 0o600); err != nil {
			return nil, err
		}
		chunks[i] = audio.Chunk{Index: i, Path: p}
	}
	return chunks, nil
}

type mockChunkerFactory struct {
	chunker audio.Chunker
	err     error
}

func (m *mockChunkerFactory) NewChunker(string, config.PipelineConfig, zerolog.Logger) (audio.Chunker, error) {
	return m.chunker, m.err
}

// ---------------------------------------------------------------------------
// Mock TranscriberFactory
// ---------------------------------------------------------------------------

// echoTranscriber answers with the chunk index parsed from the file name.
type echoTranscriber struct{}

func (echoTranscriber) Transcribe(_ context.Context, path string) (string, error) {
	var i int
	if _, err := fmt.Sscanf(filepath.Base(path), "chunk_%03d.wav", &i); err != nil {
		return "", err
	}
	return fmt.Sprint(i), nil
}

type mockTranscriberFactory struct {
	err error

	mu      sync.Mutex
	prompts []string
}

func (m *mockTranscriberFactory) NewTranscriber(_ config.Config, prompt string) (transcribe.Transcriber, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return echoTranscriber{}, nil
}

func (m *mockTranscriberFactory) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// ---------------------------------------------------------------------------
// Mock GeneratorFactory
// ---------------------------------------------------------------------------

const validMCQ = `[
 {"concept":"scheduling","question":"Which policy is preemptive?","options":{"A":"FIFO","B":"Round robin","C":"SJF","D":"None"},"answer":"B","explanation":"Time slices."},
 {"concept":"memory","question":"What does a TLB cache?","options":{"A":"Pages","B":"Inodes","C":"Translations","D":"Sockets"},"answer":"C"},
 {"concept":"io","question":"What is DMA?","options":{"A":"Direct memory access","B":"Disk map","C":"Data mode","D":"Dual mux"},"answer":"A"}
]`

const validTF = `[{"concept":"io","question":"DMA bypasses the CPU.","answer":"true"}]`

// stageGenerator answers by stage; stages are told apart by MaxTokens.
type stageGenerator struct {
	mu    sync.Mutex
	calls int
}

func (g *stageGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()

	switch req.MaxTokens {
	case 400:
		return "partial", nil
	case 512:
		return "[Overview] processes and memory", nil
	case 1500:
		return "Here you go:\n```json\n" + validMCQ + "\n```", nil
	case 1200:
		return validTF, nil
	}
	return "", errors.New("unexpected request")
}

func (g *stageGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type mockGeneratorFactory struct {
	gen *stageGenerator
	err error
}

func (m *mockGeneratorFactory) NewGenerator(config.Config, zerolog.Logger) (llm.Generator, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.gen, nil
}
