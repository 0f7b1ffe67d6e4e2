package transcribe

import "github.com/alnah/go-lecturequiz/internal/audio"

// Exports for testing. These allow black-box tests to inject dependencies
// without modifying the public API.

// AudioTranscriber exports audioTranscriber for mocks.
type AudioTranscriber = audioTranscriber

// NewTestTranscriber creates an OpenAITranscriber with a mock audioTranscriber.
func NewTestTranscriber(client audioTranscriber, opts ...TranscriberOption) *OpenAITranscriber {
	return newTranscriber(client, opts...)
}

// FileRemover exports fileRemover for mocks.
type FileRemover = fileRemover

// WithFileRemover exports withFileRemover.
func WithFileRemover(f fileRemover) AssemblerOption { return withFileRemover(f) }

// WithCleanup exports withCleanup.
func WithCleanup(fn func([]audio.Chunk) error) AssemblerOption { return withCleanup(fn) }
