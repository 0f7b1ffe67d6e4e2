package audio

import "errors"

// ErrChunkingFailed indicates FFmpeg failed during audio chunking.
var ErrChunkingFailed = errors.New("audio chunking failed")

// ErrFileNotFound indicates the source audio file does not exist.
var ErrFileNotFound = errors.New("audio file not found")

// ErrInvalidOverlap indicates the overlap is not shorter than the chunk duration.
var ErrInvalidOverlap = errors.New("overlap must be shorter than chunk duration")

// ErrEmptyAudio indicates the source has zero duration.
var ErrEmptyAudio = errors.New("audio has zero duration")
