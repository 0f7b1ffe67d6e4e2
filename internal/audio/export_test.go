package audio

import "time"

// Export internal functions for testing.
// This file is only compiled during tests (suffix _test.go).

var (
	ParseDurationFromFFmpegOutput = parseDurationFromFFmpegOutput
	ParseTimeComponents           = parseTimeComponents
	FormatFFmpegTime              = formatFFmpegTime
	ChunkEncodingArgs             = chunkEncodingArgs
)

// PlanWindows exports planWindows for testing.
func PlanWindows(total, size, overlap time.Duration) []Chunk {
	return planWindows(total, size, overlap)
}

// --- Chunker dependency injection exports ---

type (
	CommandRunner  = commandRunner
	TempDirCreator = tempDirCreator
	FileRemover    = fileRemover
	FileStatter    = fileStatter
	FileOpener     = fileOpener
)
