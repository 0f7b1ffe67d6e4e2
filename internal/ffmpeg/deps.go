package ffmpeg

import (
	"os"
	"os/exec"
)

// fileStatter checks that a candidate binary exists.
type fileStatter interface {
	Stat(name string) (os.FileInfo, error)
}

// pathLooker searches $PATH for an executable.
type pathLooker interface {
	LookPath(file string) (string, error)
}

// Compile-time interface verification.
var (
	_ fileStatter = osFileStatter{}
	_ pathLooker  = osPathLooker{}
)

type osFileStatter struct{}

func (osFileStatter) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

type osPathLooker struct{}

func (osPathLooker) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}
