package source

import (
	"io"
	"os"
)

// fileRemover abstracts file removal for testing.
type fileRemover interface {
	Remove(name string) error
}

// tempFile is the subset of *os.File used for downloads.
type tempFile interface {
	io.Writer
	Name() string
	Close() error
}

// filesystem abstracts the file operations of a Resolver.
type filesystem interface {
	fileRemover
	Stat(name string) (os.FileInfo, error)
	CreateTemp(dir, pattern string) (tempFile, error)
}

type osFilesystem struct{}

func (osFilesystem) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }
func (osFilesystem) Remove(name string) error              { return os.Remove(name) }

func (osFilesystem) CreateTemp(dir, pattern string) (tempFile, error) {
	return os.CreateTemp(dir, pattern)
}
