package fs

import (
	"io/fs"
	"os"

	"go.trai.ch/zerr"
)

// OS implements ports.FileSystem on top of the real disk.
type OS struct{}

// NewOS creates a new OS file system.
func NewOS() *OS {
	return &OS{}
}

// Stat returns file info for path.
func (OS) Stat(path string) (fs.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to stat file"), "path", path)
	}
	return info, nil
}

// ReadFile returns the contents of path.
func (OS) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read file"), "path", path)
	}
	return data, nil
}
