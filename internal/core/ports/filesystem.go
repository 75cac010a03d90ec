package ports

import "io/fs"

// FileSystem is the read-only view of the disk used for change detection.
//
//go:generate go run go.uber.org/mock/mockgen -source=filesystem.go -destination=mocks/mock_filesystem.go -package=mocks
type FileSystem interface {
	// Stat returns file info for path. A missing path yields an error matching fs.ErrNotExist.
	Stat(path string) (fs.FileInfo, error)

	// ReadFile returns the contents of path.
	ReadFile(path string) ([]byte, error)
}
