// Package fs provides file system adapters for reading and walking the disk.
package fs

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
)

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields every regular file below root, skipping hidden entries and entries
// whose base name matches one of the ignore globs. A missing root yields nothing.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root {
					return filepath.SkipAll
				}
				return nil
			}
			if path != root && w.skip(d.Name(), ignores) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func (w *Walker) skip(name string, ignores []string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			return true
		}
	}
	return false
}

// Usage sums the number and total size of the files below root.
func (w *Walker) Usage(root string) (files int, bytes int64) {
	for path := range w.WalkFiles(root, nil) {
		info, err := os.Lstat(path)
		if err != nil {
			continue
		}
		files++
		bytes += info.Size()
	}
	return files, bytes
}
