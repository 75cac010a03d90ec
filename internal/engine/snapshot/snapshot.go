// Package snapshot records per-file change evidence and reports which files changed since
// the evidence was taken.
package snapshot

import (
	"errors"
	"io/fs"
	"time"

	"go.trai.ch/zerr"

	"go.trai.ch/stow/internal/cacheable"
	"go.trai.ch/stow/internal/core/domain"
	"go.trai.ch/stow/internal/core/ports"
)

// Scope is the storage scope holding one Strategy per path.
const Scope = "snapshot"

// Snapshot stores change evidence for files. Paths below a managed directory are tracked
// by the version of their package, every other path by the time it was recorded.
type Snapshot struct {
	opts    domain.SnapshotOptions
	storage ports.Storage
	fs      ports.FileSystem
	now     func() time.Time
}

// Option configures a Snapshot.
type Option func(*Snapshot)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Snapshot) {
		s.now = now
	}
}

// New creates a Snapshot persisting into storage.
func New(opts domain.SnapshotOptions, storage ports.Storage, fsys ports.FileSystem, options ...Option) *Snapshot {
	s := &Snapshot{
		opts:    opts,
		storage: storage,
		fs:      fsys,
		now:     time.Now,
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Add records fresh evidence for paths. Paths that do not exist or are immutable are skipped.
func (s *Snapshot) Add(paths []string) {
	now := s.now().UnixMilli()
	versions := newVersionResolver(s.fs)

	for _, path := range paths {
		if domain.MatchAny(s.opts.ImmutablePaths, path) {
			continue
		}
		if _, err := s.fs.Stat(path); err != nil {
			continue
		}

		if domain.MatchAny(s.opts.ManagedPaths, path) {
			if v, ok := versions.Version(path); ok {
				s.set(path, LibVersion(v))
			}
		}
		// Compile time is always recorded last and is the evidence that stays.
		s.set(path, CompileTime(now))
	}
}

func (s *Snapshot) set(path string, strategy Strategy) {
	data, err := cacheable.Encode(strategy, nil)
	if err != nil {
		return
	}
	s.storage.Set(Scope, path, data)
}

// Remove drops the evidence of paths.
func (s *Snapshot) Remove(paths []string) {
	for _, path := range paths {
		s.storage.Remove(Scope, path)
	}
}

// CalcModifiedPaths compares the stored evidence with the disk. A path that no longer
// exists is reported as deleted only; evidence that cannot be decoded counts as modified.
func (s *Snapshot) CalcModifiedPaths() (modified, deleted domain.Set[string], err error) {
	entries, err := s.storage.GetAll(Scope)
	if err != nil {
		return nil, nil, zerr.Wrap(err, "failed to read snapshot")
	}

	modified = domain.NewSet[string]()
	deleted = domain.NewSet[string]()
	versions := newVersionResolver(s.fs)

	for _, entry := range entries {
		path := entry.Key

		var strategy Strategy
		if err := cacheable.Decode(entry.Value, &strategy, nil); err != nil {
			modified.Add(path)
			continue
		}

		info, err := s.fs.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				deleted.Add(path)
			} else {
				modified.Add(path)
			}
			continue
		}

		switch strategy.Kind {
		case KindLibVersion:
			if v, ok := versions.Version(path); !ok || v != strategy.Version {
				modified.Add(path)
			}
		case KindCompileTime:
			if info.ModTime().UnixMilli() > strategy.Time {
				modified.Add(path)
			}
		}
	}
	return modified, deleted, nil
}
