// Package storage implements the scoped key/value storage backends of the cache.
package storage

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/zerr"

	stowfs "go.trai.ch/stow/internal/adapters/fs"
	"go.trai.ch/stow/internal/core/domain"
	"go.trai.ch/stow/internal/core/ports"
)

var _ ports.Storage = (*FsStorage)(nil)

// entry is a pending write. A nil value with removed set is a tombstone.
type entry struct {
	value   []byte
	removed bool
}

// batch holds pending writes grouped by scope, then key.
type batch struct {
	scopes map[string]map[string]entry
}

func newBatch() *batch {
	return &batch{scopes: make(map[string]map[string]entry)}
}

func (b *batch) put(scope, key string, e entry) {
	keys, ok := b.scopes[scope]
	if !ok {
		keys = make(map[string]entry)
		b.scopes[scope] = keys
	}
	keys[key] = e
}

func (b *batch) empty() bool {
	return len(b.scopes) == 0
}

// FsStorage buffers writes in memory and flushes them into hash-bucketed files below
// root when Idle is called.
type FsStorage struct {
	root      string
	logger    ports.Logger
	telemetry ports.Telemetry
	walker    *stowfs.Walker

	// mu guards buffer and inflight.
	mu       sync.Mutex
	buffer   *batch
	inflight []*batch

	// ioMu serialises flushes and keeps readers off half-written buckets.
	ioMu sync.RWMutex
	wg   sync.WaitGroup
}

// NewFsStorage creates a storage rooted at root. The directory is created lazily.
func NewFsStorage(root string, logger ports.Logger, telemetry ports.Telemetry, walker *stowfs.Walker) *FsStorage {
	return &FsStorage{
		root:      filepath.Clean(root),
		logger:    logger,
		telemetry: telemetry,
		walker:    walker,
		buffer:    newBatch(),
	}
}

// Root returns the directory holding the buckets.
func (s *FsStorage) Root() string {
	return s.root
}

// Set stores a copy of value under key in scope.
func (s *FsStorage) Set(scope, key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer.put(scope, key, entry{value: bytes.Clone(value)})
}

// Remove records a tombstone for key in scope.
func (s *FsStorage) Remove(scope, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer.put(scope, key, entry{removed: true})
}

// GetAll returns the live entries of scope: durable buckets overlaid with in-flight
// batches, then with the live buffer.
func (s *FsStorage) GetAll(scope string) ([]domain.StorageEntry, error) {
	s.ioMu.RLock()
	defer s.ioMu.RUnlock()

	values := s.readScope(scope)

	s.mu.Lock()
	for _, b := range s.inflight {
		overlay(values, b.scopes[scope])
	}
	overlay(values, s.buffer.scopes[scope])
	s.mu.Unlock()

	keys := slices.Sorted(maps.Keys(values))
	out := make([]domain.StorageEntry, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.StorageEntry{Key: k, Value: values[k]})
	}
	return out, nil
}

func overlay(values map[string][]byte, pending map[string]entry) {
	for k, e := range pending {
		if e.removed {
			delete(values, k)
			continue
		}
		values[k] = e.value
	}
}

// readScope loads every readable bucket of scope. Corrupt buckets are skipped.
func (s *FsStorage) readScope(scope string) map[string][]byte {
	values := make(map[string][]byte)
	for path := range s.walker.WalkFiles(filepath.Join(s.root, scope), nil) {
		entries, err := s.readBucket(path)
		if err != nil {
			s.logger.Warn("skipping unreadable cache bucket " + path + ": " + err.Error())
			continue
		}
		for _, e := range entries {
			values[e.Key] = e.Value
		}
	}
	return values
}

func (s *FsStorage) readBucket(path string) ([]domain.StorageEntry, error) {
	//nolint:gosec // Path is derived from the storage root
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read bucket"), "path", path)
	}
	entries, err := decodeBucket(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return entries, nil
}

// Idle hands the buffer to a background flush and returns immediately.
func (s *FsStorage) Idle() {
	s.mu.Lock()
	if s.buffer.empty() {
		s.mu.Unlock()
		return
	}
	s.inflight = append(s.inflight, s.buffer)
	s.buffer = newBatch()
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.flushPending()
	}()
}

// Close flushes the buffer and waits for every in-flight flush.
func (s *FsStorage) Close() error {
	s.Idle()
	s.wg.Wait()
	return nil
}

// flushPending writes every in-flight batch, oldest first, so a later write to the
// same key always wins on disk.
func (s *FsStorage) flushPending() {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()

	s.mu.Lock()
	pending := slices.Clone(s.inflight)
	s.mu.Unlock()
	if len(pending) == 0 {
		return
	}

	merged := newBatch()
	for _, b := range pending {
		for scope, keys := range b.scopes {
			for k, e := range keys {
				merged.put(scope, k, e)
			}
		}
	}

	_, vertex := s.telemetry.Record(context.Background(), "storage.flush")
	err := s.write(merged)
	if err != nil {
		s.logger.Error(err)
		vertex.Log(domain.LogLevelError, err.Error())
	}
	vertex.Complete(err)

	s.mu.Lock()
	s.inflight = s.inflight[len(pending):]
	s.mu.Unlock()
}

// write applies a batch bucket by bucket. A failing bucket does not stop the others.
func (s *FsStorage) write(b *batch) error {
	buckets := make(map[string]map[string]entry)
	for scope, keys := range b.scopes {
		for k, e := range keys {
			path := bucketPath(s.root, scope, k)
			if buckets[path] == nil {
				buckets[path] = make(map[string]entry)
			}
			buckets[path][k] = e
		}
	}

	var errs []error
	for _, path := range slices.Sorted(maps.Keys(buckets)) {
		if err := s.writeBucket(path, buckets[path]); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return zerr.With(zerr.Wrap(ErrFlush, errors.Join(errs...).Error()), "buckets", len(errs))
	}
	return nil
}

func (s *FsStorage) writeBucket(path string, changes map[string]entry) error {
	existing, err := s.readBucket(path)
	if err != nil {
		// A corrupt bucket is rewritten from the pending changes alone.
		s.logger.Warn("rewriting unreadable cache bucket " + path)
		existing = nil
	}

	values := make(map[string][]byte, len(existing)+len(changes))
	for _, e := range existing {
		values[e.Key] = e.Value
	}
	overlay(values, changes)

	if len(values) == 0 {
		return s.removeBucket(path)
	}

	entries := make([]domain.StorageEntry, 0, len(values))
	for k, v := range values {
		entries = append(entries, domain.StorageEntry{Key: k, Value: v})
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create bucket directory"), "path", path)
	}
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	//nolint:gosec // Path is derived from the storage root
	if err := os.WriteFile(tmp, encodeBucket(entries), 0o644); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write bucket"), "path", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to replace bucket"), "path", path)
	}
	return nil
}

// removeBucket deletes an emptied bucket and prunes the directories it leaves empty,
// stopping at the storage root.
func (s *FsStorage) removeBucket(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, "failed to remove bucket"), "path", path)
	}
	for dir := filepath.Dir(path); dir != s.root && strings.HasPrefix(dir, s.root); dir = filepath.Dir(dir) {
		if err := os.Remove(dir); err != nil {
			// Not empty, or already gone.
			break
		}
	}
	return nil
}
