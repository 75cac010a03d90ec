package storage

import (
	"bytes"
	"maps"
	"slices"
	"sync"

	"go.trai.ch/stow/internal/core/domain"
	"go.trai.ch/stow/internal/core/ports"
)

var _ ports.Storage = (*MemoryStorage)(nil)

// MemoryStorage keeps every scope in process memory. Nothing survives the process.
type MemoryStorage struct {
	mu     sync.RWMutex
	scopes map[string]map[string][]byte
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{scopes: make(map[string]map[string][]byte)}
}

// Set stores a copy of value under key in scope.
func (s *MemoryStorage) Set(scope, key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys, ok := s.scopes[scope]
	if !ok {
		keys = make(map[string][]byte)
		s.scopes[scope] = keys
	}
	keys[key] = bytes.Clone(value)
}

// Remove deletes key from scope.
func (s *MemoryStorage) Remove(scope, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scopes[scope], key)
}

// GetAll returns the entries of scope sorted by key.
func (s *MemoryStorage) GetAll(scope string) ([]domain.StorageEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.scopes[scope]
	out := make([]domain.StorageEntry, 0, len(keys))
	for _, k := range slices.Sorted(maps.Keys(keys)) {
		out = append(out, domain.StorageEntry{Key: k, Value: keys[k]})
	}
	return out, nil
}

// Idle does nothing; memory is already the final destination.
func (s *MemoryStorage) Idle() {}

// Close does nothing.
func (s *MemoryStorage) Close() error { return nil }
