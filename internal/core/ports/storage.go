package ports

import "go.trai.ch/stow/internal/core/domain"

// Storage is a scoped key/value store. Writes are visible to GetAll immediately;
// durability is only reached after Idle and is best-effort.
//
//go:generate go run go.uber.org/mock/mockgen -source=storage.go -destination=mocks/mock_storage.go -package=mocks
type Storage interface {
	// Set stores value under key in scope, replacing any previous value.
	Set(scope, key string, value []byte)

	// Remove deletes key from scope. Removing an absent key is a no-op.
	Remove(scope, key string)

	// GetAll returns every live entry of scope, sorted by key.
	GetAll(scope string) ([]domain.StorageEntry, error)

	// Idle signals a quiet point. Pending writes are flushed in the background and the
	// call returns without waiting for them.
	Idle()

	// Close waits for in-flight flushes to finish.
	Close() error
}

// StorageProvider opens the storage backend selected by the cache configuration.
type StorageProvider interface {
	// Open returns the storage described by opts.
	Open(opts *domain.CacheOptions) (Storage, error)

	// Usage reports the number of files and bytes the backend occupies on disk.
	Usage(opts *domain.CacheOptions) (files int, bytes int64)
}
