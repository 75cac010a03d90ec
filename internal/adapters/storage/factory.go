package storage

import (
	stowfs "go.trai.ch/stow/internal/adapters/fs"
	"go.trai.ch/stow/internal/core/domain"
	"go.trai.ch/stow/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.StorageProvider = (*Factory)(nil)

// Factory opens the storage backend selected by the cache configuration.
type Factory struct {
	logger    ports.Logger
	telemetry ports.Telemetry
	walker    *stowfs.Walker
}

// NewFactory creates a Factory sharing the given collaborators with every storage it opens.
func NewFactory(logger ports.Logger, telemetry ports.Telemetry, walker *stowfs.Walker) *Factory {
	return &Factory{logger: logger, telemetry: telemetry, walker: walker}
}

// Open returns the backend named by opts.Storage.
func (f *Factory) Open(opts *domain.CacheOptions) (ports.Storage, error) {
	switch opts.Storage {
	case domain.StorageTypeFilesystem, "":
		return NewFsStorage(opts.CacheDir(), f.logger, f.telemetry, f.walker), nil
	case domain.StorageTypeMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownStorageType, "cannot open storage"), "storage", string(opts.Storage))
	}
}

// Usage reports the files and bytes below the cache directory. A memory backend occupies
// nothing on disk.
func (f *Factory) Usage(opts *domain.CacheOptions) (files int, bytes int64) {
	if opts.Storage == domain.StorageTypeMemory {
		return 0, 0
	}
	return f.walker.Usage(opts.CacheDir())
}
