package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidPathMatcher is returned when a configured path pattern cannot be compiled.
	ErrInvalidPathMatcher = zerr.New("invalid path matcher")

	// ErrUnknownCacheType is returned when the configuration names an unsupported cache type.
	ErrUnknownCacheType = zerr.New("unknown cache type")

	// ErrUnknownStorageType is returned when the configuration names an unsupported storage backend.
	ErrUnknownStorageType = zerr.New("unknown storage type")

	// ErrModuleNotFound is returned when a module identifier is not part of the graph.
	ErrModuleNotFound = zerr.New("module not found")
)
