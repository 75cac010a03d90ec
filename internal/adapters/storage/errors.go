package storage

import "go.trai.ch/zerr"

var (
	// ErrCorruptBucket is returned when a bucket file does not match the bucket layout.
	ErrCorruptBucket = zerr.New("corrupt bucket file")

	// ErrFlush is reported when pending writes could not be made durable.
	ErrFlush = zerr.New("failed to flush storage")
)
