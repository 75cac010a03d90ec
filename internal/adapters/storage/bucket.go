package storage

import (
	"bytes"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"

	"go.trai.ch/stow/internal/core/domain"
)

// bucketPath returns the file holding key inside scope:
// <root>/<scope>/<hash[0:2]>/<hash[2:]>.
func bucketPath(root, scope, key string) string {
	sum := fmt.Sprintf("%016x", xxhash.Sum64String(key))
	return filepath.Join(root, scope, sum[:2], sum[2:])
}

// encodeBucket writes entries as a header line of space separated key and value lengths
// followed by the raw key and value bytes in the same order.
func encodeBucket(entries []domain.StorageEntry) []byte {
	slices.SortFunc(entries, func(a, b domain.StorageEntry) int {
		return strings.Compare(a.Key, b.Key)
	})

	var header []string
	size := 0
	for _, e := range entries {
		header = append(header, strconv.Itoa(len(e.Key)), strconv.Itoa(len(e.Value)))
		size += len(e.Key) + len(e.Value)
	}

	var buf bytes.Buffer
	buf.Grow(size + 8*len(header))
	buf.WriteString(strings.Join(header, " "))
	buf.WriteByte('\n')
	for _, e := range entries {
		buf.WriteString(e.Key)
		buf.Write(e.Value)
	}
	return buf.Bytes()
}

// decodeBucket parses a bucket file. Any inconsistency makes the whole bucket corrupt.
func decodeBucket(data []byte) ([]domain.StorageEntry, error) {
	nl := bytes.IndexByte(data, '\n')
	if nl < 0 {
		return nil, zerr.Wrap(ErrCorruptBucket, "missing header")
	}
	fields := strings.Fields(string(data[:nl]))
	if len(fields) == 0 || len(fields)%2 != 0 {
		return nil, zerr.With(zerr.Wrap(ErrCorruptBucket, "odd header"), "fields", len(fields))
	}

	body := data[nl+1:]
	entries := make([]domain.StorageEntry, 0, len(fields)/2)
	off := 0
	for i := 0; i < len(fields); i += 2 {
		keyLen, err := strconv.Atoi(fields[i])
		if err != nil || keyLen < 0 {
			return nil, zerr.With(zerr.Wrap(ErrCorruptBucket, "invalid key length"), "field", fields[i])
		}
		valueLen, err := strconv.Atoi(fields[i+1])
		if err != nil || valueLen < 0 {
			return nil, zerr.With(zerr.Wrap(ErrCorruptBucket, "invalid value length"), "field", fields[i+1])
		}
		if off+keyLen+valueLen > len(body) {
			return nil, zerr.Wrap(ErrCorruptBucket, "entry exceeds bucket")
		}
		key := string(body[off : off+keyLen])
		off += keyLen
		value := bytes.Clone(body[off : off+valueLen])
		off += valueLen
		entries = append(entries, domain.StorageEntry{Key: key, Value: value})
	}
	if off != len(body) {
		return nil, zerr.With(zerr.Wrap(ErrCorruptBucket, "trailing bytes"), "remaining", len(body)-off)
	}
	return entries, nil
}
