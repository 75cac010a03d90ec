package snapshot_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"go.trai.ch/stow/internal/adapters/fs"
	"go.trai.ch/stow/internal/adapters/storage"
	"go.trai.ch/stow/internal/cacheable"
	"go.trai.ch/stow/internal/core/domain"
	"go.trai.ch/stow/internal/core/ports/mocks"
	"go.trai.ch/stow/internal/engine/snapshot"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func touch(t *testing.T, path string, at time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, at, at))
}

func managedOptions(t *testing.T) domain.SnapshotOptions {
	t.Helper()
	m, err := domain.ParsePathMatcher(domain.DefaultManagedPaths)
	require.NoError(t, err)
	return domain.SnapshotOptions{ManagedPaths: []domain.PathMatcher{m}}
}

func TestSnapshot_CompileTime(t *testing.T) {
	root := t.TempDir()
	recorded := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	untouched := filepath.Join(root, "src", "a.js")
	changed := filepath.Join(root, "src", "b.js")
	removed := filepath.Join(root, "src", "c.js")
	for _, p := range []string{untouched, changed, removed} {
		writeFile(t, p, "export {}")
		touch(t, p, recorded.Add(-time.Minute))
	}

	store := storage.NewMemoryStorage()
	snap := snapshot.New(domain.SnapshotOptions{}, store, fs.NewOS(), snapshot.WithClock(func() time.Time { return recorded }))
	snap.Add([]string{untouched, changed, removed})

	touch(t, changed, recorded.Add(time.Second))
	require.NoError(t, os.Remove(removed))

	modified, deleted, err := snap.CalcModifiedPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{changed}, domain.Sorted(modified))
	assert.Equal(t, []string{removed}, domain.Sorted(deleted))
}

func TestSnapshot_SameMillisecondIsUnchanged(t *testing.T) {
	root := t.TempDir()
	recorded := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	path := filepath.Join(root, "a.js")
	writeFile(t, path, "a")
	touch(t, path, recorded)

	snap := snapshot.New(domain.SnapshotOptions{}, storage.NewMemoryStorage(), fs.NewOS(), snapshot.WithClock(func() time.Time { return recorded }))
	snap.Add([]string{path})

	modified, deleted, err := snap.CalcModifiedPaths()
	require.NoError(t, err)
	assert.Zero(t, modified.Len())
	assert.Zero(t, deleted.Len())
}

func lodash(t *testing.T) (manifest, file string) {
	t.Helper()
	pkgDir := filepath.Join(t.TempDir(), "node_modules", "lodash")
	manifest = filepath.Join(pkgDir, "package.json")
	file = filepath.Join(pkgDir, "lib", "index.js")
	writeFile(t, manifest, `{"name":"lodash","version":"4.17.20"}`)
	writeFile(t, file, "module.exports = {}")
	return manifest, file
}

func encode(t *testing.T, s snapshot.Strategy) []byte {
	t.Helper()
	data, err := cacheable.Encode(s, nil)
	require.NoError(t, err)
	return data
}

func TestSnapshot_ManagedRecordsVersionThenTime(t *testing.T) {
	_, file := lodash(t)
	recorded := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	ctrl := gomock.NewController(t)
	store := mocks.NewMockStorage(ctrl)
	gomock.InOrder(
		store.EXPECT().Set(snapshot.Scope, file, encode(t, snapshot.LibVersion("4.17.20"))),
		store.EXPECT().Set(snapshot.Scope, file, encode(t, snapshot.CompileTime(recorded.UnixMilli()))),
	)

	snap := snapshot.New(managedOptions(t), store, fs.NewOS(), snapshot.WithClock(func() time.Time { return recorded }))
	snap.Add([]string{file})
}

func TestSnapshot_ManagedMtimeInvalidates(t *testing.T) {
	_, file := lodash(t)
	recorded := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	touch(t, file, recorded.Add(-time.Minute))

	store := storage.NewMemoryStorage()
	snap := snapshot.New(managedOptions(t), store, fs.NewOS(), snapshot.WithClock(func() time.Time { return recorded }))
	snap.Add([]string{file})

	entries, err := store.GetAll(snapshot.Scope)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	var strategy snapshot.Strategy
	require.NoError(t, cacheable.Decode(entries[0].Value, &strategy, nil))
	assert.Equal(t, snapshot.CompileTime(recorded.UnixMilli()), strategy)

	modified, _, err := snap.CalcModifiedPaths()
	require.NoError(t, err)
	assert.Zero(t, modified.Len())

	touch(t, file, recorded.Add(time.Hour))
	modified, _, err = snap.CalcModifiedPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{file}, domain.Sorted(modified))
}

func TestSnapshot_LibVersionEvidence(t *testing.T) {
	manifest, file := lodash(t)

	store := storage.NewMemoryStorage()
	store.Set(snapshot.Scope, file, encode(t, snapshot.LibVersion("4.17.20")))
	snap := snapshot.New(managedOptions(t), store, fs.NewOS())

	// mtime is not consulted for version evidence.
	touch(t, file, time.Now().Add(time.Hour))
	modified, _, err := snap.CalcModifiedPaths()
	require.NoError(t, err)
	assert.Zero(t, modified.Len())

	writeFile(t, manifest, `{"name":"lodash","version":"4.17.21"}`)
	modified, _, err = snap.CalcModifiedPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{file}, domain.Sorted(modified))
}

func TestSnapshot_ManagedWithoutVersion(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "node_modules", "nameless", "index.js")
	writeFile(t, filepath.Join(root, "node_modules", "nameless", "package.json"), `{"name":"nameless"}`)
	writeFile(t, file, "x")

	recorded := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := storage.NewMemoryStorage()
	snap := snapshot.New(managedOptions(t), store, fs.NewOS(), snapshot.WithClock(func() time.Time { return recorded }))
	snap.Add([]string{file})

	entries, err := store.GetAll(snapshot.Scope)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	var strategy snapshot.Strategy
	require.NoError(t, cacheable.Decode(entries[0].Value, &strategy, nil))
	assert.Equal(t, snapshot.CompileTime(recorded.UnixMilli()), strategy)
}

func TestSnapshot_SkipsImmutableAndMissing(t *testing.T) {
	root := t.TempDir()
	frozen := filepath.Join(root, "vendor", "frozen.js")
	writeFile(t, frozen, "x")

	store := storage.NewMemoryStorage()
	opts := domain.SnapshotOptions{
		ImmutablePaths: []domain.PathMatcher{domain.NewPrefixMatcher(filepath.Join(root, "vendor"))},
	}
	snap := snapshot.New(opts, store, fs.NewOS())
	snap.Add([]string{frozen, filepath.Join(root, "missing.js")})

	entries, err := store.GetAll(snapshot.Scope)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSnapshot_UndecodableEvidenceIsModified(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.js")
	writeFile(t, path, "a")

	store := storage.NewMemoryStorage()
	store.Set(snapshot.Scope, path, []byte("garbage"))

	snap := snapshot.New(domain.SnapshotOptions{}, store, fs.NewOS())
	modified, deleted, err := snap.CalcModifiedPaths()
	require.NoError(t, err)
	assert.True(t, modified.Has(path))
	assert.Zero(t, deleted.Len())
}

func TestSnapshot_Remove(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.js")
	writeFile(t, path, "a")

	store := storage.NewMemoryStorage()
	snap := snapshot.New(domain.SnapshotOptions{}, store, fs.NewOS())
	snap.Add([]string{path})
	snap.Remove([]string{path})

	entries, err := store.GetAll(snapshot.Scope)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStrategy_UnknownTagIsMalformed(t *testing.T) {
	data, err := cacheable.Encode(snapshot.CompileTime(1), nil)
	require.NoError(t, err)

	// header is magic plus version, the tag follows.
	data[len(cacheable.Magic)+1] = 9
	var strategy snapshot.Strategy
	err = cacheable.Decode(data, &strategy, nil)
	require.ErrorIs(t, err, cacheable.ErrMalformed)
}

func TestSnapshot_StatErrorIsModified(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.js")
	writeFile(t, path, "a")
	info, err := os.Stat(path)
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	fsys := mocks.NewMockFileSystem(ctrl)
	gomock.InOrder(
		fsys.EXPECT().Stat(path).Return(info, nil),
		fsys.EXPECT().Stat(path).Return(nil, errors.New("permission denied")),
	)

	now := info.ModTime().Add(time.Minute)
	snap := snapshot.New(domain.SnapshotOptions{}, storage.NewMemoryStorage(), fsys, snapshot.WithClock(func() time.Time { return now }))
	snap.Add([]string{path})

	modified, deleted, err := snap.CalcModifiedPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{path}, domain.Sorted(modified))
	assert.Zero(t, deleted.Len())
}
