package app_test

import (
	"context"
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
	"go.trai.ch/stow/internal/adapters/telemetry"
	"go.trai.ch/stow/internal/app"
	"go.trai.ch/stow/internal/core/domain"
	"go.trai.ch/stow/internal/core/ports"
	"go.trai.ch/stow/internal/core/ports/mocks"
)

type fixture struct {
	dir      string
	opts     *domain.CacheOptions
	store    *storage.MemoryStorage
	loader   *mocks.MockConfigLoader
	logger   *mocks.MockLogger
	storages *mocks.MockStorageProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	dir := t.TempDir()
	f := &fixture{
		dir:      dir,
		opts:     domain.DefaultCacheOptions(dir),
		store:    storage.NewMemoryStorage(),
		loader:   mocks.NewMockConfigLoader(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
		storages: mocks.NewMockStorageProvider(ctrl),
	}
	f.loader.EXPECT().Load(dir).Return(f.opts, nil).AnyTimes()
	f.storages.EXPECT().Open(f.opts).Return(f.store, nil).AnyTimes()
	f.logger.EXPECT().Info(gomock.Any()).AnyTimes()
	f.logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	return f
}

func (f *fixture) app() *app.App {
	return app.New(f.loader, f.logger, fs.NewOS(), telemetry.NewNoOp(), f.storages).
		WithIDAllocator(domain.NewIDAllocator(0))
}

func (f *fixture) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

var (
	modA = domain.NewInternedString("./a.js")
	modB = domain.NewInternedString("./b.js")
)

// build simulates a make pass producing a -> b.
func build(artifact *domain.MakeArtifact, files ...string) {
	g := artifact.Graph
	g.AddModule(&domain.RawModule{ID: modA, Source: "require('./b.js')"})
	g.AddModule(&domain.RawModule{ID: modB, Source: "module.exports = 1"})
	mgmA := domain.NewModuleGraphModule(modA, domain.InternedString{}, 0)
	mgmA.AllDependencies = []domain.DependencyID{1}
	g.AddModuleGraphModule(mgmA)
	g.AddModuleGraphModule(domain.NewModuleGraphModule(modB, modA, 1))
	g.AddDependency(&domain.RequireDependency{ModuleDependency: domain.ModuleDependency{DepID: 1, UserRequest: "./b.js"}})
	g.SetParents(1, domain.DependencyParents{Module: modA})
	g.Connect(1, modA, modB)

	artifact.BuiltModules = domain.NewSet(modA, modB)
	artifact.FileDependencies.Add(files...)
	artifact.NextDependencyID = 2
}

// compile runs one compilation through every hook.
func compile(t *testing.T, cache ports.Cache, makeFn func(*domain.MakeArtifact)) *domain.Compilation {
	t.Helper()
	ctx := context.Background()
	comp := domain.NewCompilation()
	require.NoError(t, cache.BeforeCompile(ctx, comp))
	require.NoError(t, cache.BeforeMake(ctx, comp.Make))
	if makeFn != nil {
		makeFn(comp.Make)
	}
	require.NoError(t, cache.AfterMake(ctx, comp.Make))
	require.NoError(t, cache.AfterCompile(ctx, comp))
	return comp
}

func TestPersistentCache_WarmStart(t *testing.T) {
	f := newFixture(t)
	src := f.writeFile(t, "a.js", "require('./b.js')")

	first, err := f.app().Open(f.dir)
	require.NoError(t, err)
	comp := compile(t, first.Cache, func(a *domain.MakeArtifact) { build(a, src) })
	assert.Zero(t, comp.ModifiedFiles.Len())
	require.NoError(t, first.Close())

	second, err := f.app().Open(f.dir)
	require.NoError(t, err)
	ctx := context.Background()
	comp = domain.NewCompilation()
	require.NoError(t, second.Cache.BeforeCompile(ctx, comp))
	assert.Zero(t, comp.ModifiedFiles.Len())
	assert.Zero(t, comp.RemovedFiles.Len())

	require.NoError(t, second.Cache.BeforeMake(ctx, comp.Make))
	assert.Equal(t, []domain.ModuleIdentifier{modA, modB}, comp.Make.Graph.ModuleIdentifiers())
	conn, ok := comp.Make.Graph.Connection(1)
	require.True(t, ok)
	assert.Equal(t, modB, conn.Module)
	assert.Equal(t, domain.DependencyID(2), comp.Make.NextDependencyID)

	// recovery happens once per process
	fresh := domain.NewMakeArtifact()
	require.NoError(t, second.Cache.BeforeMake(ctx, fresh))
	assert.True(t, fresh.IsEmpty())
}

func TestPersistentCache_DetectsChanges(t *testing.T) {
	f := newFixture(t)
	kept := f.writeFile(t, "a.js", "a")
	changed := f.writeFile(t, "b.js", "b")
	removed := f.writeFile(t, "c.js", "c")

	session, err := f.app().Open(f.dir)
	require.NoError(t, err)
	compile(t, session.Cache, func(a *domain.MakeArtifact) { build(a, kept, changed, removed) })

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(changed, future, future))
	require.NoError(t, os.Remove(removed))

	comp := domain.NewCompilation()
	require.NoError(t, session.Cache.BeforeCompile(context.Background(), comp))
	assert.Equal(t, []string{changed}, domain.Sorted(comp.ModifiedFiles))
	assert.Equal(t, []string{removed}, domain.Sorted(comp.RemovedFiles))
}

func TestPersistentCache_BeforeCompileKeepsKnownChanges(t *testing.T) {
	f := newFixture(t)
	path := f.writeFile(t, "a.js", "a")

	session, err := f.app().Open(f.dir)
	require.NoError(t, err)
	compile(t, session.Cache, func(a *domain.MakeArtifact) { build(a, path) })
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	comp := domain.NewCompilation()
	comp.ModifiedFiles.Add("/watch/reported.js")
	require.NoError(t, session.Cache.BeforeCompile(context.Background(), comp))
	assert.Equal(t, []string{"/watch/reported.js"}, domain.Sorted(comp.ModifiedFiles))
}

func TestPersistentCache_AfterCompileDropsRemovedFiles(t *testing.T) {
	f := newFixture(t)
	path := f.writeFile(t, "a.js", "a")

	session, err := f.app().Open(f.dir)
	require.NoError(t, err)
	comp := compile(t, session.Cache, func(a *domain.MakeArtifact) { build(a, path) })

	comp.Make.FileDependencies.Remove(path)
	require.NoError(t, session.Cache.AfterCompile(context.Background(), comp))
	require.NoError(t, os.Remove(path))

	next := domain.NewCompilation()
	require.NoError(t, session.Cache.BeforeCompile(context.Background(), next))
	assert.Zero(t, next.RemovedFiles.Len())
}

func TestPersistentCache_RecoveryFailureStartsCold(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStorage(ctrl)
	logger := mocks.NewMockLogger(ctrl)
	loader := mocks.NewMockConfigLoader(ctrl)
	storages := mocks.NewMockStorageProvider(ctrl)

	opts := domain.DefaultCacheOptions(t.TempDir())
	loader.EXPECT().Load(gomock.Any()).Return(opts, nil)
	storages.EXPECT().Open(opts).Return(store, nil)
	store.EXPECT().GetAll(gomock.Any()).Return(nil, errors.New("disk on fire"))
	logger.EXPECT().Error(gomock.Any())

	a := app.New(loader, logger, fs.NewOS(), telemetry.NewNoOp(), storages).WithIDAllocator(domain.NewIDAllocator(0))
	session, err := a.Open("/repo")
	require.NoError(t, err)

	artifact := domain.NewMakeArtifact()
	require.NoError(t, session.Cache.BeforeMake(context.Background(), artifact))
	assert.True(t, artifact.IsEmpty())
}

func TestOpen_DisabledCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := mocks.NewMockConfigLoader(ctrl)
	storages := mocks.NewMockStorageProvider(ctrl)

	opts := domain.DefaultCacheOptions(t.TempDir())
	opts.Type = domain.CacheTypeDisabled
	loader.EXPECT().Load(gomock.Any()).Return(opts, nil)

	a := app.New(loader, mocks.NewMockLogger(ctrl), fs.NewOS(), telemetry.NewNoOp(), storages)
	session, err := a.Open("/repo")
	require.NoError(t, err)
	assert.Equal(t, app.DisabledCache{}, session.Cache)
	assert.Nil(t, session.Snapshot)
	require.NoError(t, session.Close())

	// every hook is a no-op
	compile(t, session.Cache, func(a *domain.MakeArtifact) { build(a) })
}

func TestOpen_Errors(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		loader := mocks.NewMockConfigLoader(ctrl)
		loader.EXPECT().Load("/repo").Return(nil, errors.New("broken yaml"))

		a := app.New(loader, mocks.NewMockLogger(ctrl), fs.NewOS(), telemetry.NewNoOp(), mocks.NewMockStorageProvider(ctrl))
		_, err := a.Open("/repo")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load configuration")
	})

	t.Run("cache type", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		loader := mocks.NewMockConfigLoader(ctrl)
		opts := domain.DefaultCacheOptions("/repo")
		opts.Type = "remote"
		loader.EXPECT().Load("/repo").Return(opts, nil)

		a := app.New(loader, mocks.NewMockLogger(ctrl), fs.NewOS(), telemetry.NewNoOp(), mocks.NewMockStorageProvider(ctrl))
		_, err := a.Open("/repo")
		assert.ErrorIs(t, err, domain.ErrUnknownCacheType)
	})
}

func TestApp_Status(t *testing.T) {
	f := newFixture(t)
	f.storages.EXPECT().Usage(f.opts).Return(4, int64(512)).AnyTimes()
	kept := f.writeFile(t, "a.js", "a")
	changed := f.writeFile(t, "b.js", "b")

	session, err := f.app().Open(f.dir)
	require.NoError(t, err)
	compile(t, session.Cache, func(a *domain.MakeArtifact) { build(a, kept, changed) })
	require.NoError(t, session.Close())

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(changed, future, future))

	report, err := f.app().Status(context.Background(), f.dir)
	require.NoError(t, err)
	assert.Equal(t, f.opts.CacheDir(), report.CacheDir)
	assert.Equal(t, domain.CacheTypePersistent, report.Type)
	assert.Equal(t, 4, report.Files)
	assert.Equal(t, int64(512), report.Bytes)
	assert.Equal(t, []string{changed}, report.Modified)
	assert.Empty(t, report.Deleted)
}

func TestApp_Inspect(t *testing.T) {
	f := newFixture(t)
	session, err := f.app().Open(f.dir)
	require.NoError(t, err)
	compile(t, session.Cache, func(a *domain.MakeArtifact) {
		build(a, f.writeFile(t, "a.js", "a"))
		a.FailedModules.Add(domain.NewInternedString("./broken.js"))
	})

	report, err := f.app().Inspect(context.Background(), f.dir, "")
	require.NoError(t, err)
	assert.Equal(t, []app.ModuleSummary{
		{Identifier: "./a.js", Kind: domain.ModuleKindRaw, Depth: 0, Dependencies: 1, Outgoing: 1},
		{Identifier: "./b.js", Kind: domain.ModuleKindRaw, Issuer: "./a.js", Depth: 1, Incoming: 1},
	}, report.Modules)
	assert.Equal(t, []string{"./broken.js"}, report.FailedModules)
	assert.Equal(t, 1, report.TrackedFiles)
	assert.Equal(t, domain.DependencyID(2), report.NextDependencyID)

	report, err = f.app().Inspect(context.Background(), f.dir, "./b.js")
	require.NoError(t, err)
	require.Len(t, report.Modules, 1)
	assert.Equal(t, "./b.js", report.Modules[0].Identifier)

	_, err = f.app().Inspect(context.Background(), f.dir, "./missing.js")
	assert.ErrorIs(t, err, domain.ErrModuleNotFound)
}

func TestApp_Clean(t *testing.T) {
	f := newFixture(t)
	cacheDir := f.opts.CacheDir()
	require.NoError(t, os.MkdirAll(filepath.Join(cacheDir, "make", "ab"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "make", "ab", "cdef"), []byte("1 1\nab"), 0o600))

	require.NoError(t, f.app().Clean(context.Background(), f.dir))
	_, err := os.Stat(cacheDir)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// cleaning twice is fine
	require.NoError(t, f.app().Clean(context.Background(), f.dir))
}
