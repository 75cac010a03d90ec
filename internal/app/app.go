// Package app implements the application layer for stow.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.trai.ch/zerr"

	"go.trai.ch/stow/internal/core/domain"
	"go.trai.ch/stow/internal/core/ports"
	"go.trai.ch/stow/internal/engine/occasion"
	"go.trai.ch/stow/internal/engine/snapshot"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	fs           ports.FileSystem
	telemetry    ports.Telemetry
	storages     ports.StorageProvider
	ids          *domain.IDAllocator
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	fsys ports.FileSystem,
	telemetry ports.Telemetry,
	storages ports.StorageProvider,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		fs:           fsys,
		telemetry:    telemetry,
		storages:     storages,
		ids:          domain.DefaultDependencyIDs,
	}
}

// WithIDAllocator replaces the process-wide dependency id allocator.
func (a *App) WithIDAllocator(ids *domain.IDAllocator) *App {
	a.ids = ids
	return a
}

// Session is an opened cache for one compiler context.
type Session struct {
	Options  *domain.CacheOptions
	Cache    ports.Cache
	Snapshot *snapshot.Snapshot
	Occasion *occasion.MakeOccasion
	storage  ports.Storage
}

// Close waits for pending flushes of the session's storage.
func (s *Session) Close() error {
	if s.storage == nil {
		return nil
	}
	return s.storage.Close()
}

type levelSetter interface {
	SetLevel(level domain.LogLevel)
}

// Open loads the configuration for cwd and builds the cache it selects.
func (a *App) Open(cwd string) (*Session, error) {
	opts, err := a.configLoader.Load(cwd)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	if l, ok := a.logger.(levelSetter); ok {
		l.SetLevel(opts.LogLevel)
	}
	return a.open(opts, a.ids)
}

func (a *App) open(opts *domain.CacheOptions, ids *domain.IDAllocator) (*Session, error) {
	session := &Session{Options: opts}
	switch opts.Type {
	case domain.CacheTypeDisabled:
		session.Cache = DisabledCache{}
		return session, nil
	case domain.CacheTypePersistent, "":
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownCacheType, "cannot open cache"), "type", string(opts.Type))
	}

	storage, err := a.storages.Open(opts)
	if err != nil {
		return nil, err
	}
	session.storage = storage
	session.Snapshot = snapshot.New(opts.Snapshot, storage, a.fs)
	session.Occasion = occasion.New(storage, &domain.CacheContext{Options: &opts.Compiler}, ids, a.logger, a.telemetry)
	session.Cache = NewPersistentCache(storage, session.Snapshot, session.Occasion, a.logger)
	return session, nil
}

// StatusReport describes the cache of a compiler context and the files changed since it
// was written.
type StatusReport struct {
	CacheDir string             `json:"cacheDir"`
	Type     domain.CacheType   `json:"type"`
	Storage  domain.StorageType `json:"storage"`
	Files    int                `json:"files"`
	Bytes    int64              `json:"bytes"`
	Modified []string           `json:"modified"`
	Deleted  []string           `json:"deleted"`
}

// Status reports the cache location, its size and the files changed since the last run.
func (a *App) Status(_ context.Context, cwd string) (*StatusReport, error) {
	session, err := a.Open(cwd)
	if err != nil {
		return nil, err
	}
	defer func() { _ = session.Close() }()

	opts := session.Options
	report := &StatusReport{
		CacheDir: opts.CacheDir(),
		Type:     opts.Type,
		Storage:  opts.Storage,
	}
	if session.Snapshot == nil {
		return report, nil
	}

	report.Files, report.Bytes = a.storages.Usage(opts)
	modified, deleted, err := session.Snapshot.CalcModifiedPaths()
	if err != nil {
		return nil, err
	}
	report.Modified = domain.Sorted(modified)
	report.Deleted = domain.Sorted(deleted)
	return report, nil
}

// ModuleSummary is the inspected state of one cached module.
type ModuleSummary struct {
	Identifier   string `json:"identifier"`
	Kind         string `json:"kind"`
	Issuer       string `json:"issuer,omitempty"`
	Depth        uint32 `json:"depth"`
	Dependencies int    `json:"dependencies"`
	Outgoing     int    `json:"outgoing"`
	Incoming     int    `json:"incoming"`
}

// InspectReport summarises the cached module graph.
type InspectReport struct {
	CacheDir           string              `json:"cacheDir"`
	Modules            []ModuleSummary     `json:"modules"`
	FailedDependencies int                 `json:"failedDependencies"`
	FailedModules      []string            `json:"failedModules"`
	TrackedFiles       int                 `json:"trackedFiles"`
	NextDependencyID   domain.DependencyID `json:"nextDependencyId"`
}

// Inspect recovers the cached module graph and summarises it. When module is set only that
// module is reported.
func (a *App) Inspect(ctx context.Context, cwd, module string) (*InspectReport, error) {
	opts, err := a.configLoader.Load(cwd)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	if opts.Type == domain.CacheTypeDisabled {
		return &InspectReport{CacheDir: opts.CacheDir()}, nil
	}

	// Inspecting must not consume ids of the process-wide allocator.
	session, err := a.open(opts, domain.NewIDAllocator(0))
	if err != nil {
		return nil, err
	}
	defer func() { _ = session.Close() }()

	artifact, err := session.Occasion.Recovery(ctx)
	if err != nil {
		return nil, err
	}

	report := &InspectReport{
		CacheDir:           opts.CacheDir(),
		FailedDependencies: artifact.FailedDependencies.Len(),
		TrackedFiles:       artifact.FileDependencies.Len(),
		NextDependencyID:   artifact.NextDependencyID,
	}
	for _, id := range artifact.FailedModules.SortedFunc(domain.ModuleIdentifier.Compare) {
		report.FailedModules = append(report.FailedModules, id.String())
	}

	graph := artifact.Graph
	ids := graph.ModuleIdentifiers()
	if module != "" {
		id := domain.NewInternedString(module)
		if _, ok := graph.Module(id); !ok {
			return nil, zerr.With(zerr.Wrap(domain.ErrModuleNotFound, "cannot inspect module"), "module", module)
		}
		ids = []domain.ModuleIdentifier{id}
	}
	for _, id := range ids {
		m, _ := graph.Module(id)
		summary := ModuleSummary{Identifier: id.String(), Kind: m.Kind()}
		if mgm, ok := graph.ModuleGraphModule(id); ok {
			summary.Issuer = mgm.Issuer.String()
			summary.Depth = mgm.Depth
			summary.Dependencies = len(mgm.AllDependencies)
			summary.Outgoing = mgm.OutgoingConnections.Len()
			summary.Incoming = mgm.IncomingConnections.Len()
		}
		report.Modules = append(report.Modules, summary)
	}
	return report, nil
}

// Clean removes the cache directory of the compiler context.
func (a *App) Clean(_ context.Context, cwd string) error {
	opts, err := a.configLoader.Load(cwd)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}
	if opts.Storage == domain.StorageTypeMemory {
		a.logger.Info("memory storage keeps nothing on disk")
		return nil
	}

	dir := opts.CacheDir()
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		a.logger.Info(fmt.Sprintf("no cache at %s", dir))
		return nil
	}
	a.logger.Info(fmt.Sprintf("removing %s...", dir))
	if err := os.RemoveAll(dir); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to remove cache directory"), "path", dir)
	}
	a.logger.Info(fmt.Sprintf("removed %s", dir))
	return nil
}
