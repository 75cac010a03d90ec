package app

import (
	"context"
	"sync"

	"go.trai.ch/zerr"

	"go.trai.ch/stow/internal/core/domain"
	"go.trai.ch/stow/internal/core/ports"
	"go.trai.ch/stow/internal/engine/occasion"
	"go.trai.ch/stow/internal/engine/snapshot"
)

var (
	_ ports.Cache = (*PersistentCache)(nil)
	_ ports.Cache = DisabledCache{}
)

// PersistentCache keeps the module graph and file evidence in storage between runs.
type PersistentCache struct {
	storage  ports.Storage
	snapshot *snapshot.Snapshot
	occasion *occasion.MakeOccasion
	logger   ports.Logger

	recoverOnce sync.Once
}

// NewPersistentCache creates a PersistentCache on top of storage.
func NewPersistentCache(
	storage ports.Storage,
	snap *snapshot.Snapshot,
	occ *occasion.MakeOccasion,
	logger ports.Logger,
) *PersistentCache {
	return &PersistentCache{
		storage:  storage,
		snapshot: snap,
		occasion: occ,
		logger:   logger,
	}
}

// BeforeCompile marks the files that changed since the last run. A compilation that already
// knows its changed files, as in watch mode, is left alone.
func (c *PersistentCache) BeforeCompile(_ context.Context, comp *domain.Compilation) error {
	if comp.ModifiedFiles.Len() > 0 || comp.RemovedFiles.Len() > 0 {
		return nil
	}
	modified, deleted, err := c.snapshot.CalcModifiedPaths()
	if err != nil {
		return zerr.Wrap(err, "failed to compute modified files")
	}
	for path := range modified {
		comp.ModifiedFiles.Add(path)
	}
	for path := range deleted {
		comp.RemovedFiles.Add(path)
	}
	return nil
}

// AfterCompile refreshes the evidence of every file the compilation added, modified or
// dropped, then schedules a flush.
func (c *PersistentCache) AfterCompile(_ context.Context, comp *domain.Compilation) error {
	added := domain.NewSet[string]()
	removed := domain.NewSet[string]()
	for path := range comp.ModifiedFiles {
		added.Add(path)
	}
	for path := range comp.RemovedFiles {
		removed.Add(path)
	}
	if comp.Make != nil {
		for _, counter := range comp.Make.FileCounters() {
			for _, path := range counter.Added() {
				added.Add(path)
			}
			for _, path := range counter.Removed() {
				removed.Add(path)
			}
			counter.ResetIncremental()
		}
	}

	c.snapshot.Remove(domain.Sorted(removed))
	c.snapshot.Add(domain.Sorted(added))
	c.storage.Idle()
	return nil
}

// BeforeMake restores the module graph into an empty artifact. Only the first call of a
// process recovers; a failed recovery leaves the artifact empty.
func (c *PersistentCache) BeforeMake(ctx context.Context, artifact *domain.MakeArtifact) error {
	c.recoverOnce.Do(func() {
		if !artifact.IsEmpty() {
			return
		}
		recovered, err := c.occasion.Recovery(ctx)
		if err != nil {
			c.logger.Error(zerr.Wrap(err, "cache recovery failed, starting cold"))
			return
		}
		*artifact = *recovered
	})
	return nil
}

// AfterMake saves the module graph.
func (c *PersistentCache) AfterMake(ctx context.Context, artifact *domain.MakeArtifact) error {
	if err := c.occasion.Save(ctx, artifact); err != nil {
		return zerr.Wrap(err, "failed to save module graph")
	}
	return nil
}

// DisabledCache turns every hook into a no-op.
type DisabledCache struct{}

// BeforeCompile does nothing.
func (DisabledCache) BeforeCompile(context.Context, *domain.Compilation) error { return nil }

// AfterCompile does nothing.
func (DisabledCache) AfterCompile(context.Context, *domain.Compilation) error { return nil }

// BeforeMake does nothing.
func (DisabledCache) BeforeMake(context.Context, *domain.MakeArtifact) error { return nil }

// AfterMake does nothing.
func (DisabledCache) AfterMake(context.Context, *domain.MakeArtifact) error { return nil }
