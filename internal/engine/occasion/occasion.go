// Package occasion persists the module graph of the make phase and restores it on the next run.
package occasion

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync/atomic"

	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"

	"go.trai.ch/stow/internal/cacheable"
	"go.trai.ch/stow/internal/core/domain"
	"go.trai.ch/stow/internal/core/ports"
)

const (
	// NodeScope holds one Node per module, keyed by module identifier.
	NodeScope = "make"
	// MetaScope holds the single Meta record under MetaKey.
	MetaScope = "make_meta"
	// MetaKey is the key of the Meta record.
	MetaKey = "default"
)

// MakeOccasion saves and recovers make artifacts.
type MakeOccasion struct {
	storage   ports.Storage
	ctx       *domain.CacheContext
	ids       *domain.IDAllocator
	logger    ports.Logger
	telemetry ports.Telemetry
}

// New creates a MakeOccasion. cacheCtx is handed to every encode and decode call and ids is
// re-seeded on recovery so fresh dependency ids never collide with recovered ones.
func New(
	storage ports.Storage,
	cacheCtx *domain.CacheContext,
	ids *domain.IDAllocator,
	logger ports.Logger,
	telemetry ports.Telemetry,
) *MakeOccasion {
	return &MakeOccasion{
		storage:   storage,
		ctx:       cacheCtx,
		ids:       ids,
		logger:    logger,
		telemetry: telemetry,
	}
}

// Save writes a Node for every module built in the last pass and the Meta of artifact.
// Modules that fail to encode are skipped. Save may be called concurrently.
func (o *MakeOccasion) Save(ctx context.Context, artifact *domain.MakeArtifact) (err error) {
	ctx, vertex := o.telemetry.Record(ctx, "cache.save")
	defer func() { vertex.Complete(err) }()

	built := artifact.BuiltModules.SortedFunc(domain.ModuleIdentifier.Compare)
	highest := make([]domain.DependencyID, len(built))
	var saved atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, id := range built {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			data, err := cacheable.Encode(nodeView{graph: artifact.Graph, id: id}, o.ctx)
			if err != nil {
				vertex.Log(domain.LogLevelWarn, fmt.Sprintf("skip %s: %v", id, err))
				return nil
			}
			o.storage.Set(NodeScope, id.String(), data)
			highest[i] = maxDependencyID(artifact.Graph, id)
			saved.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return zerr.Wrap(err, "make save interrupted")
	}

	for id := range artifact.RemovedModules {
		if !artifact.BuiltModules.Has(id) {
			o.storage.Remove(NodeScope, id.String())
		}
	}

	next := max(o.ids.Peek(), artifact.NextDependencyID)
	if len(highest) > 0 {
		next = max(next, slices.Max(highest)+1)
	}
	data, err := cacheable.Encode(metaView{artifact: artifact, next: next}, o.ctx)
	if err != nil {
		return zerr.Wrap(err, "failed to encode make meta")
	}
	o.storage.Set(MetaScope, MetaKey, data)

	o.logger.Info(fmt.Sprintf("make save %d/%d", saved.Load(), len(built)))
	return nil
}

// connectionRef is a recovered edge awaiting the integrity pass.
type connectionRef struct {
	dependency domain.DependencyID
	target     domain.ModuleIdentifier
}

// Recovery rebuilds the make artifact from storage. An unreadable Meta yields an empty
// artifact and drops every stored Node; without any Meta the Nodes are still recovered.
// Unreadable Nodes are treated as modules that were never built. Connections to modules
// that could not be recovered are revoked and their dependencies marked as failed.
// Recovery must not run concurrently with Save.
func (o *MakeOccasion) Recovery(ctx context.Context) (artifact *domain.MakeArtifact, err error) {
	_, vertex := o.telemetry.Record(ctx, "cache.recovery")
	defer func() { vertex.Complete(err) }()

	artifact = domain.NewMakeArtifact()

	meta, state, err := o.readMeta()
	if err != nil {
		return nil, err
	}

	entries, err := o.storage.GetAll(NodeScope)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read make nodes")
	}

	switch state {
	case metaUnreadable:
		// Stored Nodes may reference ids above any counter saved from now on.
		for _, entry := range entries {
			o.storage.Remove(NodeScope, entry.Key)
		}
		artifact.NextDependencyID = o.ids.Peek()
		return artifact, nil
	case metaFound:
		meta.apply(artifact)
		o.ids.Advance(meta.NextDependencyID)
	case metaMissing:
		// Nodes alone still seed the counter below.
	}

	graph := artifact.Graph
	var pending []connectionRef
	var highest domain.DependencyID
	recovered := 0
	for _, entry := range entries {
		var node Node
		if err := cacheable.Decode(entry.Value, &node, o.ctx); err != nil {
			vertex.Log(domain.LogLevelWarn, fmt.Sprintf("skip %s: %v", entry.Key, err))
			continue
		}
		id := node.MGM.ModuleIdentifier
		if id.String() != entry.Key || node.Module.Identifier() != id {
			vertex.Log(domain.LogLevelWarn, fmt.Sprintf("skip %s: identifier mismatch", entry.Key))
			continue
		}

		for _, nd := range node.Dependencies {
			graph.AddDependency(nd.Dependency)
			graph.SetParents(nd.Dependency.ID(), domain.DependencyParents{Module: id, Block: nd.Block})
			highest = max(highest, nd.Dependency.ID())
		}
		for _, conn := range node.Connections {
			graph.CacheRecoveryConnection(conn)
			pending = append(pending, connectionRef{dependency: conn.DependencyID, target: conn.Module})
			highest = max(highest, conn.DependencyID)
		}
		for _, b := range node.Blocks {
			graph.AddBlock(b)
		}
		node.MGM.ExportsInfo = graph.CreateExportsInfo()
		graph.AddModuleGraphModule(node.MGM)
		graph.AddModule(node.Module)
		recovered++
	}

	for _, ref := range pending {
		if _, ok := graph.Module(ref.target); !ok {
			if failed, ok := graph.RevokeConnection(ref.dependency); ok {
				artifact.FailedDependencies.Add(failed)
			}
			continue
		}
		graph.AddIncomingConnection(ref.target, ref.dependency)
	}

	if recovered > 0 {
		o.ids.Advance(highest + 1)
	}
	artifact.NextDependencyID = o.ids.Peek()

	o.logger.Info(fmt.Sprintf("make recovery %d/%d", recovered, len(entries)))
	return artifact, nil
}

type metaState int

const (
	metaMissing metaState = iota
	metaFound
	metaUnreadable
)

// readMeta returns the stored Meta and whether it was found and decoded.
func (o *MakeOccasion) readMeta() (*Meta, metaState, error) {
	entries, err := o.storage.GetAll(MetaScope)
	if err != nil {
		return nil, metaMissing, zerr.Wrap(err, "failed to read make meta")
	}
	for _, entry := range entries {
		if entry.Key != MetaKey {
			continue
		}
		meta := &Meta{}
		if err := cacheable.Decode(entry.Value, meta, o.ctx); err != nil {
			o.logger.Warn(fmt.Sprintf("make meta unreadable, starting cold: %v", err))
			return nil, metaUnreadable, nil
		}
		return meta, metaFound, nil
	}
	return nil, metaMissing, nil
}
