package storage

import (
	"context"

	"github.com/grindlemire/graft"

	stowfs "go.trai.ch/stow/internal/adapters/fs"
	"go.trai.ch/stow/internal/adapters/logger"
	"go.trai.ch/stow/internal/adapters/telemetry/progrock"
	"go.trai.ch/stow/internal/core/ports"
)

// NodeID is the unique identifier for the storage factory Graft node.
const NodeID graft.ID = "adapter.storage"

func init() {
	graft.Register(graft.Node[ports.StorageProvider]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID, progrock.NodeID, stowfs.WalkerNodeID},
		Run: func(ctx context.Context) (ports.StorageProvider, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			tel, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}
			walker, err := graft.Dep[*stowfs.Walker](ctx)
			if err != nil {
				return nil, err
			}
			return NewFactory(log, tel, walker), nil
		},
	})
}
