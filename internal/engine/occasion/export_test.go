package occasion

import (
	"go.trai.ch/stow/internal/cacheable"
	"go.trai.ch/stow/internal/core/domain"
)

// EncodeNodeView encodes the Node of id the same way Save does.
// This is exported for testing purposes only.
func EncodeNodeView(graph *domain.ModuleGraph, id domain.ModuleIdentifier, ctx any) ([]byte, error) {
	return cacheable.Encode(nodeView{graph: graph, id: id}, ctx)
}

// EncodeMetaView encodes the Meta of artifact the same way Save does.
// This is exported for testing purposes only.
func EncodeMetaView(artifact *domain.MakeArtifact, next domain.DependencyID, ctx any) ([]byte, error) {
	return cacheable.Encode(metaView{artifact: artifact, next: next}, ctx)
}
