package occasion

import (
	"go.trai.ch/zerr"

	"go.trai.ch/stow/internal/cacheable"
	"go.trai.ch/stow/internal/core/domain"
)

// NodeDependency is a dependency declared by a module, optionally inside one of its blocks.
type NodeDependency struct {
	Dependency domain.Dependency
	// Block is zero when the dependency belongs to the module itself.
	Block domain.BlockID
}

// Node is the persisted fragment of one module. Nodes never refer to each other, so any
// subset of them can be recovered.
type Node struct {
	MGM          *domain.ModuleGraphModule
	Module       domain.Module
	Dependencies []NodeDependency
	Connections  []*domain.ModuleGraphConnection
	Blocks       []*domain.AsyncDependenciesBlock
}

// UnmarshalCache implements cacheable.Unmarshaler.
func (n *Node) UnmarshalCache(d *cacheable.Decoder) error {
	n.MGM = &domain.ModuleGraphModule{}
	if err := n.MGM.UnmarshalCache(d); err != nil {
		return err
	}

	var err error
	if n.Module, err = domain.Modules.DecodeDyn(d); err != nil {
		return err
	}
	if n.Dependencies, err = cacheable.DecodeSlice(d, readNodeDependency); err != nil {
		return err
	}
	if n.Connections, err = cacheable.DecodeSlice(d, func(d *cacheable.Decoder) (*domain.ModuleGraphConnection, error) {
		c := &domain.ModuleGraphConnection{}
		return c, c.UnmarshalCache(d)
	}); err != nil {
		return err
	}
	n.Blocks, err = cacheable.DecodeSlice(d, func(d *cacheable.Decoder) (*domain.AsyncDependenciesBlock, error) {
		b := &domain.AsyncDependenciesBlock{}
		return b, b.UnmarshalCache(d)
	})
	return err
}

// nodeView encodes the Node of one module straight out of the graph, without copying.
// Its layout must stay identical to Node.
type nodeView struct {
	graph *domain.ModuleGraph
	id    domain.ModuleIdentifier
}

// MarshalCache implements cacheable.Marshaler.
func (v nodeView) MarshalCache(e *cacheable.Encoder) error {
	mgm, ok := v.graph.ModuleGraphModule(v.id)
	if !ok {
		return v.missing("module graph module")
	}
	module, ok := v.graph.Module(v.id)
	if !ok {
		return v.missing("module")
	}
	blocks, err := v.blocks(module)
	if err != nil {
		return err
	}

	if err := mgm.MarshalCache(e); err != nil {
		return err
	}
	if err := domain.Modules.EncodeDyn(e, module); err != nil {
		return err
	}
	if err := cacheable.EncodeSlice(e, mgm.AllDependencies, v.writeDependency); err != nil {
		return err
	}
	if err := cacheable.EncodeSlice(e, v.graph.Connections(v.id), func(e *cacheable.Encoder, c *domain.ModuleGraphConnection) error {
		return c.MarshalCache(e)
	}); err != nil {
		return err
	}
	return cacheable.EncodeSlice(e, blocks, func(e *cacheable.Encoder, b *domain.AsyncDependenciesBlock) error {
		return b.MarshalCache(e)
	})
}

func (v nodeView) writeDependency(e *cacheable.Encoder, id domain.DependencyID) error {
	dep, ok := v.graph.Dependency(id)
	if !ok {
		return zerr.With(v.missing("dependency"), "dependency", uint32(id))
	}
	parents, _ := v.graph.Parents(id)
	return writeNodeDependency(e, NodeDependency{Dependency: dep, Block: parents.Block})
}

// blocks collects the blocks of module depth first, nested blocks after their parent.
func (v nodeView) blocks(module domain.Module) ([]*domain.AsyncDependenciesBlock, error) {
	var out []*domain.AsyncDependenciesBlock
	var visit func(ids []domain.BlockID) error
	visit = func(ids []domain.BlockID) error {
		for _, id := range ids {
			b, ok := v.graph.Block(id)
			if !ok {
				return zerr.With(v.missing("block"), "block", id.String())
			}
			out = append(out, b)
			if err := visit(b.Blocks); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(module.Blocks()); err != nil {
		return nil, err
	}
	return out, nil
}

func (v nodeView) missing(part string) error {
	return zerr.With(zerr.Wrap(cacheable.ErrEncode, part+" not in graph"), "module", v.id.String())
}

func writeNodeDependency(e *cacheable.Encoder, nd NodeDependency) error {
	if err := domain.Dependencies.EncodeDyn(e, nd.Dependency); err != nil {
		return err
	}
	return nd.Block.MarshalCache(e)
}

func readNodeDependency(d *cacheable.Decoder) (NodeDependency, error) {
	var nd NodeDependency
	var err error
	if nd.Dependency, err = domain.Dependencies.DecodeDyn(d); err != nil {
		return nd, err
	}
	err = nd.Block.UnmarshalCache(d)
	return nd, err
}

// maxDependencyID returns the highest dependency id referenced by the module id.
func maxDependencyID(graph *domain.ModuleGraph, id domain.ModuleIdentifier) domain.DependencyID {
	var highest domain.DependencyID
	mgm, ok := graph.ModuleGraphModule(id)
	if !ok {
		return highest
	}
	for _, dep := range mgm.AllDependencies {
		highest = max(highest, dep)
	}
	for dep := range mgm.OutgoingConnections {
		highest = max(highest, dep)
	}
	return highest
}
