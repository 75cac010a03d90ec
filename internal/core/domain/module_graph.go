package domain

import (
	"slices"

	"go.trai.ch/stow/internal/cacheable"
)

// ModuleGraphModule is the graph-side record of a module.
type ModuleGraphModule struct {
	ModuleIdentifier    ModuleIdentifier
	Issuer              ModuleIdentifier
	Depth               uint32
	AllDependencies     []DependencyID
	OutgoingConnections Set[DependencyID]

	// IncomingConnections and ExportsInfo are rebuilt by the graph and never persisted.
	IncomingConnections Set[DependencyID]
	ExportsInfo         ExportsInfoID
}

// NewModuleGraphModule creates an empty record for id.
func NewModuleGraphModule(id, issuer ModuleIdentifier, depth uint32) *ModuleGraphModule {
	return &ModuleGraphModule{
		ModuleIdentifier:    id,
		Issuer:              issuer,
		Depth:               depth,
		OutgoingConnections: NewSet[DependencyID](),
		IncomingConnections: NewSet[DependencyID](),
	}
}

// MarshalCache implements cacheable.Marshaler.
func (m *ModuleGraphModule) MarshalCache(e *cacheable.Encoder) error {
	e.WriteAtom(m.ModuleIdentifier.String())
	e.WriteAtom(m.Issuer.String())
	e.WriteUint32(m.Depth)
	if err := cacheable.EncodeSlice(e, m.AllDependencies, writeDependencyID); err != nil {
		return err
	}
	return cacheable.EncodeSortedSet(e, m.OutgoingConnections, writeDependencyID)
}

// UnmarshalCache implements cacheable.Unmarshaler.
func (m *ModuleGraphModule) UnmarshalCache(d *cacheable.Decoder) error {
	var err error
	if m.ModuleIdentifier, err = readInterned(d); err != nil {
		return err
	}
	if m.Issuer, err = readInterned(d); err != nil {
		return err
	}
	if m.Depth, err = d.ReadUint32(); err != nil {
		return err
	}
	if m.AllDependencies, err = cacheable.DecodeSlice(d, readDependencyID); err != nil {
		return err
	}
	if m.OutgoingConnections, err = cacheable.DecodeSet(d, readDependencyID); err != nil {
		return err
	}
	m.IncomingConnections = NewSet[DependencyID]()
	return nil
}

// ModuleGraphConnection is a resolved edge from an origin module to a target module.
type ModuleGraphConnection struct {
	DependencyID DependencyID
	// OriginModule is zero for entry connections.
	OriginModule ModuleIdentifier
	Module       ModuleIdentifier
	Active       bool
	Conditional  bool
}

// MarshalCache implements cacheable.Marshaler.
func (c *ModuleGraphConnection) MarshalCache(e *cacheable.Encoder) error {
	e.WriteUint32(uint32(c.DependencyID))
	e.WriteAtom(c.OriginModule.String())
	e.WriteAtom(c.Module.String())
	e.WriteBool(c.Active)
	e.WriteBool(c.Conditional)
	return nil
}

// UnmarshalCache implements cacheable.Unmarshaler.
func (c *ModuleGraphConnection) UnmarshalCache(d *cacheable.Decoder) error {
	var err error
	if c.DependencyID, err = readDependencyID(d); err != nil {
		return err
	}
	if c.OriginModule, err = readInterned(d); err != nil {
		return err
	}
	if c.Module, err = readInterned(d); err != nil {
		return err
	}
	if c.Active, err = d.ReadBool(); err != nil {
		return err
	}
	c.Conditional, err = d.ReadBool()
	return err
}

// AsyncDependenciesBlock groups the dependencies of a lazily loaded chunk.
type AsyncDependenciesBlock struct {
	ID           BlockID
	Parent       ModuleIdentifier
	GroupName    string
	Dependencies []DependencyID
	Blocks       []BlockID
	Loc          *DependencyLocation
}

// MarshalCache implements cacheable.Marshaler.
func (b *AsyncDependenciesBlock) MarshalCache(e *cacheable.Encoder) error {
	e.WriteAtom(b.ID.String())
	e.WriteAtom(b.Parent.String())
	e.WriteString(b.GroupName)
	if err := cacheable.EncodeSlice(e, b.Dependencies, writeDependencyID); err != nil {
		return err
	}
	if err := cacheable.EncodeSlice(e, b.Blocks, writeInterned); err != nil {
		return err
	}
	return writeLocation(e, b.Loc)
}

// UnmarshalCache implements cacheable.Unmarshaler.
func (b *AsyncDependenciesBlock) UnmarshalCache(d *cacheable.Decoder) error {
	var err error
	if b.ID, err = readInterned(d); err != nil {
		return err
	}
	if b.Parent, err = readInterned(d); err != nil {
		return err
	}
	if b.GroupName, err = d.ReadString(); err != nil {
		return err
	}
	if b.Dependencies, err = cacheable.DecodeSlice(d, readDependencyID); err != nil {
		return err
	}
	if b.Blocks, err = cacheable.DecodeSlice(d, readInterned); err != nil {
		return err
	}
	b.Loc, err = readLocation(d)
	return err
}

// DependencyParents records where a dependency was declared.
type DependencyParents struct {
	Module ModuleIdentifier
	// Block is zero when the dependency belongs to the module itself.
	Block BlockID
}

// ExportsInfoID identifies an ExportsInfo within one module graph.
type ExportsInfoID uint32

// ExportInfoID identifies an ExportInfo within one module graph.
type ExportInfoID uint32

// SideEffectsOnlyExport is the name of the export entry tracking side-effect-only usage.
const SideEffectsOnlyExport = "*side effects only*"

// ExportsInfo aggregates the export usage of a module.
type ExportsInfo struct {
	ID              ExportsInfoID
	Exports         map[string]ExportInfoID
	OtherExports    ExportInfoID
	SideEffectsOnly ExportInfoID
}

// ExportInfo is the usage state of a single export.
type ExportInfo struct {
	ID   ExportInfoID
	Name string
	Used bool
}

// ModuleGraph owns modules, dependencies, connections, blocks and export information.
type ModuleGraph struct {
	modules            map[ModuleIdentifier]Module
	moduleGraphModules map[ModuleIdentifier]*ModuleGraphModule
	dependencies       map[DependencyID]Dependency
	parents            map[DependencyID]DependencyParents
	connections        map[DependencyID]*ModuleGraphConnection
	blocks             map[BlockID]*AsyncDependenciesBlock
	exportsInfo        map[ExportsInfoID]*ExportsInfo
	exportInfo         map[ExportInfoID]*ExportInfo
	nextExportsInfo    ExportsInfoID
	nextExportInfo     ExportInfoID
}

// NewModuleGraph creates an empty ModuleGraph.
func NewModuleGraph() *ModuleGraph {
	return &ModuleGraph{
		modules:            make(map[ModuleIdentifier]Module),
		moduleGraphModules: make(map[ModuleIdentifier]*ModuleGraphModule),
		dependencies:       make(map[DependencyID]Dependency),
		parents:            make(map[DependencyID]DependencyParents),
		connections:        make(map[DependencyID]*ModuleGraphConnection),
		blocks:             make(map[BlockID]*AsyncDependenciesBlock),
		exportsInfo:        make(map[ExportsInfoID]*ExportsInfo),
		exportInfo:         make(map[ExportInfoID]*ExportInfo),
	}
}

// AddModule inserts or replaces a module.
func (g *ModuleGraph) AddModule(m Module) {
	g.modules[m.Identifier()] = m
}

// Module looks up a module by identifier.
func (g *ModuleGraph) Module(id ModuleIdentifier) (Module, bool) {
	m, ok := g.modules[id]
	return m, ok
}

// ModuleIdentifiers returns every module identifier in sorted order.
func (g *ModuleGraph) ModuleIdentifiers() []ModuleIdentifier {
	ids := make([]ModuleIdentifier, 0, len(g.modules))
	for id := range g.modules {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, ModuleIdentifier.Compare)
	return ids
}

// ModuleCount returns the number of modules in the graph.
func (g *ModuleGraph) ModuleCount() int {
	return len(g.modules)
}

// AddModuleGraphModule inserts or replaces the graph record of a module.
func (g *ModuleGraph) AddModuleGraphModule(mgm *ModuleGraphModule) {
	if mgm.OutgoingConnections == nil {
		mgm.OutgoingConnections = NewSet[DependencyID]()
	}
	if mgm.IncomingConnections == nil {
		mgm.IncomingConnections = NewSet[DependencyID]()
	}
	g.moduleGraphModules[mgm.ModuleIdentifier] = mgm
}

// ModuleGraphModule looks up the graph record of a module.
func (g *ModuleGraph) ModuleGraphModule(id ModuleIdentifier) (*ModuleGraphModule, bool) {
	mgm, ok := g.moduleGraphModules[id]
	return mgm, ok
}

// AddDependency inserts or replaces a dependency.
func (g *ModuleGraph) AddDependency(dep Dependency) {
	g.dependencies[dep.ID()] = dep
}

// Dependency looks up a dependency by id.
func (g *ModuleGraph) Dependency(id DependencyID) (Dependency, bool) {
	dep, ok := g.dependencies[id]
	return dep, ok
}

// SetParents records where a dependency was declared.
func (g *ModuleGraph) SetParents(id DependencyID, parents DependencyParents) {
	g.parents[id] = parents
}

// Parents returns where a dependency was declared.
func (g *ModuleGraph) Parents(id DependencyID) (DependencyParents, bool) {
	p, ok := g.parents[id]
	return p, ok
}

// AddBlock inserts or replaces an async dependencies block.
func (g *ModuleGraph) AddBlock(b *AsyncDependenciesBlock) {
	g.blocks[b.ID] = b
}

// Block looks up a block by id.
func (g *ModuleGraph) Block(id BlockID) (*AsyncDependenciesBlock, bool) {
	b, ok := g.blocks[id]
	return b, ok
}

// Connect records a resolved connection and wires it into both module records.
func (g *ModuleGraph) Connect(depID DependencyID, origin, target ModuleIdentifier) *ModuleGraphConnection {
	conn := &ModuleGraphConnection{
		DependencyID: depID,
		OriginModule: origin,
		Module:       target,
		Active:       true,
	}
	g.connections[depID] = conn
	if mgm, ok := g.moduleGraphModules[origin]; ok {
		mgm.OutgoingConnections.Add(depID)
	}
	g.AddIncomingConnection(target, depID)
	return conn
}

// CacheRecoveryConnection inserts a recovered connection without touching module records,
// which already carry their outgoing edges.
func (g *ModuleGraph) CacheRecoveryConnection(conn *ModuleGraphConnection) {
	g.connections[conn.DependencyID] = conn
}

// AddIncomingConnection registers depID as an incoming edge of target.
func (g *ModuleGraph) AddIncomingConnection(target ModuleIdentifier, depID DependencyID) {
	if mgm, ok := g.moduleGraphModules[target]; ok {
		mgm.IncomingConnections.Add(depID)
	}
}

// Connection looks up the connection resolved from a dependency.
func (g *ModuleGraph) Connection(depID DependencyID) (*ModuleGraphConnection, bool) {
	conn, ok := g.connections[depID]
	return conn, ok
}

// Connections returns the connections leaving a module, ordered by dependency id.
func (g *ModuleGraph) Connections(origin ModuleIdentifier) []*ModuleGraphConnection {
	mgm, ok := g.moduleGraphModules[origin]
	if !ok {
		return nil
	}
	out := make([]*ModuleGraphConnection, 0, mgm.OutgoingConnections.Len())
	for _, id := range Sorted(mgm.OutgoingConnections) {
		if conn, ok := g.connections[id]; ok {
			out = append(out, conn)
		}
	}
	return out
}

// RevokeConnection removes the connection of depID and detaches it from both module
// records. It returns the dependency together with its origin so the caller can rebuild it.
func (g *ModuleGraph) RevokeConnection(depID DependencyID) (BuildDependency, bool) {
	conn, ok := g.connections[depID]
	if !ok {
		return BuildDependency{}, false
	}
	delete(g.connections, depID)
	if mgm, ok := g.moduleGraphModules[conn.OriginModule]; ok {
		mgm.OutgoingConnections.Delete(depID)
	}
	if mgm, ok := g.moduleGraphModules[conn.Module]; ok {
		mgm.IncomingConnections.Delete(depID)
	}
	return BuildDependency{DependencyID: depID, Origin: conn.OriginModule}, true
}

// CreateExportsInfo allocates an empty ExportsInfo with its "other exports" and
// side-effects entries.
func (g *ModuleGraph) CreateExportsInfo() ExportsInfoID {
	other := g.newExportInfo("")
	sideEffects := g.newExportInfo(SideEffectsOnlyExport)

	g.nextExportsInfo++
	info := &ExportsInfo{
		ID:              g.nextExportsInfo,
		Exports:         make(map[string]ExportInfoID),
		OtherExports:    other.ID,
		SideEffectsOnly: sideEffects.ID,
	}
	g.SetExportsInfo(info)
	return info.ID
}

func (g *ModuleGraph) newExportInfo(name string) *ExportInfo {
	g.nextExportInfo++
	info := &ExportInfo{ID: g.nextExportInfo, Name: name}
	g.SetExportInfo(info)
	return info
}

// SetExportsInfo inserts or replaces an ExportsInfo.
func (g *ModuleGraph) SetExportsInfo(info *ExportsInfo) {
	g.exportsInfo[info.ID] = info
}

// SetExportInfo inserts or replaces an ExportInfo.
func (g *ModuleGraph) SetExportInfo(info *ExportInfo) {
	g.exportInfo[info.ID] = info
}

// ExportsInfo looks up an ExportsInfo.
func (g *ModuleGraph) ExportsInfo(id ExportsInfoID) (*ExportsInfo, bool) {
	info, ok := g.exportsInfo[id]
	return info, ok
}

// ExportInfo looks up an ExportInfo.
func (g *ModuleGraph) ExportInfo(id ExportInfoID) (*ExportInfo, bool) {
	info, ok := g.exportInfo[id]
	return info, ok
}

func writeDependencyID(e *cacheable.Encoder, id DependencyID) error {
	e.WriteUint32(uint32(id))
	return nil
}

func readDependencyID(d *cacheable.Decoder) (DependencyID, error) {
	v, err := d.ReadUint32()
	return DependencyID(v), err
}
