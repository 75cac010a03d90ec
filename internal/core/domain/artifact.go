package domain

import (
	"cmp"

	"go.trai.ch/stow/internal/cacheable"
)

// BuildDependency is a dependency together with the module that declared it.
type BuildDependency struct {
	DependencyID DependencyID
	// Origin is zero for entry dependencies.
	Origin ModuleIdentifier
}

// Compare orders build dependencies by id, then by origin.
func (b BuildDependency) Compare(other BuildDependency) int {
	if c := cmp.Compare(b.DependencyID, other.DependencyID); c != 0 {
		return c
	}
	return b.Origin.Compare(other.Origin)
}

// MarshalCache implements cacheable.Marshaler.
func (b BuildDependency) MarshalCache(e *cacheable.Encoder) error {
	e.WriteUint32(uint32(b.DependencyID))
	e.WriteAtom(b.Origin.String())
	return nil
}

// UnmarshalCache implements cacheable.Unmarshaler.
func (b *BuildDependency) UnmarshalCache(d *cacheable.Decoder) error {
	var err error
	if b.DependencyID, err = readDependencyID(d); err != nil {
		return err
	}
	b.Origin, err = readInterned(d)
	return err
}

// EncodeBuildDependencies writes a set of build dependencies in sorted order.
func EncodeBuildDependencies(e *cacheable.Encoder, set Set[BuildDependency]) error {
	return cacheable.EncodeSlice(e, set.SortedFunc(BuildDependency.Compare), func(e *cacheable.Encoder, b BuildDependency) error {
		return b.MarshalCache(e)
	})
}

// DecodeBuildDependencies reads a set written by EncodeBuildDependencies.
func DecodeBuildDependencies(d *cacheable.Decoder) (Set[BuildDependency], error) {
	return cacheable.DecodeSet(d, func(d *cacheable.Decoder) (BuildDependency, error) {
		var b BuildDependency
		err := b.UnmarshalCache(d)
		return b, err
	})
}

// EncodeIdentifiers writes a set of module identifiers in sorted order.
func EncodeIdentifiers(e *cacheable.Encoder, set Set[ModuleIdentifier]) error {
	return cacheable.EncodeSlice(e, set.SortedFunc(ModuleIdentifier.Compare), writeInterned)
}

// DecodeIdentifiers reads a set written by EncodeIdentifiers.
func DecodeIdentifiers(d *cacheable.Decoder) (Set[ModuleIdentifier], error) {
	return cacheable.DecodeSet(d, readInterned)
}

// MakeArtifact is the state produced by the make phase of a compilation.
type MakeArtifact struct {
	Graph *ModuleGraph

	// BuiltModules were (re)built during the last pass and must be saved.
	BuiltModules Set[ModuleIdentifier]
	// RemovedModules left the graph during the last pass and must be dropped from the cache.
	RemovedModules Set[ModuleIdentifier]

	FailedDependencies Set[BuildDependency]
	FailedModules      Set[ModuleIdentifier]
	EntryDependencies  Set[DependencyID]

	FileDependencies    *FileCounter
	ContextDependencies *FileCounter
	MissingDependencies *FileCounter
	BuildDependencies   *FileCounter

	NextDependencyID DependencyID
}

// NewMakeArtifact creates an empty artifact.
func NewMakeArtifact() *MakeArtifact {
	return &MakeArtifact{
		Graph:               NewModuleGraph(),
		BuiltModules:        NewSet[ModuleIdentifier](),
		RemovedModules:      NewSet[ModuleIdentifier](),
		FailedDependencies:  NewSet[BuildDependency](),
		FailedModules:       NewSet[ModuleIdentifier](),
		EntryDependencies:   NewSet[DependencyID](),
		FileDependencies:    NewFileCounter(),
		ContextDependencies: NewFileCounter(),
		MissingDependencies: NewFileCounter(),
		BuildDependencies:   NewFileCounter(),
	}
}

// IsEmpty reports whether the artifact holds no modules and no recorded failures.
func (a *MakeArtifact) IsEmpty() bool {
	return a.Graph.ModuleCount() == 0 &&
		a.FailedDependencies.Len() == 0 &&
		a.FailedModules.Len() == 0
}

// HasFailedDependency reports whether depID is marked for rebuild.
func (a *MakeArtifact) HasFailedDependency(depID DependencyID) bool {
	for b := range a.FailedDependencies {
		if b.DependencyID == depID {
			return true
		}
	}
	return false
}

// FileCounters returns the four dependency trackers in a fixed order: file, context,
// missing, build.
func (a *MakeArtifact) FileCounters() []*FileCounter {
	return []*FileCounter{
		a.FileDependencies,
		a.ContextDependencies,
		a.MissingDependencies,
		a.BuildDependencies,
	}
}

// Compilation is a single build pass.
type Compilation struct {
	ModifiedFiles Set[string]
	RemovedFiles  Set[string]
	Make          *MakeArtifact
}

// NewCompilation creates a compilation with an empty make artifact.
func NewCompilation() *Compilation {
	return &Compilation{
		ModifiedFiles: NewSet[string](),
		RemovedFiles:  NewSet[string](),
		Make:          NewMakeArtifact(),
	}
}

// StorageEntry is a key/value pair inside a storage scope.
type StorageEntry struct {
	Key   string
	Value []byte
}
