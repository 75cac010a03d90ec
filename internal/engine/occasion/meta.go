package occasion

import (
	"go.trai.ch/stow/internal/cacheable"
	"go.trai.ch/stow/internal/core/domain"
)

// Meta is the global bookkeeping of a make artifact.
type Meta struct {
	FailedDependencies  domain.Set[domain.BuildDependency]
	FailedModules       domain.Set[domain.ModuleIdentifier]
	EntryDependencies   domain.Set[domain.DependencyID]
	FileDependencies    *domain.FileCounter
	ContextDependencies *domain.FileCounter
	MissingDependencies *domain.FileCounter
	BuildDependencies   *domain.FileCounter
	NextDependencyID    domain.DependencyID
}

// UnmarshalCache implements cacheable.Unmarshaler.
func (m *Meta) UnmarshalCache(d *cacheable.Decoder) error {
	var err error
	if m.FailedDependencies, err = domain.DecodeBuildDependencies(d); err != nil {
		return err
	}
	if m.FailedModules, err = domain.DecodeIdentifiers(d); err != nil {
		return err
	}
	if m.EntryDependencies, err = cacheable.DecodeSet(d, readDependencyID); err != nil {
		return err
	}

	m.FileDependencies = domain.NewFileCounter()
	m.ContextDependencies = domain.NewFileCounter()
	m.MissingDependencies = domain.NewFileCounter()
	m.BuildDependencies = domain.NewFileCounter()
	for _, c := range m.counters() {
		if err := c.UnmarshalCache(d); err != nil {
			return err
		}
	}

	next, err := readDependencyID(d)
	m.NextDependencyID = next
	return err
}

func (m *Meta) counters() []*domain.FileCounter {
	return []*domain.FileCounter{
		m.FileDependencies,
		m.ContextDependencies,
		m.MissingDependencies,
		m.BuildDependencies,
	}
}

// apply moves the recovered bookkeeping into artifact.
func (m *Meta) apply(artifact *domain.MakeArtifact) {
	artifact.FailedDependencies = m.FailedDependencies
	artifact.FailedModules = m.FailedModules
	artifact.EntryDependencies = m.EntryDependencies
	artifact.FileDependencies = m.FileDependencies
	artifact.ContextDependencies = m.ContextDependencies
	artifact.MissingDependencies = m.MissingDependencies
	artifact.BuildDependencies = m.BuildDependencies
}

// metaView encodes the Meta of an artifact in place. Its layout must stay identical to Meta.
type metaView struct {
	artifact *domain.MakeArtifact
	next     domain.DependencyID
}

// MarshalCache implements cacheable.Marshaler.
func (v metaView) MarshalCache(e *cacheable.Encoder) error {
	if err := domain.EncodeBuildDependencies(e, v.artifact.FailedDependencies); err != nil {
		return err
	}
	if err := domain.EncodeIdentifiers(e, v.artifact.FailedModules); err != nil {
		return err
	}
	if err := cacheable.EncodeSortedSet(e, v.artifact.EntryDependencies, writeDependencyID); err != nil {
		return err
	}
	for _, c := range v.artifact.FileCounters() {
		if c == nil {
			c = domain.NewFileCounter()
		}
		if err := c.MarshalCache(e); err != nil {
			return err
		}
	}
	return writeDependencyID(e, v.next)
}

func writeDependencyID(e *cacheable.Encoder, id domain.DependencyID) error {
	e.WriteUint32(uint32(id))
	return nil
}

func readDependencyID(d *cacheable.Decoder) (domain.DependencyID, error) {
	v, err := d.ReadUint32()
	return domain.DependencyID(v), err
}
