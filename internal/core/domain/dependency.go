package domain

import (
	"go.trai.ch/stow/internal/cacheable"
)

// Dependency kinds known to the core. Plugins register further kinds on Dependencies.
const (
	DependencyKindEntry   = "entry"
	DependencyKindImport  = "esm-import"
	DependencyKindRequire = "cjs-require"
)

// Dependency is a request from one module for another. The set of kinds is open.
type Dependency interface {
	cacheable.Kinded
	ID() DependencyID
	Request() string
	Location() *DependencyLocation
}

// Dependencies holds the factories of every persistable dependency kind.
var Dependencies = cacheable.NewRegistry[Dependency]("dependency")

func init() {
	Dependencies.Register(DependencyKindEntry, func() Dependency { return &EntryDependency{} })
	Dependencies.Register(DependencyKindImport, func() Dependency { return &ImportDependency{} })
	Dependencies.Register(DependencyKindRequire, func() Dependency { return &RequireDependency{} })
}

// SourcePosition is a one-based line and zero-based column.
type SourcePosition struct {
	Line   uint32
	Column uint32
}

// DependencyLocation is either a real source range or, when Name is set, a synthetic
// location such as "entry".
type DependencyLocation struct {
	Start SourcePosition
	End   SourcePosition
	Name  string
}

const (
	locationReal uint8 = iota
	locationSynthetic
)

// MarshalCache implements cacheable.Marshaler.
func (l *DependencyLocation) MarshalCache(e *cacheable.Encoder) error {
	if l.Name != "" {
		e.WriteVariant(locationSynthetic)
		e.WriteString(l.Name)
		return nil
	}
	e.WriteVariant(locationReal)
	e.WriteUint32(l.Start.Line)
	e.WriteUint32(l.Start.Column)
	e.WriteUint32(l.End.Line)
	e.WriteUint32(l.End.Column)
	return nil
}

// UnmarshalCache implements cacheable.Unmarshaler.
func (l *DependencyLocation) UnmarshalCache(d *cacheable.Decoder) error {
	tag, err := d.ReadVariant()
	if err != nil {
		return err
	}
	switch tag {
	case locationSynthetic:
		l.Name, err = d.ReadString()
		return err
	case locationReal:
		for _, p := range []*uint32{&l.Start.Line, &l.Start.Column, &l.End.Line, &l.End.Column} {
			if *p, err = d.ReadUint32(); err != nil {
				return err
			}
		}
		return nil
	default:
		return d.Malformed("unknown location variant")
	}
}

func writeLocation(e *cacheable.Encoder, l *DependencyLocation) error {
	e.WriteBool(l != nil)
	if l == nil {
		return nil
	}
	return l.MarshalCache(e)
}

func readLocation(d *cacheable.Decoder) (*DependencyLocation, error) {
	present, err := d.ReadBool()
	if err != nil || !present {
		return nil, err
	}
	l := &DependencyLocation{}
	if err := l.UnmarshalCache(d); err != nil {
		return nil, err
	}
	return l, nil
}

// ModuleDependency carries the fields shared by every dependency kind.
type ModuleDependency struct {
	DepID       DependencyID
	UserRequest string
	Loc         *DependencyLocation
}

// ID returns the dependency id.
func (m *ModuleDependency) ID() DependencyID { return m.DepID }

// Request returns the request string as written in source.
func (m *ModuleDependency) Request() string { return m.UserRequest }

// Location returns the source location, or nil.
func (m *ModuleDependency) Location() *DependencyLocation { return m.Loc }

// MarshalCache implements cacheable.Marshaler.
func (m *ModuleDependency) MarshalCache(e *cacheable.Encoder) error {
	e.WriteUint32(uint32(m.DepID))
	e.WriteString(m.UserRequest)
	return writeLocation(e, m.Loc)
}

// UnmarshalCache implements cacheable.Unmarshaler.
func (m *ModuleDependency) UnmarshalCache(d *cacheable.Decoder) error {
	id, err := d.ReadUint32()
	if err != nil {
		return err
	}
	m.DepID = DependencyID(id)
	if m.UserRequest, err = d.ReadString(); err != nil {
		return err
	}
	m.Loc, err = readLocation(d)
	return err
}

// EntryDependency is the root request of an entry point.
type EntryDependency struct {
	ModuleDependency
	EntryName string
}

// Kind implements cacheable.Kinded.
func (*EntryDependency) Kind() string { return DependencyKindEntry }

// MarshalCache implements cacheable.Marshaler.
func (dep *EntryDependency) MarshalCache(e *cacheable.Encoder) error {
	if err := dep.ModuleDependency.MarshalCache(e); err != nil {
		return err
	}
	e.WriteString(dep.EntryName)
	return nil
}

// UnmarshalCache implements cacheable.Unmarshaler.
func (dep *EntryDependency) UnmarshalCache(d *cacheable.Decoder) error {
	if err := dep.ModuleDependency.UnmarshalCache(d); err != nil {
		return err
	}
	var err error
	dep.EntryName, err = d.ReadString()
	return err
}

// ImportDependency is a static or dynamic ES module import.
type ImportDependency struct {
	ModuleDependency
	Specifiers []string
	Dynamic    bool
}

// Kind implements cacheable.Kinded.
func (*ImportDependency) Kind() string { return DependencyKindImport }

// MarshalCache implements cacheable.Marshaler.
func (dep *ImportDependency) MarshalCache(e *cacheable.Encoder) error {
	if err := dep.ModuleDependency.MarshalCache(e); err != nil {
		return err
	}
	if err := cacheable.EncodeSlice(e, dep.Specifiers, writeAtomString); err != nil {
		return err
	}
	e.WriteBool(dep.Dynamic)
	return nil
}

// UnmarshalCache implements cacheable.Unmarshaler.
func (dep *ImportDependency) UnmarshalCache(d *cacheable.Decoder) error {
	if err := dep.ModuleDependency.UnmarshalCache(d); err != nil {
		return err
	}
	var err error
	if dep.Specifiers, err = cacheable.DecodeSlice(d, readAtomString); err != nil {
		return err
	}
	dep.Dynamic, err = d.ReadBool()
	return err
}

// RequireDependency is a CommonJS require call.
type RequireDependency struct {
	ModuleDependency
	Optional bool
}

// Kind implements cacheable.Kinded.
func (*RequireDependency) Kind() string { return DependencyKindRequire }

// MarshalCache implements cacheable.Marshaler.
func (dep *RequireDependency) MarshalCache(e *cacheable.Encoder) error {
	if err := dep.ModuleDependency.MarshalCache(e); err != nil {
		return err
	}
	e.WriteBool(dep.Optional)
	return nil
}

// UnmarshalCache implements cacheable.Unmarshaler.
func (dep *RequireDependency) UnmarshalCache(d *cacheable.Decoder) error {
	if err := dep.ModuleDependency.UnmarshalCache(d); err != nil {
		return err
	}
	var err error
	dep.Optional, err = d.ReadBool()
	return err
}

func writeAtomString(e *cacheable.Encoder, s string) error {
	e.WriteAtom(s)
	return nil
}

func readAtomString(d *cacheable.Decoder) (string, error) {
	return d.ReadAtom()
}
