package domain

import (
	"go.trai.ch/stow/internal/cacheable"
)

// ModuleIdentifier uniquely names a module within a compilation.
type ModuleIdentifier = InternedString

// BlockID names an async dependencies block.
type BlockID = InternedString

// Module kinds known to the core. Plugins register further kinds on Modules.
const (
	ModuleKindNormal = "normal"
	ModuleKindRaw    = "raw"
)

// Module is a node of the module graph. The set of kinds is open.
type Module interface {
	cacheable.Kinded
	Identifier() ModuleIdentifier
	Blocks() []BlockID
}

// Modules holds the factories of every persistable module kind.
var Modules = cacheable.NewRegistry[Module]("module")

func init() {
	Modules.Register(ModuleKindNormal, func() Module { return &NormalModule{} })
	Modules.Register(ModuleKindRaw, func() Module { return &RawModule{} })
}

// BuildInfo is the outcome of building a single module.
type BuildInfo struct {
	Hash             string
	Cacheable        bool
	FileDependencies []string
}

// MarshalCache implements cacheable.Marshaler.
func (b *BuildInfo) MarshalCache(e *cacheable.Encoder) error {
	e.WriteString(b.Hash)
	e.WriteBool(b.Cacheable)
	return cacheable.EncodeSlice(e, b.FileDependencies, writeAtomString)
}

// UnmarshalCache implements cacheable.Unmarshaler.
func (b *BuildInfo) UnmarshalCache(d *cacheable.Decoder) error {
	var err error
	if b.Hash, err = d.ReadString(); err != nil {
		return err
	}
	if b.Cacheable, err = d.ReadBool(); err != nil {
		return err
	}
	b.FileDependencies, err = cacheable.DecodeSlice(d, readAtomString)
	return err
}

// NormalModule is a module backed by a resource on disk.
type NormalModule struct {
	ID          ModuleIdentifier
	Request     string
	UserRequest string
	Resource    string
	ModuleType  string
	Source      []byte
	Info        BuildInfo
	BlockIDs    []BlockID

	// Options is owned by the compiler and restored from the CacheContext.
	Options *CompilerOptions

	// SourceMap is rebuilt on demand and never persisted.
	SourceMap []byte
}

// Kind implements cacheable.Kinded.
func (*NormalModule) Kind() string { return ModuleKindNormal }

// Identifier implements Module.
func (m *NormalModule) Identifier() ModuleIdentifier { return m.ID }

// Blocks implements Module.
func (m *NormalModule) Blocks() []BlockID { return m.BlockIDs }

// MarshalCache implements cacheable.Marshaler.
func (m *NormalModule) MarshalCache(e *cacheable.Encoder) error {
	e.WriteAtom(m.ID.String())
	e.WriteString(m.Request)
	e.WriteString(m.UserRequest)
	e.WriteAtom(m.Resource)
	e.WriteAtom(m.ModuleType)
	e.WriteBytes(m.Source)
	if err := m.Info.MarshalCache(e); err != nil {
		return err
	}
	if err := cacheable.EncodeSlice(e, m.BlockIDs, writeInterned); err != nil {
		return err
	}
	e.WriteBool(m.Options != nil)
	if m.Options == nil {
		return nil
	}
	return cacheable.EncodeWith(e, cacheable.Converter[*CompilerOptions, ContextMarker](FromContext{}), m.Options)
}

// UnmarshalCache implements cacheable.Unmarshaler.
func (m *NormalModule) UnmarshalCache(d *cacheable.Decoder) error {
	var err error
	if m.ID, err = readInterned(d); err != nil {
		return err
	}
	if m.Request, err = d.ReadString(); err != nil {
		return err
	}
	if m.UserRequest, err = d.ReadString(); err != nil {
		return err
	}
	if m.Resource, err = d.ReadAtom(); err != nil {
		return err
	}
	if m.ModuleType, err = d.ReadAtom(); err != nil {
		return err
	}
	if m.Source, err = d.ReadBytes(); err != nil {
		return err
	}
	if err = m.Info.UnmarshalCache(d); err != nil {
		return err
	}
	if m.BlockIDs, err = cacheable.DecodeSlice(d, readInterned); err != nil {
		return err
	}
	hasOptions, err := d.ReadBool()
	if err != nil || !hasOptions {
		return err
	}
	m.Options, err = cacheable.DecodeWith[*CompilerOptions, ContextMarker](d, FromContext{})
	return err
}

// RawModule is a module whose source is provided verbatim.
type RawModule struct {
	ID                  ModuleIdentifier
	Source              string
	ReadableIdentifier  string
	RuntimeRequirements []string
}

// Kind implements cacheable.Kinded.
func (*RawModule) Kind() string { return ModuleKindRaw }

// Identifier implements Module.
func (m *RawModule) Identifier() ModuleIdentifier { return m.ID }

// Blocks implements Module.
func (*RawModule) Blocks() []BlockID { return nil }

// MarshalCache implements cacheable.Marshaler.
func (m *RawModule) MarshalCache(e *cacheable.Encoder) error {
	e.WriteAtom(m.ID.String())
	e.WriteString(m.Source)
	e.WriteString(m.ReadableIdentifier)
	return cacheable.EncodeSlice(e, m.RuntimeRequirements, writeAtomString)
}

// UnmarshalCache implements cacheable.Unmarshaler.
func (m *RawModule) UnmarshalCache(d *cacheable.Decoder) error {
	var err error
	if m.ID, err = readInterned(d); err != nil {
		return err
	}
	if m.Source, err = d.ReadString(); err != nil {
		return err
	}
	if m.ReadableIdentifier, err = d.ReadString(); err != nil {
		return err
	}
	m.RuntimeRequirements, err = cacheable.DecodeSlice(d, readAtomString)
	return err
}
