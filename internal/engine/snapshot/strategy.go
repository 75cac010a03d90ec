package snapshot

import (
	"go.trai.ch/stow/internal/cacheable"
)

// StrategyKind discriminates the evidence recorded for a path.
type StrategyKind uint8

const (
	// KindLibVersion records the version of the managed package owning the path.
	KindLibVersion StrategyKind = iota
	// KindCompileTime records when the path was last seen, in Unix milliseconds.
	KindCompileTime
)

// Strategy is the change evidence stored for one path.
type Strategy struct {
	Kind    StrategyKind
	Version string
	Time    int64
}

// LibVersion builds evidence from a package version.
func LibVersion(version string) Strategy {
	return Strategy{Kind: KindLibVersion, Version: version}
}

// CompileTime builds evidence from a timestamp in Unix milliseconds.
func CompileTime(ms int64) Strategy {
	return Strategy{Kind: KindCompileTime, Time: ms}
}

// MarshalCache implements cacheable.Marshaler.
func (s Strategy) MarshalCache(e *cacheable.Encoder) error {
	e.WriteVariant(uint8(s.Kind))
	switch s.Kind {
	case KindLibVersion:
		e.WriteString(s.Version)
	case KindCompileTime:
		e.WriteVarint(s.Time)
	}
	return nil
}

// UnmarshalCache implements cacheable.Unmarshaler.
func (s *Strategy) UnmarshalCache(d *cacheable.Decoder) error {
	tag, err := d.ReadVariant()
	if err != nil {
		return err
	}
	s.Kind = StrategyKind(tag)
	switch s.Kind {
	case KindLibVersion:
		s.Version, err = d.ReadString()
	case KindCompileTime:
		s.Time, err = d.ReadVarint()
	default:
		err = d.Malformed("unknown strategy")
	}
	return err
}
