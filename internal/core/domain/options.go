package domain

import (
	"path/filepath"
	"regexp"
	"strings"

	"go.trai.ch/stow/internal/cacheable"
	"go.trai.ch/zerr"
)

// CompilerOptions is the environment-owned configuration shared by every module of a
// compilation. It is never written to the cache; modules refer to it through FromContext.
type CompilerOptions struct {
	Context string `yaml:"context"`
	Mode    string `yaml:"mode"`
	Target  string `yaml:"target"`
}

// CacheContext is the run-scoped value handed to every encode and decode call.
type CacheContext struct {
	Options *CompilerOptions
}

// ContextMarker is the empty surrogate written in place of a context-owned value.
type ContextMarker struct{}

// MarshalCache writes nothing.
func (ContextMarker) MarshalCache(*cacheable.Encoder) error { return nil }

// UnmarshalCache reads nothing.
func (*ContextMarker) UnmarshalCache(*cacheable.Decoder) error { return nil }

// FromContext persists a *CompilerOptions as an empty marker and restores it from the
// *CacheContext supplied at decode time.
type FromContext struct{}

var _ cacheable.Converter[*CompilerOptions, ContextMarker] = FromContext{}

// Surrogate implements cacheable.Converter.
func (FromContext) Surrogate(*CompilerOptions, any) (ContextMarker, error) {
	return ContextMarker{}, nil
}

// Rehydrate implements cacheable.Converter.
func (FromContext) Rehydrate(_ ContextMarker, ctx any) (*CompilerOptions, error) {
	cc, ok := ctx.(*CacheContext)
	if !ok || cc == nil || cc.Options == nil {
		return nil, zerr.Wrap(cacheable.ErrMissingContext, "compiler options")
	}
	return cc.Options, nil
}

// CacheType selects the cache façade.
type CacheType string

const (
	// CacheTypePersistent persists the module graph between runs.
	CacheTypePersistent CacheType = "persistent"
	// CacheTypeDisabled turns every cache hook into a no-op.
	CacheTypeDisabled CacheType = "disabled"
)

// StorageType selects the storage backend of a persistent cache.
type StorageType string

const (
	// StorageTypeFilesystem stores buckets under the cache directory.
	StorageTypeFilesystem StorageType = "filesystem"
	// StorageTypeMemory keeps everything in the current process.
	StorageTypeMemory StorageType = "memory"
)

const (
	// DefaultCacheDirectory is relative to the compiler context.
	DefaultCacheDirectory = "node_modules/.cache/stow"
	// DefaultCacheName names the cache of a single compiler.
	DefaultCacheName = "compiler"
	// DefaultCacheVersion is bumped by users to discard an existing cache.
	DefaultCacheVersion = "v1"
	// DefaultManagedPaths matches files installed by a package manager.
	DefaultManagedPaths = `regexp:[\\/]node_modules[\\/]`
)

// SnapshotOptions controls how file changes are detected.
type SnapshotOptions struct {
	ImmutablePaths []PathMatcher
	ManagedPaths   []PathMatcher
}

// CacheOptions is the resolved cache configuration.
type CacheOptions struct {
	Type      CacheType
	Storage   StorageType
	Directory string
	Name      string
	Version   string
	Compiler  CompilerOptions
	Snapshot  SnapshotOptions
	LogLevel  LogLevel
}

// DefaultCacheOptions returns the configuration used when no config file exists.
func DefaultCacheOptions(context string) *CacheOptions {
	managed, _ := ParsePathMatcher(DefaultManagedPaths)
	return &CacheOptions{
		Type:      CacheTypePersistent,
		Storage:   StorageTypeFilesystem,
		Directory: DefaultCacheDirectory,
		Name:      DefaultCacheName,
		Version:   DefaultCacheVersion,
		Compiler: CompilerOptions{
			Context: context,
			Mode:    "development",
			Target:  "web",
		},
		Snapshot: SnapshotOptions{
			ManagedPaths: []PathMatcher{managed},
		},
		LogLevel: LogLevelInfo,
	}
}

// CacheDir returns the directory holding the storage of this cache.
func (o *CacheOptions) CacheDir() string {
	dir := o.Directory
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(o.Compiler.Context, dir)
	}
	return filepath.Join(dir, o.Name+"-"+o.Version)
}

const regexpPrefix = "regexp:"

// PathMatcher matches a path either by string prefix or by regular expression.
type PathMatcher struct {
	prefix string
	re     *regexp.Regexp
}

// NewPrefixMatcher matches every path starting with prefix.
func NewPrefixMatcher(prefix string) PathMatcher {
	return PathMatcher{prefix: prefix}
}

// ParsePathMatcher parses a configured matcher. Values starting with "regexp:" are
// compiled as regular expressions, anything else is a prefix.
func ParsePathMatcher(s string) (PathMatcher, error) {
	expr, ok := strings.CutPrefix(s, regexpPrefix)
	if !ok {
		return NewPrefixMatcher(s), nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return PathMatcher{}, zerr.With(zerr.Wrap(ErrInvalidPathMatcher, err.Error()), "pattern", s)
	}
	return PathMatcher{re: re}, nil
}

// Match reports whether path is covered by the matcher.
func (m PathMatcher) Match(path string) bool {
	if m.re != nil {
		return m.re.MatchString(path)
	}
	return m.prefix != "" && strings.HasPrefix(path, m.prefix)
}

// String returns the configured form of the matcher.
func (m PathMatcher) String() string {
	if m.re != nil {
		return regexpPrefix + m.re.String()
	}
	return m.prefix
}

// MatchAny reports whether any matcher covers path.
func MatchAny(matchers []PathMatcher, path string) bool {
	for _, m := range matchers {
		if m.Match(path) {
			return true
		}
	}
	return false
}
