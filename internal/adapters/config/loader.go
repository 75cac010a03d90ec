// Package config provides the configuration loader for stow.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"go.trai.ch/stow/internal/core/domain"
	"go.trai.ch/stow/internal/core/ports"
)

// DefaultFilename is the name of the configuration file searched for.
const DefaultFilename = "stow.yaml"

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Filename string
	logger   ports.Logger
}

// NewLoader creates a Loader looking for DefaultFilename.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Filename: DefaultFilename, logger: logger}
}

// Load resolves the configuration for cwd. A bare file name is searched for in cwd and its
// parents; a path is used as given. When no file exists the defaults apply, with cwd as
// the compiler context.
func (l *Loader) Load(cwd string) (*domain.CacheOptions, error) {
	path, found := l.find(cwd)
	if !found {
		l.logger.Info("no " + l.Filename + " found, using default cache options")
		return domain.DefaultCacheOptions(cwd), nil
	}
	return Load(path)
}

func (l *Loader) find(cwd string) (string, bool) {
	if filepath.Base(l.Filename) != l.Filename {
		path := l.Filename
		if !filepath.IsAbs(path) {
			path = filepath.Join(cwd, path)
		}
		return path, true
	}

	dir := cwd
	for {
		path := filepath.Join(dir, l.Filename)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Load reads a configuration file from the given path. Relative directories are resolved
// against the directory holding the file.
func Load(path string) (*domain.CacheOptions, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(err, "config file not found"), "path", path)
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read config file"), "path", path)
	}

	var stowfile Stowfile
	if err := yaml.Unmarshal(data, &stowfile); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse config file"), "path", path)
	}

	return toOptions(&stowfile, filepath.Dir(path))
}

func toOptions(f *Stowfile, root string) (*domain.CacheOptions, error) {
	compilerContext := root
	if f.Compiler.Context != "" {
		compilerContext = f.Compiler.Context
		if !filepath.IsAbs(compilerContext) {
			compilerContext = filepath.Join(root, compilerContext)
		}
	}

	opts := domain.DefaultCacheOptions(compilerContext)

	switch domain.CacheType(f.Cache.Type) {
	case "":
	case domain.CacheTypePersistent, domain.CacheTypeDisabled:
		opts.Type = domain.CacheType(f.Cache.Type)
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownCacheType, "invalid cache.type"), "type", f.Cache.Type)
	}

	switch domain.StorageType(f.Cache.Storage) {
	case "":
	case domain.StorageTypeFilesystem, domain.StorageTypeMemory:
		opts.Storage = domain.StorageType(f.Cache.Storage)
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownStorageType, "invalid cache.storage"), "storage", f.Cache.Storage)
	}

	setIfNotEmpty(&opts.Directory, f.Cache.Directory)
	setIfNotEmpty(&opts.Name, f.Cache.Name)
	setIfNotEmpty(&opts.Version, f.Cache.Version)
	setIfNotEmpty(&opts.Compiler.Mode, f.Compiler.Mode)
	setIfNotEmpty(&opts.Compiler.Target, f.Compiler.Target)

	if f.Snapshot.ManagedPaths != nil {
		managed, err := parseMatchers(f.Snapshot.ManagedPaths)
		if err != nil {
			return nil, err
		}
		opts.Snapshot.ManagedPaths = managed
	}
	immutable, err := parseMatchers(f.Snapshot.ImmutablePaths)
	if err != nil {
		return nil, err
	}
	opts.Snapshot.ImmutablePaths = immutable

	if f.LogLevel != "" {
		opts.LogLevel = domain.ParseLogLevel(f.LogLevel)
	}
	return opts, nil
}

func parseMatchers(patterns []string) ([]domain.PathMatcher, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	out := make([]domain.PathMatcher, 0, len(patterns))
	for _, p := range patterns {
		m, err := domain.ParsePathMatcher(p)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
