package snapshot

import (
	"path/filepath"

	"github.com/bytedance/sonic"

	"go.trai.ch/stow/internal/core/ports"
)

const (
	packageJSON = "package.json"
	nodeModules = "node_modules"
)

type packageManifest struct {
	Version string `json:"version"`
}

// versionResolver finds the version of the package owning a path. Results are memoized per
// directory for the lifetime of the resolver, which is a single snapshot operation.
type versionResolver struct {
	fs    ports.FileSystem
	cache map[string]string
}

func newVersionResolver(fsys ports.FileSystem) *versionResolver {
	return &versionResolver{fs: fsys, cache: make(map[string]string)}
}

// Version walks up from the directory of path to the nearest package.json declaring a
// version. The search never leaves the enclosing node_modules directory.
func (r *versionResolver) Version(path string) (string, bool) {
	var visited []string
	version := ""
	for dir := filepath.Dir(path); ; {
		if v, ok := r.cache[dir]; ok {
			version = v
			break
		}
		visited = append(visited, dir)
		if v := r.readVersion(dir); v != "" {
			version = v
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir || filepath.Base(parent) == nodeModules || filepath.Base(dir) == nodeModules {
			break
		}
		dir = parent
	}
	for _, dir := range visited {
		r.cache[dir] = version
	}
	return version, version != ""
}

func (r *versionResolver) readVersion(dir string) string {
	data, err := r.fs.ReadFile(filepath.Join(dir, packageJSON))
	if err != nil {
		return ""
	}
	var manifest packageManifest
	if err := sonic.Unmarshal(data, &manifest); err != nil {
		return ""
	}
	return manifest.Version
}
