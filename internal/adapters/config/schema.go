package config

// Stowfile represents the structure of the stow.yaml configuration file.
type Stowfile struct {
	Version  string      `yaml:"version"`
	Cache    CacheDTO    `yaml:"cache"`
	Compiler CompilerDTO `yaml:"compiler"`
	Snapshot SnapshotDTO `yaml:"snapshot"`
	LogLevel string      `yaml:"logLevel"`
}

// CacheDTO selects the cache type and where it is stored.
type CacheDTO struct {
	Type      string `yaml:"type"`
	Storage   string `yaml:"storage"`
	Directory string `yaml:"directory"`
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
}

// CompilerDTO holds the compiler options shared by every cached module.
type CompilerDTO struct {
	Context string `yaml:"context"`
	Mode    string `yaml:"mode"`
	Target  string `yaml:"target"`
}

// SnapshotDTO lists path patterns; entries prefixed with "regexp:" are regular expressions.
type SnapshotDTO struct {
	ManagedPaths   []string `yaml:"managedPaths"`
	ImmutablePaths []string `yaml:"immutablePaths"`
}
