// Package manifest handles optic.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents an optic.toml project configuration.
type Manifest struct {
	Project  Project  `toml:"project"`
	Source   Source   `toml:"source"`
	Compiler Compiler `toml:"compiler"`
	Cache    Cache    `toml:"cache"`
	Log      Log      `toml:"log"`

	// Dir is the directory containing the optic.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures program file locations.
type Source struct {
	Dirs  []string `toml:"dirs"`
	Entry string   `toml:"entry"`
}

// Compiler toggles individual optimization passes. All passes default to on;
// a toggle exists to bisect a miscompile, not for production tuning.
type Compiler struct {
	FoldBranches      *bool `toml:"fold-branches"`
	FoldConstants     *bool `toml:"fold-constants"`
	InlineMonomorphic *bool `toml:"inline-monomorphic"`
	RemoveDeadCode    *bool `toml:"remove-dead-code"`
}

// Cache configures the persistent compiled-code cache.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Log configures diagnostic output.
type Log struct {
	Level string `toml:"level"`
}

// Load parses an optic.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "optic.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if len(m.Source.Dirs) == 0 {
		m.Source.Dirs = []string{"src"}
	}
	if m.Cache.Path == "" {
		m.Cache.Path = filepath.Join(".optic", "cache.db")
	}
	if m.Log.Level == "" {
		m.Log.Level = "info"
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find an optic.toml file, then loads
// and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "optic.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// SourceDirPaths returns absolute paths for the configured source directories.
func (m *Manifest) SourceDirPaths() []string {
	var paths []string
	for _, d := range m.Source.Dirs {
		paths = append(paths, filepath.Join(m.Dir, d))
	}
	return paths
}

// CachePath returns the absolute path of the compiled-code cache database.
func (m *Manifest) CachePath() string {
	if filepath.IsAbs(m.Cache.Path) {
		return m.Cache.Path
	}
	return filepath.Join(m.Dir, m.Cache.Path)
}

// enabled resolves a tri-state toggle against its default of true.
func enabled(v *bool) bool {
	return v == nil || *v
}

// FoldBranchesEnabled reports whether branch folding is on.
func (c Compiler) FoldBranchesEnabled() bool { return enabled(c.FoldBranches) }

// FoldConstantsEnabled reports whether constant folding is on.
func (c Compiler) FoldConstantsEnabled() bool { return enabled(c.FoldConstants) }

// InlineMonomorphicEnabled reports whether monomorphic inlining is on.
func (c Compiler) InlineMonomorphicEnabled() bool { return enabled(c.InlineMonomorphic) }

// RemoveDeadCodeEnabled reports whether dead-code elimination is on.
func (c Compiler) RemoveDeadCodeEnabled() bool { return enabled(c.RemoveDeadCode) }
