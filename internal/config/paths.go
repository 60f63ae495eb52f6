// Package config manages binsweep options and the locations of their files.
//
// Options are layered: built-in defaults, then a .env file in the working
// directory, then a YAML config file, then BINSWEEP_* environment
// variables, then command-line flags (applied by the CLI).
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// LocalConfigName is the per-directory config file.
const LocalConfigName = ".binsweep.yaml"

// Paths contains the filesystem locations binsweep reads configuration from.
type Paths struct {
	// Root is the per-user directory (default: ~/.binsweep)
	Root string

	// Config is the path to the per-user config file
	Config string
}

// DefaultPaths returns the default paths for binsweep.
// Paths can be overridden with environment variables:
// - BINSWEEP_HOME: Override the per-user directory
func DefaultPaths() (*Paths, error) {
	root := os.Getenv("BINSWEEP_HOME")
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".binsweep")
	}

	return &Paths{
		Root:   root,
		Config: filepath.Join(root, "config.yaml"),
	}, nil
}

// ConfigFile picks the config file to load. An explicit path (flag or
// BINSWEEP_CONFIG) must exist; otherwise the first existing file of
// <cwd>/.binsweep.yaml and the per-user config is used. An empty result
// means no file is loaded.
func (p *Paths) ConfigFile(explicit, cwd string) (path string, required bool) {
	if explicit != "" {
		return explicit, true
	}
	if env := os.Getenv(EnvPrefix + "CONFIG"); env != "" {
		return env, true
	}

	candidates := []string{filepath.Join(cwd, LocalConfigName), p.Config}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, false
		}
	}
	return "", false
}
