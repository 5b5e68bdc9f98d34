// FILE: lixenwraith/blueprint/discovery.go
package blueprint

import (
	"os"
	"path/filepath"
	"strings"
)

// DiscoveryOptions configures the fallback search for a configuration file when the
// load option is absent from the command line.
type DiscoveryOptions struct {
	// Base name of the file (without extension)
	Name string

	// Extensions to try (in order)
	Extensions []string

	// Custom search paths, searched before the defaults
	Paths []string

	// Environment variable naming an explicit path
	EnvVar string

	// Whether to search in XDG config directories
	UseXDG bool

	// Whether to search in current directory
	UseCurrentDir bool
}

// DefaultDiscoveryOptions returns the usual search setup for an application name.
func DefaultDiscoveryOptions(appName string) DiscoveryOptions {
	return DiscoveryOptions{
		Name:          appName,
		Extensions:    []string{".yaml", ".yml", ".json", ".toml"},
		EnvVar:        strings.ToUpper(strings.ReplaceAll(appName, "-", "_")) + "_BLUEPRINT",
		UseXDG:        true,
		UseCurrentDir: true,
	}
}

// Discover returns the first configuration file found, or "" when there is none.
// An explicit path from the environment variable wins even if the file does not exist,
// so the caller reports it as missing.
func (o DiscoveryOptions) Discover() string {
	if o.EnvVar != "" {
		if path := os.Getenv(o.EnvVar); path != "" {
			return path
		}
	}
	if o.Name == "" {
		return ""
	}

	var searchPaths []string
	searchPaths = append(searchPaths, o.Paths...)

	if o.UseCurrentDir {
		if cwd, err := os.Getwd(); err == nil {
			searchPaths = append(searchPaths, cwd)
		}
	}

	if o.UseXDG {
		searchPaths = append(searchPaths, xdgConfigPaths(o.Name)...)
	}

	for _, dir := range searchPaths {
		for _, ext := range o.Extensions {
			path := filepath.Join(dir, o.Name+ext)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}

// xdgConfigPaths returns XDG-compliant config search paths
func xdgConfigPaths(appName string) []string {
	var paths []string

	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		paths = append(paths, filepath.Join(xdgHome, appName))
	} else if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", appName))
	}

	if xdgDirs := os.Getenv("XDG_CONFIG_DIRS"); xdgDirs != "" {
		for _, dir := range filepath.SplitList(xdgDirs) {
			paths = append(paths, filepath.Join(dir, appName))
		}
	} else {
		paths = append(paths,
			filepath.Join("/etc/xdg", appName),
			filepath.Join("/etc", appName),
		)
	}

	return paths
}
