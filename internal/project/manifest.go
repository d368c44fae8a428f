package project

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// ManifestFileName is the resolved dependency set of a project.
const ManifestFileName = "manifest.toml"

// ManifestPackage is one resolved dependency.
type ManifestPackage struct {
	Name         string   `toml:"name"`
	Version      string   `toml:"version"`
	Source       string   `toml:"source"` // "local" или "packages"
	Path         string   `toml:"path"`   // для source = "local", относительно корня проекта
	Requirements []string `toml:"requirements"`
}

// Manifest is the parsed manifest.toml.
type Manifest struct {
	Packages []ManifestPackage `toml:"packages"`
}

// LoadManifest parses manifest.toml. A missing file is an empty manifest:
// a project without dependencies does not need one.
func LoadManifest(path string) (Manifest, error) {
	// #nosec G304 -- path is provided by the caller
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, nil
		}
		return Manifest{}, err
	}
	m, err := ParseManifest(data)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseManifest parses manifest.toml contents and validates it.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if _, err := toml.Decode(string(data), &m); err != nil {
		return Manifest{}, fmt.Errorf("failed to parse TOML: %w", err)
	}
	seen := make(map[string]struct{}, len(m.Packages))
	for i := range m.Packages {
		p := &m.Packages[i]
		p.Name = strings.TrimSpace(p.Name)
		if !IsValidModuleIdent(p.Name) {
			return Manifest{}, fmt.Errorf("packages[%d]: invalid name %q", i, p.Name)
		}
		if _, dup := seen[p.Name]; dup {
			return Manifest{}, fmt.Errorf("package %q listed twice", p.Name)
		}
		seen[p.Name] = struct{}{}
		switch p.Source {
		case "":
			p.Source = "packages"
		case "local":
			if strings.TrimSpace(p.Path) == "" {
				return Manifest{}, fmt.Errorf("package %q: local source requires path", p.Name)
			}
		case "packages":
		default:
			return Manifest{}, fmt.Errorf("package %q has unsupported source %q", p.Name, p.Source)
		}
	}
	sort.Slice(m.Packages, func(i, j int) bool { return m.Packages[i].Name < m.Packages[j].Name })
	return m, nil
}

// Package returns the manifest entry for name.
func (m Manifest) Package(name string) (ManifestPackage, bool) {
	for _, p := range m.Packages {
		if p.Name == name {
			return p, true
		}
	}
	return ManifestPackage{}, false
}
