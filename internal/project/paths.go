package project

import (
	"path/filepath"
	"strings"
)

// Paths describes the on-disk layout of a project rooted at Root.
type Paths struct {
	Root string
}

// NewPaths returns the layout for the project at root.
func NewPaths(root string) Paths {
	return Paths{Root: root}
}

func (p Paths) RootConfig() string {
	return filepath.Join(p.Root, ConfigFileName)
}

func (p Paths) ManifestFile() string {
	return filepath.Join(p.Root, ManifestFileName)
}

func (p Paths) BuildDirectory() string {
	return filepath.Join(p.Root, "build")
}

// VersionFile records the compiler version that produced the build directory.
func (p Paths) VersionFile() string {
	return filepath.Join(p.BuildDirectory(), "surge-version")
}

// PackagesDirectory holds downloaded dependency sources.
func (p Paths) PackagesDirectory() string {
	return filepath.Join(p.BuildDirectory(), "packages")
}

func (p Paths) BuildDirectoryForMode(mode Mode) string {
	return filepath.Join(p.BuildDirectory(), mode.String())
}

func (p Paths) BuildDirectoryForTarget(mode Mode, target Target) string {
	return filepath.Join(p.BuildDirectoryForMode(mode), target.String())
}

// BuildDirectoryForPackage is where the incremental cache and artifacts of
// one package live for the given mode and target.
func (p Paths) BuildDirectoryForPackage(mode Mode, target Target, name string) string {
	return filepath.Join(p.BuildDirectoryForTarget(mode, target), name)
}

// BuildLockFile guards BuildDirectoryForTarget against concurrent compilers.
func (p Paths) BuildLockFile(mode Mode, target Target) string {
	return filepath.Join(p.BuildDirectoryForTarget(mode, target), "surge-compile.lock")
}

// PackageSourceDirectory returns the root directory of a resolved dependency,
// the one holding its surge.toml.
func (p Paths) PackageSourceDirectory(pkg ManifestPackage) string {
	if pkg.Source == "local" {
		if filepath.IsAbs(pkg.Path) {
			return pkg.Path
		}
		return filepath.Join(p.Root, filepath.FromSlash(pkg.Path))
	}
	return filepath.Join(p.PackagesDirectory(), pkg.Name)
}

// Rel returns path relative to the project root, slash-separated. Paths
// outside the root are returned unchanged.
func (p Paths) Rel(path string) string {
	rel, err := filepath.Rel(p.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
