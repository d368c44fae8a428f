package build

import (
	"fmt"
	"maps"
	"runtime"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"surgelsp/internal/diag"
	"surgelsp/internal/fsio"
	"surgelsp/internal/project"
	"surgelsp/internal/trace"
	"surgelsp/internal/types"
	"surgelsp/internal/version"
)

// ProjectCompiler compiles the dependency packages of a project and its
// root package. Compiled interfaces stay in memory between calls, so a
// repeated compile only redoes packages whose inputs changed.
//
// Calls that compile are not safe for concurrent use; callers serialize
// them, usually with a build lock. ImportableModules may be called
// concurrently with a compile.
type ProjectCompiler struct {
	Config   project.PackageConfig
	Packages []project.ManifestPackage
	Paths    project.Paths
	Options  Options
	IO       fsio.IO
	Warnings diag.Emitter

	Telemetry Telemetry
	// SubprocessStdio is applied to every hook command.
	SubprocessStdio fsio.Stdio
	Frontend        Frontend
	Logger          *log.Logger
	// Version is written into the build directory and compared by
	// CheckVersion.
	Version string
	// Jobs limits parallel parsing; <= 0 means GOMAXPROCS.
	Jobs int

	mu         sync.RWMutex
	importable map[string]*types.ModuleInterface
	digests    map[string]project.Digest
}

// New returns a compiler for the project described by config and manifest.
func New(
	config project.PackageConfig,
	options Options,
	manifest project.Manifest,
	telemetry Telemetry,
	warnings diag.Emitter,
	paths project.Paths,
	io fsio.IO,
) *ProjectCompiler {
	if telemetry == nil {
		telemetry = NullTelemetry{}
	}
	if warnings == nil {
		warnings = diag.NullEmitter{}
	}
	return &ProjectCompiler{
		Config:          config,
		Packages:        manifest.Packages,
		Paths:           paths,
		Options:         options,
		IO:              io,
		Warnings:        warnings,
		Telemetry:       telemetry,
		SubprocessStdio: fsio.StdioInherit,
		Frontend:        BuiltinFrontend{},
		Version:         version.Number,
		importable:      make(map[string]*types.ModuleInterface),
		digests:         make(map[string]project.Digest),
	}
}

// Target is the compile target: the override from Options, otherwise the
// root package's configured target.
func (c *ProjectCompiler) Target() project.Target {
	if c.Options.Target != nil {
		return *c.Options.Target
	}
	return c.Config.Target
}

func (c *ProjectCompiler) Mode() project.Mode {
	return c.Options.Mode
}

func (c *ProjectCompiler) logger() *log.Logger {
	return trace.OrDiscard(c.Logger)
}

func (c *ProjectCompiler) jobs() int {
	if c.Jobs > 0 {
		return c.Jobs
	}
	return runtime.GOMAXPROCS(0)
}

// CheckVersion verifies that the build directory was produced by this
// compiler version. A build directory without a version file is claimed by
// writing one.
func (c *ProjectCompiler) CheckVersion() error {
	path := c.Paths.VersionFile()
	if !c.IO.Exists(path) {
		if err := c.IO.WriteFile(path, []byte(c.Version+"\n")); err != nil {
			return fmt.Errorf("write version file: %w", err)
		}
		return nil
	}
	data, err := c.IO.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read version file: %w", err)
	}
	if found := strings.TrimSpace(string(data)); found != c.Version {
		return &VersionMismatchError{Expected: c.Version, Found: found, Dir: c.Paths.BuildDirectory()}
	}
	return nil
}

// CompileDependencies compiles every manifest package in dependency order.
// Packages whose cache is still valid are loaded, not compiled, and are
// absent from the result.
func (c *ProjectCompiler) CompileDependencies() ([]Module, error) {
	order, err := packageOrder(c.Packages)
	if err != nil {
		return nil, err
	}
	for _, pkg := range order {
		c.Telemetry.PackageQueued(pkg.Name)
	}
	var compiled []Module
	for _, pkg := range order {
		root := c.Paths.PackageSourceDirectory(pkg)
		cfg, err := c.dependencyConfig(pkg, root)
		if err != nil {
			c.Telemetry.PackageFailed(pkg.Name, err)
			return nil, &PackageError{Package: pkg.Name, Err: err}
		}
		res, err := c.compilePackage(cfg, root, false, pkg.Requirements)
		if err != nil {
			return nil, &PackageError{Package: pkg.Name, Err: err}
		}
		compiled = append(compiled, res.Modules...)
	}
	return compiled, nil
}

// CompileRootPackage compiles the project's own package. Its interfaces
// become importable only if it compiles without errors.
func (c *ProjectCompiler) CompileRootPackage() (Package, error) {
	deps := make([]string, 0, len(c.Packages))
	for _, p := range c.Packages {
		deps = append(deps, p.Name)
	}
	c.Telemetry.PackageQueued(c.Config.Name)
	return c.compilePackage(c.Config, c.Paths.Root, true, deps)
}

// ImportableModules returns a copy of every interface other modules may
// import: dependencies plus the last successfully compiled root package.
func (c *ProjectCompiler) ImportableModules() map[string]*types.ModuleInterface {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.importable)
}

// ImportableModule looks up a single importable interface without copying
// the whole set.
func (c *ProjectCompiler) ImportableModule(name string) (*types.ModuleInterface, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.importable[name]
	return m, ok
}

func (c *ProjectCompiler) publish(pkg string, digest project.Digest, ifaces []*types.ModuleInterface) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range ifaces {
		c.importable[m.Name] = m
	}
	c.digests[pkg] = digest
}

func (c *ProjectCompiler) digestOf(pkg string) project.Digest {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.digests[pkg]
}

// dependencyConfig reads the surge.toml of a dependency. Packages without
// one get the default layout; a package without a source directory is an
// error.
func (c *ProjectCompiler) dependencyConfig(pkg project.ManifestPackage, root string) (project.PackageConfig, error) {
	if !c.IO.Exists(root) {
		return project.PackageConfig{}, fmt.Errorf("%w: %s", ErrPackageSourceMissing, root)
	}
	path := project.NewPaths(root).RootConfig()
	if !c.IO.Exists(path) {
		return project.DefaultPackageConfig(pkg.Name), nil
	}
	data, err := c.IO.ReadFile(path)
	if err != nil {
		return project.PackageConfig{}, fmt.Errorf("read %s: %w", path, err)
	}
	cfg, err := project.ParsePackageConfig(data)
	if err != nil {
		return project.PackageConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Name != pkg.Name {
		return project.PackageConfig{}, fmt.Errorf("%s declares package %q, manifest expects %q", path, cfg.Name, pkg.Name)
	}
	return cfg, nil
}
