package lsp

import (
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"surgelsp/internal/build"
	"surgelsp/internal/buildlock"
	"surgelsp/internal/diag"
	"surgelsp/internal/fsio"
	"surgelsp/internal/project"
	"surgelsp/internal/source"
	"surgelsp/internal/trace"
	"surgelsp/internal/types"
)

// ModuleSourceInformation locates a compiled module's source text.
type ModuleSourceInformation struct {
	// Path is the module's input path relative to the project root.
	Path        string
	LineNumbers *source.LineIndex
}

// Compiler keeps the language server's view of a project current. Each
// Compile recompiles what changed and, when the root package compiles,
// replaces the snapshot entries of every module it produced.
//
// Compile must not be called concurrently on one Compiler. The lookup
// methods may be called at any time; they see either the state before or
// after a successful Compile, never a mix.
type Compiler struct {
	project  *build.ProjectCompiler
	warnings *diag.Sink
	locker   buildlock.Locker
	logger   *log.Logger

	mu      sync.RWMutex
	modules map[string]build.Module
	sources map[string]ModuleSourceInformation
}

type compilerConfig struct {
	logger   *log.Logger
	frontend build.Frontend
	version  string
	jobs     int
}

// CompilerOption customizes NewCompiler.
type CompilerOption func(*compilerConfig)

// WithLogger sets the logger used by the compiler and its project compiler.
func WithLogger(l *log.Logger) CompilerOption {
	return func(c *compilerConfig) { c.logger = l }
}

// WithFrontend replaces the built-in frontend.
func WithFrontend(f build.Frontend) CompilerOption {
	return func(c *compilerConfig) { c.frontend = f }
}

// WithVersion overrides the compiler version recorded in the build
// directory.
func WithVersion(v string) CompilerOption {
	return func(c *compilerConfig) { c.version = v }
}

// WithJobs limits parallel parsing.
func WithJobs(n int) CompilerOption {
	return func(c *compilerConfig) { c.jobs = n }
}

// NewCompiler prepares a compiler for the project. The root package's
// language server build directory is removed first, under the build lock,
// so nothing from an earlier session is trusted.
func NewCompiler(
	manifest project.Manifest,
	config project.PackageConfig,
	paths project.Paths,
	io fsio.IO,
	locker buildlock.Locker,
	opts ...CompilerOption,
) (*Compiler, error) {
	var cfg compilerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := trace.OrDiscard(cfg.logger)

	if err := invalidateRootBuild(config, paths, io, locker); err != nil {
		return nil, err
	}

	warnings := diag.NewSink()
	options := build.Options{
		WarningsAsErrors:  false,
		Mode:              project.ModeLSP,
		Target:            nil,
		Codegen:           build.CodegenNone,
		RootTargetSupport: build.TargetSupportEnforced,
	}
	pc := build.New(config, options, manifest, build.NullTelemetry{}, warnings, paths, io)
	pc.SubprocessStdio = fsio.StdioNull
	pc.Logger = logger
	if cfg.frontend != nil {
		pc.Frontend = cfg.frontend
	}
	if cfg.version != "" {
		pc.Version = cfg.version
	}
	pc.Jobs = cfg.jobs

	return &Compiler{
		project:  pc,
		warnings: warnings,
		locker:   locker,
		logger:   logger,
		modules:  make(map[string]build.Module),
		sources:  make(map[string]ModuleSourceInformation),
	}, nil
}

func invalidateRootBuild(config project.PackageConfig, paths project.Paths, io fsio.IO, locker buildlock.Locker) error {
	guard, err := locker.LockForBuild()
	if err != nil {
		return fmt.Errorf("lock build directory: %w", err)
	}
	defer guard.Unlock()
	dir := paths.BuildDirectoryForPackage(project.ModeLSP, config.Target, config.Name)
	if err := io.DeleteDirectory(dir); err != nil {
		return fmt.Errorf("remove %s: %w", dir, err)
	}
	return nil
}

// Compile brings the project up to date and returns the input paths of the
// modules compiled by this call: dependencies first, then the root package.
// On error the snapshot is left as it was.
func (c *Compiler) Compile() ([]string, error) {
	guard, err := c.locker.LockForBuild()
	if err != nil {
		return nil, fmt.Errorf("lock build directory: %w", err)
	}
	defer guard.Unlock()

	started := time.Now()
	c.logger.Debug("compile started", "package", c.project.Config.Name)

	if err := c.project.CheckVersion(); err != nil {
		return nil, err
	}
	deps, err := c.project.CompileDependencies()
	if err != nil {
		c.logger.Debug("dependencies failed", "err", err)
		return nil, err
	}
	// предупреждения зависимостей пользователю не показываем
	if dropped := c.warnings.Take(); len(dropped) > 0 {
		c.logger.Debug("dependency warnings discarded", "count", len(dropped))
	}
	pkg, err := c.project.CompileRootPackage()
	if err != nil {
		c.logger.Debug("root package failed", "err", err)
		return nil, err
	}

	compiled := make([]build.Module, 0, len(deps)+len(pkg.Modules))
	compiled = append(compiled, deps...)
	compiled = append(compiled, pkg.Modules...)

	paths := make([]string, len(compiled))
	infos := make([]ModuleSourceInformation, len(compiled))
	for i, m := range compiled {
		paths[i] = m.InputPath
		infos[i] = ModuleSourceInformation{
			Path:        m.InputPath,
			LineNumbers: source.NewLineIndexString(m.Code),
		}
	}

	c.mu.Lock()
	for i, m := range compiled {
		c.modules[m.Name] = m
		c.sources[m.Name] = infos[i]
	}
	total := len(c.modules)
	c.mu.Unlock()

	c.logger.Debug("compile finished",
		"dependencies", len(deps),
		"root", len(pkg.Modules),
		"known", total,
		"elapsed", time.Since(started).Round(time.Microsecond),
	)
	return paths, nil
}

// GetModuleInterface returns the interface of an importable module:
// any dependency module, or a root module from the last successful compile.
func (c *Compiler) GetModuleInterface(name string) (*types.ModuleInterface, bool) {
	return c.project.ImportableModule(name)
}

// TakeWarnings returns the warnings raised since the previous call and
// forgets them.
func (c *Compiler) TakeWarnings() []diag.Diagnostic {
	return c.warnings.Take()
}

// GetSource returns where a compiled module's source lives and its line
// index.
func (c *Compiler) GetSource(name string) (ModuleSourceInformation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.sources[name]
	return info, ok
}

// GetModule returns a compiled module by name.
func (c *Compiler) GetModule(name string) (build.Module, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.modules[name]
	return m, ok
}

// ModuleForPath finds the compiled module whose input path is path. Both
// absolute paths and paths relative to the project root are accepted.
func (c *Compiler) ModuleForPath(path string) (build.Module, bool) {
	rel := filepath.ToSlash(path)
	if filepath.IsAbs(path) {
		rel = c.project.Paths.Rel(path)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.modules {
		if filepath.ToSlash(m.InputPath) == rel {
			return m, true
		}
	}
	return build.Module{}, false
}

// Modules returns the names of every module in the snapshot, sorted.
func (c *Compiler) Modules() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.modules))
	for name := range c.modules {
		names = append(names, name)
	}
	c.mu.RUnlock()
	slices.Sort(names)
	return names
}

// Paths returns the layout of the compiled project.
func (c *Compiler) Paths() project.Paths {
	return c.project.Paths
}

// PackageName is the name of the root package.
func (c *Compiler) PackageName() string {
	return c.project.Config.Name
}
