package build

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"surgelsp/internal/diag"
	"surgelsp/internal/frontend"
	"surgelsp/internal/fsio"
	"surgelsp/internal/observ"
	"surgelsp/internal/project"
	"surgelsp/internal/source"
	"surgelsp/internal/types"
)

type sourceFile struct {
	path      string // абсолютный путь
	inputPath string // относительно корня проекта
	srcDir    string
	origin    Origin
	content   []byte
}

type parsedModule struct {
	name      string
	inputPath string
	origin    Origin
	code      []byte
	file      *frontend.File
	diags     []diag.Diagnostic
}

// compilePackage compiles one package, or loads it from its cache when
// nothing it depends on changed. The root package is never loaded from the
// cache in language server mode: the server needs the source of every root
// module.
func (c *ProjectCompiler) compilePackage(cfg project.PackageConfig, pkgRoot string, isRoot bool, deps []string) (Package, error) {
	started := time.Now()
	target := c.Target()
	mode := project.ModeProd
	if isRoot {
		mode = c.Options.Mode
	}
	outDir := c.Paths.BuildDirectoryForPackage(c.Options.Mode, target, cfg.Name)
	libDir := c.Paths.BuildDirectoryForTarget(c.Options.Mode, target)
	timer := observ.NewTimer()
	fail := func(err error) (Package, error) {
		c.Telemetry.PackageFailed(cfg.Name, err)
		return Package{}, err
	}

	idx := timer.Begin("discover")
	files, err := c.sourceFiles(cfg, pkgRoot, mode)
	if err != nil {
		return fail(err)
	}
	digest := c.packageDigest(cfg, target, mode, files, deps)
	timer.End(idx, fmt.Sprintf("%d files", len(files)))

	if !isRoot || c.Options.Mode != project.ModeLSP {
		if pc, ok := c.readCache(outDir); ok && pc.Digest == digest && pc.Target == target.String() {
			ifaces := make([]*types.ModuleInterface, 0, len(pc.Modules))
			for _, m := range pc.Modules {
				ifaces = append(ifaces, m.Interface)
			}
			c.publish(cfg.Name, digest, ifaces)
			c.Telemetry.PackageCached(cfg.Name)
			c.logger().Debug("package loaded from cache", "package", cfg.Name, "modules", len(ifaces))
			return Package{Config: cfg, Cached: true}, nil
		}
	}
	c.Telemetry.PackageCompiling(cfg.Name)

	if len(cfg.Hooks.Prepare) > 0 {
		idx = timer.Begin("prepare")
		c.Telemetry.PackagePreparing(cfg.Name)
		if err := c.runHooks(cfg, pkgRoot); err != nil {
			return fail(err)
		}
		// хуки могут генерировать исходники
		if files, err = c.sourceFiles(cfg, pkgRoot, mode); err != nil {
			return fail(err)
		}
		digest = c.packageDigest(cfg, target, mode, files, deps)
		timer.End(idx, "")
		c.Telemetry.PackageCompiling(cfg.Name)
	}

	idx = timer.Begin("parse")
	parsed, problems := c.parseAll(files)
	timer.End(idx, "")

	idx = timer.Begin("check")
	ordered, cycleDiags := moduleOrder(parsed)
	problems = append(problems, cycleDiags...)
	mods, checkDiags := c.checkAll(cfg, ordered, isRoot, target)
	problems = append(problems, checkDiags...)
	timer.End(idx, "")

	var errs []diag.Diagnostic
	for _, d := range problems {
		switch {
		case d.IsError():
			errs = append(errs, d)
		case isRoot && c.Options.WarningsAsErrors:
			d.Severity = diag.SevError
			errs = append(errs, d)
		default:
			c.Warnings.Emit(d)
		}
	}
	if len(errs) > 0 {
		diag.SortDiagnostics(errs)
		return fail(&CompileError{Package: cfg.Name, Diagnostics: errs})
	}

	ifaces := make([]*types.ModuleInterface, 0, len(mods))
	for _, m := range mods {
		m.Interface.Digest = digest.String()
		ifaces = append(ifaces, m.Interface)
	}
	idx = timer.Begin("write")
	if err := c.writeOutputs(cfg, outDir, libDir, isRoot, digest, target, mods); err != nil {
		return fail(err)
	}
	timer.End(idx, "")
	// импортировать можно только то, что полностью записано
	c.publish(cfg.Name, digest, ifaces)

	elapsed := time.Since(started)
	c.Telemetry.PackageDone(cfg.Name, elapsed)
	c.logger().Debug("package compiled", append([]any{"package", cfg.Name, "modules", len(mods)}, timer.KeyVals()...)...)
	return Package{Config: cfg, Modules: mods}, nil
}

// sourceFiles lists and reads the modules of a package: src always, test
// outside prod mode.
func (c *ProjectCompiler) sourceFiles(cfg project.PackageConfig, pkgRoot string, mode project.Mode) ([]sourceFile, error) {
	dirs := []struct {
		dir    string
		origin Origin
	}{{filepath.Join(pkgRoot, filepath.FromSlash(cfg.Src)), OriginSrc}}
	if mode != project.ModeProd {
		dirs = append(dirs, struct {
			dir    string
			origin Origin
		}{filepath.Join(pkgRoot, "test"), OriginTest})
	}
	var files []sourceFile
	for _, d := range dirs {
		found, err := c.IO.GlobSources(d.dir, "**/*"+project.SourceExt)
		if err != nil {
			return nil, fmt.Errorf("list sources of %s: %w", cfg.Name, err)
		}
		for _, path := range found {
			content, err := c.IO.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
			files = append(files, sourceFile{
				path:      path,
				inputPath: c.Paths.Rel(path),
				srcDir:    d.dir,
				origin:    d.origin,
				content:   content,
			})
		}
	}
	return files, nil
}

// packageDigest is the cache key of a package: its settings, every source
// file and the digests of the packages it depends on.
func (c *ProjectCompiler) packageDigest(cfg project.PackageConfig, target project.Target, mode project.Mode, files []sourceFile, deps []string) project.Digest {
	base := project.DigestString(fmt.Sprintf("schema=%d;compiler=%s;package=%s;target=%s;mode=%s",
		cacheSchemaVersion, c.Version, cfg.Name, target, mode))
	parts := make([]project.Digest, 0, len(files)+len(deps))
	for _, f := range files {
		parts = append(parts, project.DigestString(f.inputPath+"\x00"+string(f.content)))
	}
	sorted := append([]string(nil), deps...)
	sort.Strings(sorted)
	for _, dep := range sorted {
		parts = append(parts, c.digestOf(dep))
	}
	return project.Combine(base, parts...)
}

func (c *ProjectCompiler) runHooks(cfg project.PackageConfig, pkgRoot string) error {
	for _, argv := range cfg.Hooks.Prepare {
		c.logger().Debug("running hook", "package", cfg.Name, "cmd", argv)
		err := c.IO.Exec(fsio.Command{
			Name:  argv[0],
			Args:  argv[1:],
			Dir:   pkgRoot,
			Stdio: c.SubprocessStdio,
		})
		if err != nil {
			return fmt.Errorf("prepare hook of %s: %w", cfg.Name, err)
		}
	}
	return nil
}

// parseAll parses every file of a package in parallel. Results keep the
// order of files.
func (c *ProjectCompiler) parseAll(files []sourceFile) ([]*parsedModule, []diag.Diagnostic) {
	out := make([]*parsedModule, len(files))
	var g errgroup.Group
	g.SetLimit(c.jobs())
	for i, f := range files {
		g.Go(func() error {
			pm := &parsedModule{inputPath: f.inputPath, origin: f.origin, code: f.content}
			name, err := project.ModuleNameFromPath(f.srcDir, f.path)
			if err != nil {
				pm.diags = append(pm.diags, diag.New(diag.SevError, diag.ProjInvalidModulePath, source.Span{},
					fmt.Sprintf("%s is not a valid module path", f.inputPath)).InModule("", f.inputPath))
				out[i] = pm
				return nil
			}
			pm.name = name
			file, diags := c.Frontend.Parse(f.inputPath, f.content)
			pm.file = file
			for _, d := range diags {
				pm.diags = append(pm.diags, d.InModule(name, f.inputPath))
			}
			out[i] = pm
			return nil
		})
	}
	_ = g.Wait()

	var diags []diag.Diagnostic
	mods := make([]*parsedModule, 0, len(out))
	seen := make(map[string]*parsedModule, len(out))
	for _, pm := range out {
		diags = append(diags, pm.diags...)
		if pm.name == "" {
			continue
		}
		if prev, dup := seen[pm.name]; dup {
			diags = append(diags, diag.New(diag.SevError, diag.ProjDuplicateModule, source.Span{},
				fmt.Sprintf("module %s is defined by both %s and %s", pm.name, prev.inputPath, pm.inputPath)).InModule(pm.name, pm.inputPath))
			continue
		}
		seen[pm.name] = pm
		mods = append(mods, pm)
	}
	return mods, diags
}

// checkAll checks modules in dependency order. Interfaces of the package
// being compiled are visible to later modules before they are published.
func (c *ProjectCompiler) checkAll(cfg project.PackageConfig, ordered []*parsedModule, isRoot bool, target project.Target) ([]Module, []diag.Diagnostic) {
	staged := make(map[string]*types.ModuleInterface, len(ordered))
	resolve := func(name string) (*types.ModuleInterface, bool) {
		if m, ok := staged[name]; ok {
			return m, true
		}
		return c.ImportableModule(name)
	}
	enforce := isRoot && c.Options.RootTargetSupport == TargetSupportEnforced

	var diags []diag.Diagnostic
	mods := make([]Module, 0, len(ordered))
	for _, pm := range ordered {
		iface, checkDiags := c.Frontend.Check(pm.file, frontend.Env{
			Module:        pm.name,
			Package:       cfg.Name,
			Target:        target.String(),
			EnforceTarget: enforce,
			Resolve:       resolve,
		})
		staged[pm.name] = iface
		for _, d := range checkDiags {
			diags = append(diags, d.InModule(pm.name, pm.inputPath))
		}
		mods = append(mods, Module{
			Name:      pm.name,
			Package:   cfg.Name,
			InputPath: pm.inputPath,
			Code:      string(pm.code),
			Interface: iface,
			Origin:    pm.origin,
		})
	}
	return mods, diags
}

// writeOutputs stores the package cache, the entrypoint record of the root
// package and, when codegen is on for this package, interface artifacts.
func (c *ProjectCompiler) writeOutputs(cfg project.PackageConfig, outDir, libDir string, isRoot bool, digest project.Digest, target project.Target, mods []Module) error {
	if err := c.IO.MkdirAll(outDir); err != nil {
		return fmt.Errorf("create %s: %w", outDir, err)
	}
	pc := &packageCache{
		Package: cfg.Name,
		Target:  target.String(),
		Digest:  digest,
		Modules: make([]cachedModule, 0, len(mods)),
	}
	for _, m := range mods {
		pc.Modules = append(pc.Modules, cachedModule{Name: m.Name, InputPath: m.InputPath, Origin: m.Origin, Interface: m.Interface})
		if isRoot && m.Name == cfg.Name {
			pc.Entrypoint = m.Name
		}
	}
	if err := c.writeCache(outDir, pc); err != nil {
		return err
	}
	if !c.Options.Codegen.ShouldCodegen(isRoot) {
		return nil
	}
	if err := c.writeArtifacts(outDir, mods); err != nil {
		return err
	}
	if pc.Entrypoint != "" {
		entry := filepath.Join(libDir, cfg.Name+".entry")
		if err := c.IO.WriteFile(entry, []byte(pc.Entrypoint+"\n")); err != nil {
			return fmt.Errorf("write entrypoint: %w", err)
		}
	}
	return nil
}
