package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"surgelsp/internal/build"
	"surgelsp/internal/buildlock"
	"surgelsp/internal/fsio"
	"surgelsp/internal/lsp"
	"surgelsp/internal/project"
	"surgelsp/internal/trace"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Recompile the project on every change and print diagnostics",
	Long: `Keep the project compiled the way the language server does and print
diagnostics after every change. Changes to surge.toml or manifest.toml
reload the project.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("format", "pretty", "diagnostic format (pretty|short)")
}

var skippedDirs = map[string]bool{
	".git":    true,
	"build":   true,
	".idea":   true,
	".vscode": true,
}

// watchSession owns the compiler of the watched project.
type watchSession struct {
	s        settings
	out      io.Writer
	format   string
	logger   *log.Logger
	proj     project.Project
	compiler *lsp.Compiler
	locker   buildlock.Locker
}

func runWatch(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	format, _ := cmd.Flags().GetString("format")
	ws := &watchSession{s: s, out: os.Stderr, format: strings.ToLower(format), logger: trace.FromContext(ctx)}
	if err := ws.reload(); err != nil {
		return err
	}
	if _, err := ws.printer(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()
	for _, dir := range ws.watchRoots() {
		if err := addWatchDirs(watcher, dir); err != nil {
			return fmt.Errorf("failed to watch directories: %w", err)
		}
	}

	ws.compile()
	return ws.loop(ctx, watcher)
}

func (ws *watchSession) loop(ctx context.Context, watcher *fsnotify.Watcher) error {
	var (
		debounceTimer *time.Timer
		fire          <-chan time.Time
		reload        bool
	)
	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				addIfDirectory(watcher, event.Name)
			}
			relevant, config := classifyChange(event)
			if !relevant {
				continue
			}
			reload = reload || config
			if debounceTimer == nil {
				debounceTimer = time.NewTimer(ws.s.Debounce)
			} else {
				debounceTimer.Reset(ws.s.Debounce)
			}
			fire = debounceTimer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			ws.logger.Warn("watcher error", "err", err)

		case <-fire:
			fire = nil
			if reload {
				reload = false
				if err := ws.reload(); err != nil {
					fmt.Fprintf(ws.out, "reload failed: %v\n", err)
					continue
				}
				for _, dir := range ws.watchRoots() {
					addIfDirectory(watcher, dir)
				}
			}
			ws.compile()
		}
	}
}

// reload reads the project configuration again and starts over with a new
// compiler.
func (ws *watchSession) reload() error {
	proj, err := ws.s.openProject()
	if err != nil {
		return err
	}
	locker := buildlock.NewFileLocker(proj.Paths, project.ModeLSP, proj.Config.Target)
	compiler, err := lsp.NewCompiler(proj.Manifest, proj.Config, proj.Paths, fsio.NewProjectIO(proj.Paths.Root), locker, lsp.WithLogger(ws.logger))
	if err != nil {
		return err
	}
	ws.proj, ws.compiler, ws.locker = proj, compiler, locker
	ws.logger.Info("project loaded", "root", proj.Paths.Root, "package", proj.Config.Name)
	return nil
}

// watchRoots are the project itself plus local dependencies living
// elsewhere.
func (ws *watchSession) watchRoots() []string {
	roots := []string{ws.proj.Paths.Root}
	for _, pkg := range ws.proj.Manifest.Packages {
		dir := ws.proj.Paths.PackageSourceDirectory(pkg)
		if rel, err := filepath.Rel(ws.proj.Paths.Root, dir); err == nil && filepath.IsLocal(rel) {
			continue
		}
		roots = append(roots, dir)
	}
	return roots
}

func (ws *watchSession) compile() {
	start := time.Now()
	_, err := ws.compiler.Compile()
	if errors.Is(err, build.ErrVersionMismatch) {
		ws.logger.Info("build directory belongs to another compiler version, rebuilding")
		if err = ws.resetBuildDirectory(); err == nil {
			_, err = ws.compiler.Compile()
		}
	}
	warnings := ws.compiler.TakeWarnings()
	printer, _ := ws.printer()

	if perr := printer.print(warnings); perr != nil {
		ws.logger.Warn("failed to print diagnostics", "err", perr)
	}
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		if diags, ok := compileDiagnostics(err); ok && len(diags) > 0 {
			if perr := printer.print(diags); perr != nil {
				ws.logger.Warn("failed to print diagnostics", "err", perr)
			}
			fmt.Fprintf(ws.out, "%s: %d error(s), %d warning(s) in %s\n", ws.proj.Config.Name, len(diags), len(warnings), elapsed)
			return
		}
		fmt.Fprintf(ws.out, "%s: %v\n", ws.proj.Config.Name, err)
		return
	}
	fmt.Fprintf(ws.out, "%s: ok, %d warning(s) in %s\n", ws.proj.Config.Name, len(warnings), elapsed)
}

func (ws *watchSession) printer() (diagnosticPrinter, error) {
	return newDiagnosticPrinter(ws.out, ws.proj.Paths.Root, ws.format, ws.s.useColor(os.Stderr))
}

func (ws *watchSession) resetBuildDirectory() error {
	guard, err := ws.locker.LockForBuild()
	if err != nil {
		return fmt.Errorf("lock build directory: %w", err)
	}
	defer guard.Unlock()
	return build.ResetBuildDirectory(fsio.NewProjectIO(ws.proj.Paths.Root), ws.proj.Paths)
}

// classifyChange reports whether an event can change the compile result and
// whether it touched project configuration.
func classifyChange(event fsnotify.Event) (relevant, config bool) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false, false
	}
	switch filepath.Base(event.Name) {
	case project.ConfigFileName, project.ManifestFileName:
		return true, true
	}
	return filepath.Ext(event.Name) == ".sg", false
}

func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

func addIfDirectory(watcher *fsnotify.Watcher, path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.IsDir() {
		_ = addWatchDirs(watcher, path)
	}
}
