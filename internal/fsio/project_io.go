package fsio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// ProjectIO is the os-backed IO. Source discovery skips paths ignored by the
// .gitignore at Root.
type ProjectIO struct {
	Root string
	// Stdout receives subprocess output for StdioInherit; nil means os.Stdout.
	Stdout io.Writer

	ignoreOnce sync.Once
	gitignore  *ignore.GitIgnore
}

// NewProjectIO returns an IO for the project at root.
func NewProjectIO(root string) *ProjectIO {
	return &ProjectIO{Root: root}
}

func (p *ProjectIO) ReadFile(path string) ([]byte, error) {
	// #nosec G304 -- paths come from the project layout
	return os.ReadFile(path)
}

func (p *ProjectIO) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (p *ProjectIO) WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (p *ProjectIO) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (p *ProjectIO) DeleteDirectory(path string) error {
	if err := os.RemoveAll(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

func (p *ProjectIO) ClearDirectory(dir string, keep ...string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("clear %s: %w", dir, err)
	}
	for _, e := range entries {
		if slices.Contains(keep, e.Name()) {
			continue
		}
		if err := p.DeleteDirectory(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (p *ProjectIO) ignored(path string) bool {
	p.ignoreOnce.Do(func() {
		if p.Root == "" {
			return
		}
		gi, err := ignore.CompileIgnoreFile(filepath.Join(p.Root, ".gitignore"))
		if err == nil {
			p.gitignore = gi
		}
	})
	if p.gitignore == nil {
		return false
	}
	rel, err := filepath.Rel(p.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	return p.gitignore.MatchesPath(filepath.ToSlash(rel))
}

func (p *ProjectIO) GlobSources(dir, pattern string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %s in %s: %w", pattern, dir, err)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		full := filepath.Join(dir, filepath.FromSlash(m))
		if p.ignored(full) {
			continue
		}
		out = append(out, full)
	}
	sort.Strings(out)
	return out, nil
}

func (p *ProjectIO) Exec(c Command) error {
	cmd := exec.Command(c.Name, c.Args...) // #nosec G204 -- hooks are declared by the project
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	switch c.Stdio {
	case StdioNull:
		cmd.Stdout = io.Discard
	default:
		cmd.Stdout = p.Stdout
		if cmd.Stdout == nil {
			cmd.Stdout = os.Stdout
		}
	}
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("%s: %w", c.Name, err)
		}
		return fmt.Errorf("%s: %s: %w", c.Name, msg, err)
	}
	return nil
}
