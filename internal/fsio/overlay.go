package fsio

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// Overlay serves unsaved editor buffers on top of another IO. Reads of an
// overlaid path return the buffer; everything else goes to the base.
type Overlay struct {
	base IO

	mu    sync.RWMutex
	files map[string][]byte
}

// NewOverlay wraps base.
func NewOverlay(base IO) *Overlay {
	return &Overlay{base: base, files: make(map[string][]byte)}
}

func overlayKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Set replaces the buffer for path.
func (o *Overlay) Set(path string, content []byte) {
	buf := make([]byte, len(content))
	copy(buf, content)
	o.mu.Lock()
	o.files[overlayKey(path)] = buf
	o.mu.Unlock()
}

// Delete drops the buffer for path so reads fall back to disk.
func (o *Overlay) Delete(path string) {
	o.mu.Lock()
	delete(o.files, overlayKey(path))
	o.mu.Unlock()
}

// Get returns the buffer for path, if any.
func (o *Overlay) Get(path string) ([]byte, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	b, ok := o.files[overlayKey(path)]
	return b, ok
}

func (o *Overlay) ReadFile(path string) ([]byte, error) {
	if b, ok := o.Get(path); ok {
		out := make([]byte, len(b))
		copy(out, b)
		return out, nil
	}
	return o.base.ReadFile(path)
}

func (o *Overlay) Exists(path string) bool {
	if _, ok := o.Get(path); ok {
		return true
	}
	return o.base.Exists(path)
}

// GlobSources adds buffers of files not yet saved to disk.
func (o *Overlay) GlobSources(dir, pattern string) ([]string, error) {
	found, err := o.base.GlobSources(dir, pattern)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(found))
	for _, f := range found {
		seen[overlayKey(f)] = struct{}{}
	}
	root := overlayKey(dir)

	o.mu.RLock()
	for path := range o.files {
		if _, ok := seen[path]; ok {
			continue
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		if ok, _ := doublestar.Match(pattern, filepath.ToSlash(rel)); ok {
			found = append(found, path)
		}
	}
	o.mu.RUnlock()

	sort.Strings(found)
	return found, nil
}

func (o *Overlay) WriteFile(path string, data []byte) error { return o.base.WriteFile(path, data) }
func (o *Overlay) MkdirAll(path string) error               { return o.base.MkdirAll(path) }
func (o *Overlay) DeleteDirectory(path string) error        { return o.base.DeleteDirectory(path) }
func (o *Overlay) Exec(cmd Command) error                   { return o.base.Exec(cmd) }

func (o *Overlay) ClearDirectory(dir string, keep ...string) error {
	return o.base.ClearDirectory(dir, keep...)
}
