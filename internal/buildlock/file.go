package buildlock

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"surgelsp/internal/project"
)

// FileLocker takes an exclusive advisory lock on a file. Other processes are
// excluded by the OS lock; goroutines of this process share a mutex keyed by
// the lock path, since an OS lock is owned per open file and would not
// exclude them.
type FileLocker struct {
	Path string
}

// NewFileLocker returns the locker for the build directory of mode/target.
func NewFileLocker(paths project.Paths, mode project.Mode, target project.Target) *FileLocker {
	return &FileLocker{Path: paths.BuildLockFile(mode, target)}
}

type fileGuard struct {
	once sync.Once
	file *os.File
	mu   *sync.Mutex
}

func (l *FileLocker) LockForBuild() (Guard, error) {
	key := filepath.Clean(l.Path)
	mu := fileLocks.get(key)
	mu.Lock()

	if err := os.MkdirAll(filepath.Dir(key), 0o755); err != nil {
		mu.Unlock()
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	// #nosec G304 -- lock path comes from project layout
	f, err := os.OpenFile(key, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		mu.Unlock()
		return nil, fmt.Errorf("open build lock %s: %w", key, err)
	}
	if err := lockFile(f); err != nil {
		_ = f.Close()
		mu.Unlock()
		return nil, fmt.Errorf("lock %s: %w", key, err)
	}
	return &fileGuard{file: f, mu: mu}, nil
}

func (g *fileGuard) Unlock() {
	g.once.Do(func() {
		_ = unlockFile(g.file)
		_ = g.file.Close()
		g.mu.Unlock()
	})
}
