package buildlock

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surgelsp/internal/project"
)

// hammer runs n workers that each take the lock from their own locker and
// reports the highest number of simultaneous holders observed.
func hammer(t *testing.T, n int, newLocker func() Locker) int32 {
	t.Helper()
	var active, peak atomic.Int32
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			guard, err := newLocker().LockForBuild()
			if !assert.NoError(t, err) {
				return
			}
			defer guard.Unlock()
			cur := active.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			active.Add(-1)
		}()
	}
	wg.Wait()
	return peak.Load()
}

func TestFileLockerSerializes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build", "lsp", "vm", "surge-compile.lock")
	peak := hammer(t, 8, func() Locker { return &FileLocker{Path: path} })
	assert.Equal(t, int32(1), peak)
	assert.FileExists(t, path)
}

func TestMemoryLockerSerializesSameKey(t *testing.T) {
	key := t.Name()
	peak := hammer(t, 8, func() Locker { return NewMemoryLocker(key) })
	assert.Equal(t, int32(1), peak)
}

func TestMemoryLockerIndependentKeys(t *testing.T) {
	a, err := NewMemoryLocker(t.Name() + "/a").LockForBuild()
	require.NoError(t, err)
	defer a.Unlock()

	done := make(chan struct{})
	go func() {
		b, err := NewMemoryLocker(t.Name() + "/b").LockForBuild()
		if err == nil {
			b.Unlock()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestUnlockIsIdempotent(t *testing.T) {
	l := NewFileLocker(project.NewPaths(t.TempDir()), project.ModeLSP, project.TargetVM)
	g, err := l.LockForBuild()
	require.NoError(t, err)
	g.Unlock()
	g.Unlock()

	g2, err := l.LockForBuild()
	require.NoError(t, err)
	g2.Unlock()
}

func TestNopLocker(t *testing.T) {
	var l NopLocker
	g1, err := l.LockForBuild()
	require.NoError(t, err)
	g2, err := l.LockForBuild()
	require.NoError(t, err)
	g1.Unlock()
	g2.Unlock()
}
