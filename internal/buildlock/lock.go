package buildlock

import (
	"sync"
)

// Locker hands out exclusive access to one build output directory.
// LockForBuild blocks until the lock is free.
type Locker interface {
	LockForBuild() (Guard, error)
}

// Guard releases a lock obtained from a Locker. Unlock is idempotent.
type Guard interface {
	Unlock()
}

// registry maps a lock key to the mutex serializing it inside this process.
type registry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (r *registry) get(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locks == nil {
		r.locks = make(map[string]*sync.Mutex)
	}
	m, ok := r.locks[key]
	if !ok {
		m = &sync.Mutex{}
		r.locks[key] = m
	}
	return m
}

var (
	fileLocks   registry
	memoryLocks registry
)

type mutexGuard struct {
	once sync.Once
	mu   *sync.Mutex
}

func (g *mutexGuard) Unlock() {
	g.once.Do(g.mu.Unlock)
}

// MemoryLocker excludes callers of this process sharing the same key.
// Two MemoryLockers built with equal keys guard the same lock.
type MemoryLocker struct {
	Key string
}

// NewMemoryLocker returns an in-process locker for key (usually the build
// directory path).
func NewMemoryLocker(key string) *MemoryLocker {
	return &MemoryLocker{Key: key}
}

func (l *MemoryLocker) LockForBuild() (Guard, error) {
	mu := memoryLocks.get(l.Key)
	mu.Lock()
	return &mutexGuard{mu: mu}, nil
}

// NopLocker performs no exclusion.
type NopLocker struct{}

type nopGuard struct{}

func (nopGuard) Unlock() {}

func (NopLocker) LockForBuild() (Guard, error) {
	return nopGuard{}, nil
}
