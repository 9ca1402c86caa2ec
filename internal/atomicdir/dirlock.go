// Package atomicdir implements the Atomic Directory Writer: a
// sibling-sentinel advisory DirLock, an atomic single-file write
// primitive, and a whole-directory atomic swap with crash recovery.
package atomicdir

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/opensierra/scicore/internal/scierr"
)

// LockMode is the mode a DirLock is held in.
type LockMode int

const (
	Shared LockMode = iota
	Exclusive
)

func (m LockMode) String() string {
	if m == Exclusive {
		return "exclusive"
	}
	return "shared"
}

// lockKey identifies a sentinel file by device/inode rather than by
// path string, so the registry stays correct across symlinks and
// path aliasing: the lock is per file identity, process-wide.
type lockKey struct {
	dev, ino uint64
}

// entryState is the in-process state of one held-or-pending lock.
type entryState struct {
	pending  bool // a goroutine has promised to take/change the OS lock
	mode     LockMode
	refCount int // number of in-process Shared holders; unused for Exclusive
	fd       int // the fd the OS lock is held on; valid once !pending
}

// registry is the process-wide directory-lock registry: a single
// mutex guards the entry map, extended with a Cond because acquires
// must block without holding the mutex across the OS flock call.
var registry = struct {
	mu      sync.Mutex
	cv      *sync.Cond
	entries map[lockKey]*entryState
}{entries: map[lockKey]*entryState{}}

func init() {
	registry.cv = sync.NewCond(&registry.mu)
}

// DirLock is a held advisory lock on a directory's sentinel file.
// The zero value is not usable; obtain one via OpenShared or
// OpenExclusive.
type DirLock struct {
	path string
	key  lockKey
	mode LockMode
}

// Path returns the sentinel file path this lock was opened on (not the
// managed directory's path).
func (l *DirLock) Path() string { return l.path }

// Mode reports whether this handle currently holds the lock Shared or
// Exclusive.
func (l *DirLock) Mode() LockMode { return l.mode }

// OpenShared opens (creating if needed) the sentinel file at
// sentinelPath and returns a DirLock holding a Shared advisory lock,
// blocking until it can be acquired.
func OpenShared(sentinelPath string) (*DirLock, error) {
	return open(sentinelPath, Shared)
}

// OpenExclusive opens (creating if needed) the sentinel file at
// sentinelPath and returns a DirLock holding an Exclusive advisory
// lock, blocking until it can be acquired.
func OpenExclusive(sentinelPath string) (*DirLock, error) {
	return open(sentinelPath, Exclusive)
}

func open(sentinelPath string, mode LockMode) (*DirLock, error) {
	fd, err := unix.Open(sentinelPath, unix.O_RDWR|unix.O_CREAT|unix.O_CLOEXEC, 0o644)
	if err != nil {
		return nil, scierr.Wrap(fmt.Sprintf("open sentinel %s", sentinelPath), err)
	}

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		unix.Close(fd)
		return nil, scierr.Wrap("stat sentinel", err)
	}
	key := lockKey{dev: uint64(stat.Dev), ino: stat.Ino}

	registry.mu.Lock()
	for {
		st, ok := registry.entries[key]
		if !ok {
			// Nobody holds or is acquiring this lock in-process; claim
			// the pending intent so other goroutines wait on the CV
			// instead of racing the OS flock call themselves.
			st = &entryState{pending: true, mode: mode}
			registry.entries[key] = st
			registry.mu.Unlock()

			flockOp := unix.LOCK_SH
			if mode == Exclusive {
				flockOp = unix.LOCK_EX
			}
			flockErr := unix.Flock(fd, flockOp)

			registry.mu.Lock()
			if flockErr != nil {
				delete(registry.entries, key)
				registry.mu.Unlock()
				registry.cv.Broadcast()
				unix.Close(fd)
				return nil, scierr.Wrap("flock sentinel", flockErr)
			}
			st.pending = false
			st.fd = fd
			st.refCount = 1
			registry.mu.Unlock()
			registry.cv.Broadcast()
			return &DirLock{path: sentinelPath, key: key, mode: mode}, nil
		}

		if st.pending {
			registry.cv.Wait()
			continue
		}
		if st.mode == Shared && mode == Shared {
			st.refCount++
			registry.mu.Unlock()
			// This handle rides on the registry's existing OS lock; its
			// own fd is redundant and closed immediately. The fd that
			// actually holds the flock stays in the registry until the
			// last in-process holder closes.
			unix.Close(fd)
			return &DirLock{path: sentinelPath, key: key, mode: Shared}, nil
		}
		// Incompatible mode already held in-process (Exclusive held by
		// anyone, or Shared held while we want Exclusive): wait for it
		// to clear.
		registry.cv.Wait()
	}
}

// Close releases this handle's hold on the lock. When the last
// in-process Shared reference (or the sole Exclusive holder) goes
// away, the OS-level flock is released and the sentinel fd closed.
func (l *DirLock) Close() error {
	registry.mu.Lock()
	st, ok := registry.entries[l.key]
	if !ok {
		registry.mu.Unlock()
		return fmt.Errorf("atomicdir: Close on a lock not held: %s", l.path)
	}

	var unlockFD int
	release := false
	if st.mode == Shared {
		st.refCount--
		if st.refCount == 0 {
			release = true
			unlockFD = st.fd
			delete(registry.entries, l.key)
		}
	} else {
		release = true
		unlockFD = st.fd
		delete(registry.entries, l.key)
	}
	registry.mu.Unlock()
	registry.cv.Broadcast()

	if release {
		unix.Flock(unlockFD, unix.LOCK_UN)
		unix.Close(unlockFD)
	}
	return nil
}

// Upgrade promotes this handle's lock from Shared to Exclusive. It may
// momentarily release and reacquire the lock; the caller must
// re-verify any invariant that could have changed while unlocked (in
// particular, another process's recovery may have run).
func (l *DirLock) Upgrade() error {
	if l.mode == Exclusive {
		return nil
	}

	registry.mu.Lock()
	st, ok := registry.entries[l.key]
	if !ok {
		registry.mu.Unlock()
		return fmt.Errorf("atomicdir: Upgrade on a lock not held: %s", l.path)
	}
	// Wait until this handle is the only in-process Shared holder and no
	// other goroutine has already claimed the pending intent on this
	// key: the OS can only grant an exclusive flock once every
	// in-process shared reference has released its interest, and only
	// one goroutine may hold the fd across the blocking flock call.
	for st.pending || st.refCount > 1 {
		registry.cv.Wait()
		st, ok = registry.entries[l.key]
		if !ok {
			registry.mu.Unlock()
			return scierr.NewLockPoisonedError(l.path)
		}
	}
	st.pending = true
	fd := st.fd
	registry.mu.Unlock()

	err := unix.Flock(fd, unix.LOCK_EX)

	registry.mu.Lock()
	st.pending = false
	if err == nil {
		st.mode = Exclusive
	}
	registry.mu.Unlock()
	registry.cv.Broadcast()

	if err != nil {
		return scierr.Wrap("upgrade flock", err)
	}
	l.mode = Exclusive
	return nil
}

// Downgrade demotes this handle's lock from Exclusive back to Shared.
func (l *DirLock) Downgrade() error {
	if l.mode == Shared {
		return nil
	}

	registry.mu.Lock()
	st, ok := registry.entries[l.key]
	if !ok {
		registry.mu.Unlock()
		return fmt.Errorf("atomicdir: Downgrade on a lock not held: %s", l.path)
	}
	for st.pending {
		registry.cv.Wait()
		st, ok = registry.entries[l.key]
		if !ok {
			registry.mu.Unlock()
			return scierr.NewLockPoisonedError(l.path)
		}
	}
	st.pending = true
	fd := st.fd
	registry.mu.Unlock()

	err := unix.Flock(fd, unix.LOCK_SH)

	registry.mu.Lock()
	st.pending = false
	if err == nil {
		st.mode = Shared
		st.refCount = 1
	}
	registry.mu.Unlock()
	registry.cv.Broadcast()

	if err != nil {
		return scierr.Wrap("downgrade flock", err)
	}
	l.mode = Shared
	return nil
}
