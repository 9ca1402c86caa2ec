package atomicdir

import (
	"os"
	"path/filepath"

	"github.com/opensierra/scicore/internal/scierr"
)

// lockSentinelSuffix is the well-known sibling suffix for a managed
// directory's lock sentinel file.
const lockSentinelSuffix = ".lock"

// Dir is a directory managed as a transactional unit: a
// committed write is visible in its entirety or not at all, and a
// crash mid-commit is recovered the next time the directory is opened
// under its lock.
type Dir struct {
	path string
	lock *DirLock
}

// Open acquires dir's lock in the given mode, running crash recovery
// before returning. The sentinel sibling file is created if it
// does not already exist.
func Open(dir string, mode LockMode) (*Dir, error) {
	sentinel := dir + lockSentinelSuffix
	var lock *DirLock
	var err error
	if mode == Exclusive {
		lock, err = OpenExclusive(sentinel)
	} else {
		lock, err = OpenShared(sentinel)
	}
	if err != nil {
		return nil, err
	}

	if err := recoverUnderLock(dir, lock); err != nil {
		lock.Close()
		return nil, err
	}
	return &Dir{path: dir, lock: lock}, nil
}

// Path returns the managed directory's path.
func (d *Dir) Path() string { return d.path }

// Lock returns the DirLock this Dir is holding.
func (d *Dir) Lock() *DirLock { return d.lock }

// Close releases the directory's lock.
func (d *Dir) Close() error { return d.lock.Close() }

// WriteFile atomically writes data to a path relative to the managed
// directory, after validating it via NormalizePath.
func (d *Dir) WriteFile(relPath string, data []byte, mode WriteMode) error {
	normalized, err := NormalizePath(filepath.Base(d.path), relPath)
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(d.path, normalized), data, mode)
}

// ReadFile reads a path relative to the managed directory.
func (d *Dir) ReadFile(relPath string) ([]byte, error) {
	normalized, err := NormalizePath(filepath.Base(d.path), relPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(d.path, normalized))
	if err != nil {
		return nil, scierr.Wrap("read file", err)
	}
	return data, nil
}

// BeginSwap starts a whole-directory atomic swap. d's lock
// must be held Exclusive; upgrade it first if it is currently Shared.
func (d *Dir) BeginSwap() (*StagingSwap, error) {
	return beginSwap(d.path, d.lock)
}
