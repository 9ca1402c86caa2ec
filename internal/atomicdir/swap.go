package atomicdir

import (
	"math/rand"
	"os"
	"path/filepath"

	"github.com/opensierra/scicore/internal/scierr"
)

const randSuffixLen = 10

const randSuffixAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randSuffix generates the random hidden-name suffix used for staging
// and discard directories.
func randSuffix() string {
	b := make([]byte, randSuffixLen)
	for i := range b {
		b[i] = randSuffixAlphabet[rand.Intn(len(randSuffixAlphabet))]
	}
	return string(b)
}

// StagingSwap is an in-progress whole-directory atomic swap:
// content is staged under StagingRoot(), then Commit installs it as
// the directory's new contents in one atomic step (from the reader's
// point of view).
type StagingSwap struct {
	dir         string // D
	stagingRoot string // D.tmp-<rand>, full path
	lock        *DirLock
}

// beginSwap stages a fresh, empty temp directory alongside dir and
// returns a handle the caller populates before calling Commit. lock
// must hold dir's DirLock Exclusive.
func beginSwap(dir string, lock *DirLock) (*StagingSwap, error) {
	if lock.Mode() != Exclusive {
		return nil, scierr.NewLockContendedError(dir)
	}
	stagingRoot := dir + tempPrefix + randSuffix()
	if err := os.MkdirAll(stagingRoot, 0o755); err != nil {
		return nil, scierr.Wrap("stage temp directory", err)
	}
	return &StagingSwap{dir: dir, stagingRoot: stagingRoot, lock: lock}, nil
}

// StagingRoot is the directory the caller should populate with the new
// contents before calling Commit.
func (s *StagingSwap) StagingRoot() string { return s.stagingRoot }

// Commit installs the staged content as dir's new contents: write the
// commit record, then replay it via the same idempotent algorithm crash
// recovery uses, since a fresh commit record and a recovered one are
// indistinguishable once written.
func (s *StagingSwap) Commit() error {
	rec := &commitRecord{
		Version: commitVersion,
		TempDir: filepath.Base(s.stagingRoot),
		OldDir:  filepath.Base(s.dir) + oldPrefix + randSuffix(),
	}
	if err := writeCommitRecord(s.dir, rec); err != nil {
		return scierr.Wrap("write commit record", err)
	}
	return recoverExclusive(s.dir)
}

// Abandon discards a staged swap that was never committed, removing
// the staging directory.
func (s *StagingSwap) Abandon() error {
	if err := os.RemoveAll(s.stagingRoot); err != nil {
		return scierr.Wrap("remove staging directory", err)
	}
	return nil
}
