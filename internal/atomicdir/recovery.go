package atomicdir

import (
	"os"
	"path/filepath"

	"github.com/opensierra/scicore/internal/scierr"
)

// needsRecovery reports whether dir has a commit record pending,
// without otherwise touching the directory.
func needsRecovery(dir string) (bool, error) {
	_, err := os.Stat(commitPath(dir))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, scierr.Wrap("stat commit record", err)
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, scierr.Wrap("stat "+path, err)
}

// recoverExclusive runs the idempotent recovery algorithm
// against dir. The caller must hold dir's DirLock Exclusive.
func recoverExclusive(dir string) error {
	rec, err := readCommitRecord(dir)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}

	parent := filepath.Dir(dir)
	tempPath := filepath.Join(parent, rec.TempDir)
	oldPath := filepath.Join(parent, rec.OldDir)

	targetExists, err := exists(dir)
	if err != nil {
		return err
	}
	tempExists, err := exists(tempPath)
	if err != nil {
		return err
	}
	oldExists, err := exists(oldPath)
	if err != nil {
		return err
	}

	if !targetExists && !tempExists {
		return scierr.NewCommitCorruptError("neither the target nor the staged directory exists", nil)
	}

	// Step: move the target out of the way so temp can take its place.
	if tempExists && targetExists {
		for {
			err := os.Rename(dir, oldPath)
			switch {
			case err == nil:
				targetExists, oldExists = false, true
			case os.IsNotExist(err):
				return scierr.NewCommitCorruptError("target directory disappeared mid-recovery", err)
			case os.IsExist(err):
				rec.OldDir = filepath.Base(dir) + oldPrefix + randSuffix()
				if err := writeCommitRecord(dir, rec); err != nil {
					return err
				}
				oldPath = filepath.Join(parent, rec.OldDir)
				continue
			default:
				return scierr.Wrap("move target aside", err)
			}
			break
		}
	}

	// Step: promote the staged content to the target location.
	if tempExists && !targetExists {
		if err := os.Rename(tempPath, dir); err != nil {
			return scierr.Wrap("promote staged directory", err)
		}
		tempExists, targetExists = false, true
	}

	// Step: the swap is complete; discard the superseded content.
	if !tempExists && targetExists && oldExists {
		if err := os.RemoveAll(oldPath); err != nil {
			return scierr.Wrap("remove superseded directory", err)
		}
	}

	return removeCommitRecord(dir)
}

// recoverUnderLock runs recovery for dir, taking whatever steps
// lock.Mode() requires. Under a Shared lock it loops
// check-needed -> upgrade -> recover -> downgrade -> re-check, since
// downgrading can race a fresh commit into existence.
func recoverUnderLock(dir string, lock *DirLock) error {
	if lock.Mode() == Exclusive {
		return recoverExclusive(dir)
	}
	for {
		needed, err := needsRecovery(dir)
		if err != nil {
			return err
		}
		if !needed {
			return nil
		}
		if err := lock.Upgrade(); err != nil {
			return err
		}
		recErr := recoverExclusive(dir)
		if downErr := lock.Downgrade(); downErr != nil && recErr == nil {
			recErr = downErr
		}
		if recErr != nil {
			return recErr
		}
	}
}
