package atomicdir

import (
	"os"
	"path/filepath"

	"github.com/google/renameio"

	"github.com/opensierra/scicore/internal/scierr"
)

// WriteMode selects how writeFileAtomic's final step installs the
// written temp file at its destination.
type WriteMode int

const (
	// Overwrite replaces the destination if it exists, or creates it.
	Overwrite WriteMode = iota
	// CreateNew fails if the destination already exists.
	CreateNew
)

// writeFileAtomic performs an atomic single-file write under a held
// DirLock: ensure the parent directory exists, write data to a
// randomly-named sibling temp file, flush and fsync it, then either
// atomically rename it onto path (Overwrite) or hard-link it onto path
// and unlink the temp name (CreateNew, failing if path already exists).
func writeFileAtomic(path string, data []byte, mode WriteMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return scierr.Wrap("create parent directory", err)
	}

	switch mode {
	case Overwrite:
		// TempFile + CloseAtomicallyReplace: write to a sibling temp
		// file, fsync, then rename over the destination.
		f, err := renameio.TempFile(dir, path)
		if err != nil {
			return scierr.Wrap("create temp file", err)
		}
		if _, err := f.Write(data); err != nil {
			f.Cleanup()
			return scierr.Wrap("write temp file", err)
		}
		if err := f.CloseAtomicallyReplace(); err != nil {
			return scierr.Wrap("replace destination", err)
		}
		return nil

	case CreateNew:
		tmp, err := os.CreateTemp(dir, ".atomicdir-*.tmp")
		if err != nil {
			return scierr.Wrap("create temp file", err)
		}
		tmpName := tmp.Name()
		cleanupTemp := func() { os.Remove(tmpName) }

		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			cleanupTemp()
			return scierr.Wrap("write temp file", err)
		}
		if err := tmp.Sync(); err != nil {
			tmp.Close()
			cleanupTemp()
			return scierr.Wrap("sync temp file", err)
		}
		if err := tmp.Close(); err != nil {
			cleanupTemp()
			return scierr.Wrap("close temp file", err)
		}

		if err := os.Link(tmpName, path); err != nil {
			cleanupTemp()
			return scierr.Wrap("link destination", err)
		}
		// The destination is now the intended content whether or not
		// this unlink runs to completion; a crash here just leaves a
		// stray temp name behind.
		cleanupTemp()
		return nil
	}
	panic("atomicdir: unknown WriteMode")
}
