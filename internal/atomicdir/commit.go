package atomicdir

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/opensierra/scicore/internal/scierr"
)

const (
	commitSuffix = ".commit"
	tempPrefix   = ".tmp-"
	oldPrefix    = ".old-"
)

// commitVersion is the only commit-record schema version this package
// understands.
const commitVersion = 1

// commitRecord is the on-disk JSON commit record marking a
// whole-directory swap in progress. TempDir and OldDir are
// always single-component, non-escaping relative sibling names.
type commitRecord struct {
	Version int    `json:"version"`
	TempDir string `json:"temp_dir"`
	OldDir  string `json:"old_dir"`
}

func (c *commitRecord) validate() error {
	if c.Version != commitVersion {
		return scierr.NewCommitCorruptError(fmt.Sprintf("unsupported commit schema version %d", c.Version), nil)
	}
	if err := validateSingleComponent(c.TempDir); err != nil {
		return scierr.NewCommitCorruptError("temp_dir", err)
	}
	if err := validateSingleComponent(c.OldDir); err != nil {
		return scierr.NewCommitCorruptError("old_dir", err)
	}
	return nil
}

func validateSingleComponent(name string) error {
	if name == "" {
		return fmt.Errorf("empty path")
	}
	if name != filepath.Base(name) {
		return fmt.Errorf("%q is not a single path component", name)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%q is not a valid directory name", name)
	}
	return nil
}

// commitPath returns the path of D's commit record, a sibling of D
// named D.commit.
func commitPath(dir string) string {
	return dir + commitSuffix
}

// readCommitRecord reads and validates the commit record for dir, if
// present. A missing file is not an error; it reports "no recovery
// needed" via a nil record.
func readCommitRecord(dir string) (*commitRecord, error) {
	data, err := os.ReadFile(commitPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, scierr.Wrap("read commit record", err)
	}
	var c commitRecord
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, scierr.NewCommitCorruptError("malformed commit record JSON", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// writeCommitRecord atomically (re)writes dir's commit record via the
// single-file atomic write primitive, so a crash mid-write never leaves
// a torn commit record.
func writeCommitRecord(dir string, c *commitRecord) error {
	data, err := json.Marshal(c)
	if err != nil {
		return scierr.Wrap("marshal commit record", err)
	}
	return writeFileAtomic(commitPath(dir), data, Overwrite)
}

// removeCommitRecord deletes dir's commit record, marking recovery (or
// a commit) complete.
func removeCommitRecord(dir string) error {
	if err := os.Remove(commitPath(dir)); err != nil && !os.IsNotExist(err) {
		return scierr.Wrap("remove commit record", err)
	}
	return nil
}
