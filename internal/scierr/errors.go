// Package scierr defines the error kinds the rest of scicore uses to
// report failures: IO errors from the underlying filesystem, InvalidData
// errors carrying a nested format-scope trail, resource id Conflicts,
// directory lock failures, an unrecoverable CommitCorrupt state, and
// numeric/tag Conversion errors.
package scierr

import (
	"fmt"

	"golang.org/x/xerrors"
)

// ConversionError reports a numeric or tag value outside the range a
// conversion understands (e.g. an unknown ResourceType byte).
type ConversionError struct {
	Kind  string // e.g. "ResourceType", "file extension"
	Value interface{}
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Kind, e.Value)
}

// NewConversionError builds a ConversionError for a bad value of the
// given kind.
func NewConversionError(kind string, value interface{}) error {
	return &ConversionError{Kind: kind, Value: value}
}

// ConflictError reports a duplicate ResourceId encountered while merging
// or reading patch resources. It is unrecoverable at the call site.
type ConflictError struct {
	Description string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Description
}

// NewConflictError builds a ConflictError with a formatted description.
func NewConflictError(format string, args ...interface{}) error {
	return &ConflictError{Description: fmt.Sprintf(format, args...)}
}

// CommitCorruptError reports that atomic-directory recovery found a
// state with neither the destination nor the staged temp directory
// present, or an unreadable commit record — a state recovery cannot
// resolve on its own.
type CommitCorruptError struct {
	Description string
	Cause       error
}

func (e *CommitCorruptError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("commit record unrecoverable: %s: %v", e.Description, e.Cause)
	}
	return "commit record unrecoverable: " + e.Description
}

func (e *CommitCorruptError) Unwrap() error { return e.Cause }

// NewCommitCorruptError builds a CommitCorruptError.
func NewCommitCorruptError(description string, cause error) error {
	return &CommitCorruptError{Description: description, Cause: cause}
}

// LockContendedError reports that a DirLock is not held in the mode an
// operation needs (a whole-directory swap begun under a Shared lock).
type LockContendedError struct {
	Path string
}

func (e *LockContendedError) Error() string {
	return fmt.Sprintf("lock contended: %s", e.Path)
}

// NewLockContendedError builds a LockContendedError for path.
func NewLockContendedError(path string) error {
	return &LockContendedError{Path: path}
}

// LockPoisonedError reports that a DirLock's in-process registry entry
// disappeared while an Upgrade or Downgrade was waiting on it.
type LockPoisonedError struct {
	Path string
}

func (e *LockPoisonedError) Error() string {
	return fmt.Sprintf("lock poisoned: %s", e.Path)
}

// NewLockPoisonedError builds a LockPoisonedError for path.
func NewLockPoisonedError(path string) error {
	return &LockPoisonedError{Path: path}
}

// Wrap wraps err with a %w-chained message, using xerrors so the
// resulting error carries a stack frame at the call site.
func Wrap(format string, err error) error {
	if err == nil {
		return nil
	}
	return xerrors.Errorf(format+": %w", err)
}
