package atomicdir

import (
	"fmt"
	"path"
	"strings"
)

// reservedPrefixes returns the name prefixes a write path's first
// component must not start with: the commit record name and the
// staging/discard-directory prefixes, both derived from the
// managed directory's own base name. The random suffix distinguishing
// one staging directory from the next means this is a prefix check,
// not an exact match.
func reservedPrefixes(dirName string) []string {
	return []string{
		dirName + commitSuffix,
		dirName + tempPrefix,
		dirName + oldPrefix,
	}
}

// NormalizePath validates and normalizes a write-operation path
// relative to the managed directory: it must be strictly
// relative, must not escape above the root via `..`, and must not
// collide with a reserved sibling name. `.` components are folded and
// `..` components are resolved against already-accumulated path
// components rather than passed through to the filesystem.
func NormalizePath(dirName, p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("atomicdir: empty path")
	}
	if path.IsAbs(p) {
		return "", fmt.Errorf("atomicdir: path must be relative: %s", p)
	}

	var components []string
	for _, part := range strings.Split(p, "/") {
		switch part {
		case "", ".":
			// Skip: empty parts come from repeated slashes, both are
			// harmless and folded away.
		case "..":
			if len(components) == 0 {
				return "", fmt.Errorf("atomicdir: path escapes above its root: %s", p)
			}
			components = components[:len(components)-1]
		default:
			components = append(components, part)
		}
	}
	if len(components) == 0 {
		return "", fmt.Errorf("atomicdir: path normalizes to empty: %s", p)
	}

	normalized := strings.Join(components, "/")
	for _, reserved := range reservedPrefixes(dirName) {
		if strings.HasPrefix(components[0], reserved) {
			return "", fmt.Errorf("atomicdir: path must not begin with reserved name %q: %s", reserved, p)
		}
	}
	return normalized, nil
}
