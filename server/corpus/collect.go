// Package corpus decodes many LIN files at once: it finds them on disk,
// fans the work out over a bounded worker pool, hands decoded deals to a
// Sink and keeps per-kind counts of what went wrong.
package corpus

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Collect returns the regular files under root matching pattern, sorted.
// Pattern uses doublestar syntax, so "**/*.lin" descends into subdirectories.
func Collect(root, pattern string) ([]string, error) {
	if root == "" {
		root = "."
	}
	if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	matches, err := doublestar.FilepathGlob(filepath.Join(root, pattern), doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// matchPath reports whether a path under root is selected by pattern.
func matchPath(root, pattern, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	ok, err := doublestar.Match(filepath.ToSlash(pattern), filepath.ToSlash(rel))
	return err == nil && ok
}
