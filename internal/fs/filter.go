package fs

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/TaffyWrinkle/jacdac/internal/idl"
)

// NewGlobFilter builds a FileFilter from doublestar patterns. A file is kept
// when it has a known kind, matches at least one include pattern (or no
// include patterns are given) and matches no exclude pattern. Patterns are
// matched against the slash separated path relative to the root.
func NewGlobFilter(include []string, exclude []string) (FileFilter, error) {
	for _, pattern := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid glob pattern %q", pattern)
		}
	}
	return func(ctx context.Context, fname string) bool {
		if KindOf(fname) == idl.FileKindNone {
			return false
		}
		name := filepath.ToSlash(fname)
		for _, pattern := range exclude {
			if ok, _ := doublestar.Match(pattern, name); ok {
				return false
			}
		}
		if len(include) == 0 {
			return true
		}
		for _, pattern := range include {
			if ok, _ := doublestar.Match(pattern, name); ok {
				return true
			}
		}
		return false
	}, nil
}
