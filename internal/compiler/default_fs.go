// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"path/filepath"

	"github.com/TaffyWrinkle/jacdac/internal/fs"
)

// SpecPathEnv lists include roots that replace the platform defaults.
const SpecPathEnv = "JACDAC_SPEC_PATH"

// NewDefaultFS returns the shared include roots in search order. Repeated
// roots are searched once.
func NewDefaultFS(lookup func(string) (string, bool)) (fs.FileSystemMulti, error) {
	roots := getDefaultRoots(lookup)
	if p, ok := lookup(SpecPathEnv); ok && p != "" {
		roots = filepath.SplitList(p)
	}
	seen := make(map[string]bool, len(roots))
	search := make(fs.FileSystemMulti, 0, len(roots))
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		local, err := fs.NewFileSystemLocal(abs)
		if err != nil {
			return nil, err
		}
		search = append(search, local)
	}
	return search, nil
}
