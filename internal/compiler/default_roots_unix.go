// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

//go:build aix || darwin || dragonfly || freebsd || (js && wasm) || linux || netbsd || openbsd || solaris

package compiler

import (
	"path/filepath"
	"strings"
)

// getDefaultRoots follows the XDG base directory layout: the user data
// directory first, then each system data directory.
func getDefaultRoots(lookup func(string) (string, bool)) []string {
	var dataDirs []string
	if home, ok := lookup("XDG_DATA_HOME"); ok && home != "" {
		dataDirs = append(dataDirs, home)
	} else if home, ok := lookup("HOME"); ok && home != "" {
		dataDirs = append(dataDirs, filepath.Join(home, ".local", "share"))
	}
	system, ok := lookup("XDG_DATA_DIRS")
	if !ok || system == "" {
		system = "/usr/local/share:/usr/share"
	}
	dataDirs = append(dataDirs, strings.Split(system, ":")...)
	roots := make([]string, 0, len(dataDirs))
	for _, dir := range dataDirs {
		if dir == "" {
			continue
		}
		roots = append(roots, filepath.Join(dir, "jacdac", "services"))
	}
	return roots
}
