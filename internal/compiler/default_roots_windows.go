//go:build windows

package compiler

import (
	"path/filepath"
)

// getDefaultRoots returns the per-user and machine wide data directories.
func getDefaultRoots(lookup func(string) (string, bool)) []string {
	var roots []string
	if local, ok := lookup("LOCALAPPDATA"); ok && local != "" {
		roots = append(roots, filepath.Join(local, "jacdac", "services"))
	} else if profile, ok := lookup("USERPROFILE"); ok && profile != "" {
		roots = append(roots, filepath.Join(profile, "AppData", "Local", "jacdac", "services"))
	}
	programData, ok := lookup("ProgramData")
	if !ok || programData == "" {
		drive, _ := lookup("SystemDrive")
		programData = filepath.Join(drive+`\`, "ProgramData")
	}
	return append(roots, filepath.Join(programData, "jacdac", "services"))
}
