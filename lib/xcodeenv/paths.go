// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package xcodeenv

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// IsRunFromXcode reports whether the process was launched by an Xcode
// build phase. Xcode exports XCODE_VERSION_ACTUAL into every script it
// runs.
func IsRunFromXcode() bool {
	return os.Getenv("XCODE_VERSION_ACTUAL") != ""
}

// DiscoverDSYMDirs returns the .dSYM bundle directories under the
// build's DWARF_DSYM_FOLDER_PATH. Returns nil when the variable is not
// set, which is the normal case outside an Xcode build phase.
func DiscoverDSYMDirs() ([]string, error) {
	base := os.Getenv("DWARF_DSYM_FOLDER_PATH")
	if base == "" {
		return nil, nil
	}

	var paths []string
	err := filepath.WalkDir(base, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() && filepath.Ext(entry.Name()) == ".dSYM" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", base, err)
	}
	return paths, nil
}

// DerivedDataPath returns Xcode's default derived data location for
// the current user.
func DerivedDataPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, "Library", "Developer", "Xcode", "DerivedData"), nil
}
