// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package xcodeenv reads the environment Xcode exports into run-script
// build phases.
//
// Xcode sets every build setting as an environment variable when it
// runs a script phase. This package turns the settings symkeep cares
// about into usable values: the dSYM output folder
// (DWARF_DSYM_FOLDER_PATH), the app's Info.plist (INFOPLIST_FILE,
// with $(VAR) build-setting references expanded from the same
// environment), and whether the process was launched by Xcode at all
// (XCODE_VERSION_ACTUAL).
//
// Discovery functions return zero values rather than errors when the
// process is not running inside an Xcode build, so commands can call
// them unconditionally.
package xcodeenv
