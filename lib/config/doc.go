// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for symkeep
// commands.
//
// Settings come from four layers, each overriding the previous. Zero
// layers are required: symkeep runs with built-in defaults plus
// whatever the environment supplies.
//
//  1. Built-in defaults ([Default]).
//  2. A YAML file named by the SYMKEEP_CONFIG environment variable
//     (via [Load]) or a --config flag (via [LoadFile]). There is no
//     ~/.config discovery or automatic file search.
//  3. SYMKEEP_* environment variables. Xcode run-script build phases
//     have no good way to pass flags, so the environment is a
//     first-class configuration channel, not a fallback.
//  4. Command-line flags, applied by the command after loading.
//
// This package depends on no other symkeep packages.
package config
