// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package dif implements the "symkeep dif" CLI subcommands for
// inspecting debug information files locally, without a symbol server.
//
// "dif check" parses one file and prints the debug identifiers it
// carries; "dif find" walks directory trees (and zip archives) looking
// for specific identifiers. Both exit non-zero when the answer is
// negative, so they compose into build scripts.
package dif

import (
	"github.com/symkeep/symkeep/cmd/symkeep/cli"
)

// Command returns the top-level "dif" command with all subcommands.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "dif",
		Summary: "Inspect debug information files",
		Description: `Inspect debug information files without uploading anything.

Debug identifiers (the LC_UUID of each Mach-O architecture slice) tie
a crashing binary to the dSYM that can symbolicate it. These commands
answer the two questions that come up when symbolication fails: which
identifiers does this binary carry, and where on disk is the artifact
for a given identifier.`,
		Subcommands: []*cli.Command{
			checkCommand(),
			findCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Print the identifiers of a dSYM's DWARF binary",
				Command:     "symkeep dif check MyApp.dSYM/Contents/Resources/DWARF/MyApp",
			},
			{
				Description: "Locate the artifact for a crash report's identifier",
				Command:     "symkeep dif find --uuid 676d0f25-c48f-3ec1-9712-79c3c1b1e230 ~/Library/Developer/Xcode/DerivedData",
			},
		},
	}
}
