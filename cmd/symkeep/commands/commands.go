// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete symkeep CLI command tree.
package commands

import (
	"fmt"

	"github.com/symkeep/symkeep/cmd/symkeep/cli"
	difcmd "github.com/symkeep/symkeep/cmd/symkeep/dif"
	uploadcmd "github.com/symkeep/symkeep/cmd/symkeep/upload"
	"github.com/symkeep/symkeep/lib/version"
)

// Root builds and returns the complete symkeep CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "symkeep",
		Description: `Symkeep: debug symbol discovery and upload.

Scan build output for debug symbol files (dSYM bundles, Mach-O
binaries, zipped archives) and upload the ones a symbol server does
not have yet. Designed to run unmodified inside an Xcode build phase.`,
		Subcommands: []*cli.Command{
			uploadcmd.Command(),
			difcmd.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("symkeep %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Upload the symbols of a build",
				Command:     "symkeep upload build/MyApp.dSYM",
			},
			{
				Description: "Upload from an Xcode run-script phase (paths from the build environment)",
				Command:     "symkeep upload",
			},
			{
				Description: "Inspect one binary's debug identifiers",
				Command:     "symkeep dif check build/MyApp.dSYM/Contents/Resources/DWARF/MyApp",
			},
			{
				Description: "Locate a crash report's symbols without uploading",
				Command:     "symkeep dif find --uuid 67e9d7cb-d86b-47f8-85de-a9f0f384a063 ~/Library/Developer/Xcode/Archives",
			},
		},
	}
}
