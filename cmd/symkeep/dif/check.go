// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package dif

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/symkeep/symkeep/cmd/symkeep/cli"
	"github.com/symkeep/symkeep/lib/machoid"
)

type checkParams struct {
	cli.JSONOutput
}

// checkOutput is the JSON output for the check command.
type checkOutput struct {
	Path   string        `json:"path"   desc:"inspected file path"`
	MachO  bool          `json:"mach_o" desc:"whether the file parses as Mach-O"`
	Images []imageOutput `json:"images" desc:"identifier-bearing architecture slices"`
}

type imageOutput struct {
	UUID string `json:"uuid" desc:"debug identifier"`
	CPU  string `json:"cpu"  desc:"architecture name"`
}

func checkCommand() *cli.Command {
	var params checkParams

	return &cli.Command{
		Name:    "check",
		Summary: "Print the debug identifiers of a Mach-O binary",
		Usage:   "symkeep dif check <path> [flags]",
		Description: `Parse a file as Mach-O and print the debug identifiers it carries.

Universal binaries list one identifier per architecture slice. The
command exits 1 when the file is not Mach-O at all, so it doubles as
a format guard in build scripts.`,
		Examples: []cli.Example{
			{
				Description: "Inspect a dSYM's DWARF binary",
				Command:     "symkeep dif check MyApp.dSYM/Contents/Resources/DWARF/MyApp",
			},
			{
				Description: "Machine-readable output",
				Command:     "symkeep dif check build/MyApp --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("check", &params)
		},
		Run: func(args []string) error {
			return runCheck(os.Stdout, &params, args)
		},
	}
}

func runCheck(out io.Writer, params *checkParams, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one path, got %d arguments", len(args))
	}
	path := args[0]

	images, err := machoid.FileImages(path)
	if errors.Is(err, machoid.ErrNotMachO) {
		if done, emitErr := params.EmitJSON(checkOutput{Path: path, Images: []imageOutput{}}); done {
			if emitErr != nil {
				return emitErr
			}
			return &cli.ExitError{Code: 1}
		}
		fmt.Fprintf(out, "%s: not a Mach-O binary\n", path)
		return &cli.ExitError{Code: 1}
	}
	if err != nil {
		return err
	}

	output := checkOutput{
		Path:   path,
		MachO:  true,
		Images: make([]imageOutput, 0, len(images)),
	}
	for _, image := range images {
		output.Images = append(output.Images, imageOutput{
			UUID: image.UUID.String(),
			CPU:  image.CPU,
		})
	}
	if done, err := params.EmitJSON(output); done {
		return err
	}

	if len(images) == 0 {
		fmt.Fprintf(out, "%s: Mach-O, no debug identifiers\n", path)
		return nil
	}
	fmt.Fprintf(out, "%s:\n", path)
	for _, image := range images {
		fmt.Fprintf(out, "  %s (%s)\n", image.UUID, image.CPU)
	}
	return nil
}
