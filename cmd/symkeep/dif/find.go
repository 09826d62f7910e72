// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package dif

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/symkeep/symkeep/cmd/symkeep/cli"
	"github.com/symkeep/symkeep/lib/dsym"
)

type findParams struct {
	cli.JSONOutput
	UUIDs  []string `json:"uuids"   flag:"uuid"    desc:"debug identifier to look for (repeatable)"`
	NoZips bool     `json:"no_zips" flag:"no-zips" desc:"do not search inside zip archives"`
}

// findOutput is the JSON output for the find command.
type findOutput struct {
	Matches []matchOutput `json:"matches" desc:"artifacts carrying requested identifiers"`
	Missing []string      `json:"missing" desc:"requested identifiers that were not found"`
}

type matchOutput struct {
	Location string   `json:"location" desc:"file path, or archive!entry for archive entries"`
	UUIDs    []string `json:"uuids"    desc:"requested identifiers found in this artifact"`
}

func findCommand() *cli.Command {
	var params findParams

	return &cli.Command{
		Name:    "find",
		Summary: "Locate the artifacts carrying specific debug identifiers",
		Usage:   "symkeep dif find --uuid <uuid> [PATH...] [flags]",
		Description: `Search directory trees for the artifacts carrying the given debug
identifiers, without uploading anything.

Zip archives along the way are searched entry by entry unless
--no-zips is given. The search stops as soon as every requested
identifier has been seen. With no paths, the current directory is
searched. Exits 1 when any requested identifier was not found.`,
		Examples: []cli.Example{
			{
				Description: "Find a dSYM in the Xcode build products",
				Command:     "symkeep dif find --uuid 676d0f25-c48f-3ec1-9712-79c3c1b1e230 build/",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("find", &params)
		},
		Run: func(args []string) error {
			return runFind(os.Stdout, &params, args)
		},
	}
}

func runFind(out io.Writer, params *findParams, args []string) error {
	if len(params.UUIDs) == 0 {
		return fmt.Errorf("at least one --uuid is required")
	}
	targets, err := dsym.ParseUUIDSet(params.UUIDs)
	if err != nil {
		return err
	}

	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	found := dsym.NewUUIDSet()
	var matches []matchOutput
	for _, path := range paths {
		if found.ContainsAll(targets) {
			break
		}
		iterator := dsym.NewBatchIterator(dsym.BatchConfig{
			Root:            path,
			Targets:         targets,
			Found:           found,
			DescendArchives: !params.NoZips,
		})
		for {
			batch, err := iterator.Next()
			if err != nil {
				return err
			}
			if batch == nil {
				break
			}
			for _, ref := range batch {
				match := matchOutput{Location: ref.Location()}
				for _, id := range ref.UUIDs {
					if targets.Contains(id) {
						match.UUIDs = append(match.UUIDs, id.String())
					}
				}
				matches = append(matches, match)
			}
		}
	}

	missing := targets.Difference(found)
	output := findOutput{Matches: matches, Missing: make([]string, 0, len(missing))}
	if output.Matches == nil {
		output.Matches = []matchOutput{}
	}
	for _, id := range missing {
		output.Missing = append(output.Missing, id.String())
	}

	if done, err := params.EmitJSON(output); done {
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return &cli.ExitError{Code: 1}
		}
		return nil
	}

	for _, match := range matches {
		for _, id := range match.UUIDs {
			fmt.Fprintf(out, "%s  %s\n", id, match.Location)
		}
	}
	for _, id := range missing {
		fmt.Fprintf(out, "%s  not found\n", id)
	}
	if len(missing) > 0 {
		return &cli.ExitError{Code: 1}
	}
	return nil
}
