// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package upload implements the "symkeep upload" CLI command: scan
// paths for debug symbol files, ask the symbol server which of them it
// is missing, and upload those in compressed batches.
//
// Server connection settings come from the config file and SYMKEEP_*
// environment variables, with --url, --auth-token, --org, and
// --project flags overriding both. Inside an Xcode build phase the
// command detaches into the background so the build does not wait on
// the network; --force-foreground disables that.
package upload

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/symkeep/symkeep/cmd/symkeep/cli"
	"github.com/symkeep/symkeep/lib/config"
	"github.com/symkeep/symkeep/lib/progress"
	"github.com/symkeep/symkeep/lib/symsrv"
)

// ServerOptions manages the symbol server connection flags and the
// merge of flag values over the loaded configuration. Implements
// [cli.FlagBinder] so it integrates with the params struct system
// while keeping the config-precedence logic in one place.
//
// Exported so that embedded struct fields are visible to reflection in
// [cli.FlagsFromParams] — unexported embedded types cause
// field.IsExported() to return false, silently skipping FlagBinder
// detection.
type ServerOptions struct {
	URL        string
	AuthToken  string
	Org        string
	Project    string
	ConfigPath string
}

// AddFlags registers the server override flags. Defaults are empty:
// an unset flag leaves the config file or environment value in place.
func (o *ServerOptions) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&o.URL, "url", "", "symbol server base URL (overrides config)")
	flagSet.StringVar(&o.AuthToken, "auth-token", "", "symbol server auth token (overrides config)")
	flagSet.StringVar(&o.Org, "org", "", "organization slug (overrides config)")
	flagSet.StringVar(&o.Project, "project", "", "project slug (overrides config)")
	flagSet.StringVar(&o.ConfigPath, "config", "", "config file path (default $SYMKEEP_CONFIG)")
}

// load resolves the effective configuration: defaults, then the config
// file, then SYMKEEP_* environment variables, then any flags set here.
func (o *ServerOptions) load() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if o.ConfigPath != "" {
		cfg, err = config.LoadFile(o.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if o.URL != "" {
		cfg.URL = o.URL
	}
	if o.AuthToken != "" {
		cfg.AuthToken = o.AuthToken
	}
	if o.Org != "" {
		cfg.Org = o.Org
	}
	if o.Project != "" {
		cfg.Project = o.Project
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// connect creates a symbol server client from the resolved
// configuration.
func (o *ServerOptions) connect(cfg *config.Config, logger *slog.Logger) (*symsrv.Client, error) {
	return symsrv.NewClient(symsrv.Config{
		BaseURL:   cfg.URL,
		AuthToken: cfg.AuthToken,
		Logger:    logger,
	})
}

type uploadParams struct {
	ServerOptions
	UUIDs           []string `flag:"uuid"             desc:"upload only symbols matching this debug identifier (repeatable)"`
	RequireAll      bool     `flag:"require-all"      desc:"with --uuid, fail when any requested identifier was not found"`
	NoZips          bool     `flag:"no-zips"          desc:"do not search inside zip archives"`
	DerivedData     bool     `flag:"derived-data"     desc:"search the Xcode derived data directory instead of PATH"`
	InfoPlist       string   `flag:"info-plist"       desc:"associate uploads with the app build described by this Info.plist"`
	NoReprocessing  bool     `flag:"no-reprocessing"  desc:"do not trigger server-side reprocessing after upload"`
	ForceForeground bool     `flag:"force-foreground" desc:"stay in the foreground when launched from an Xcode build phase"`
}

// Command returns the "upload" command.
func Command() *cli.Command {
	var params uploadParams

	return &cli.Command{
		Name:    "upload",
		Summary: "Upload debug symbols to a symbol server",
		Usage:   "symkeep upload [flags] [PATH...]",
		Description: `Scan the given paths for debug symbol files and upload the ones the
symbol server does not have yet.

Symbols are discovered in Mach-O binaries (including the binaries
inside .dSYM bundles) and, unless --no-zips is given, inside zip
archives. Discovery yields bounded batches; each batch is checked
against the server by checksum, and only the missing files are
compressed and uploaded.

With no PATH arguments the paths come from the Xcode build environment
(DWARF_DSYM_FOLDER_PATH), so the command can run unmodified in a
run-script build phase. When launched from Xcode the upload detaches
into the background and logs to a temporary file; pass
--force-foreground to keep it (and its errors) in the build log.`,
		Examples: []cli.Example{
			{
				Description: "Upload every symbol under a build directory",
				Command:     "symkeep upload build/MyApp.dSYM",
			},
			{
				Description: "Upload specific symbols by identifier, failing if any is absent",
				Command:     "symkeep upload --uuid 67e9d7cb-d86b-47f8-85de-a9f0f384a063 --require-all .",
			},
			{
				Description: "Upload from an Xcode archive without touching zip files",
				Command:     "symkeep upload --no-zips ~/Library/Developer/Xcode/Archives",
			},
			{
				Description: "Associate the upload with an app build",
				Command:     "symkeep upload --info-plist build/Info.plist build/",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("upload", &params)
		},
		Run: func(args []string) error {
			indicators := progress.Config{Enabled: progress.Interactive(os.Stderr)}
			return run(os.Stdout, indicators, &params, args)
		},
	}
}
