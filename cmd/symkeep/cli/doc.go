// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the symkeep CLI.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], a [pflag.FlagSet] factory, and a
// Run function. Commands are assembled into a tree in cmd/symkeep/commands
// and dispatched via [Command.Execute], which handles flag parsing,
// subcommand routing, and structured help output with examples.
//
// When a user types an unknown subcommand or flag, the framework computes
// Levenshtein edit distance against all known names and suggests the
// closest match (threshold: distance <= 3). This is implemented in
// suggest.go.
//
// Parameter structs declare their flags through struct tags and bind them
// with [BindFlags] or [FlagsFromParams]; option groups that manage their
// own flags implement [FlagBinder] instead. Commands that support machine
// output embed [JSONOutput] for the --json flag and [JSONOutput.EmitJSON].
// A command whose non-zero exit is an expected outcome rather than a
// failure returns [ExitError], which main translates into the process
// exit code without printing a redundant error line.
package cli
