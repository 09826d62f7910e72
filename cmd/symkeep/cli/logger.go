// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates a structured logger for CLI command operations.
// When stderr is a terminal, uses slog.TextHandler for human-readable
// output. When stderr is piped or redirected (CI, scripts, Xcode build
// logs), uses slog.JSONHandler for machine-parseable output.
//
// The level comes from configuration so that SYMKEEP_LOG_LEVEL=debug in
// an Xcode run-script phase surfaces the per-file scan decisions.
//
// Callers scope the logger with command-specific context via With():
//
//	logger := cli.NewCommandLogger(cfg.Level()).With("command", "upload")
func NewCommandLogger(level slog.Level) *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}
