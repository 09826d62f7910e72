// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Symkeep is the CLI for shipping debug symbols to a symbol server.
// It provides subcommands for batch discovery and upload (upload),
// local symbol inspection (dif check, dif find), and version
// information (version).
package main
