// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test fixtures for Symkeep packages.
//
// [MachO] and [FatMachO] synthesize minimal Mach-O binaries carrying
// chosen LC_UUID identifiers. Real dSYM files are megabytes of DWARF;
// tests only need the header and load commands that the identifier
// extractor reads, so the fixtures stop there. The synthesized bytes
// parse cleanly with debug/macho.
//
// [ZipArchive] packs named byte blobs into an in-memory zip, used to
// exercise archive descent without checking binary files into the
// repository.
//
// All helpers that can fail call t.Fatalf rather than returning
// errors, since test setup failures are not recoverable.
//
// This package has no Symkeep-internal dependencies.
package testutil
