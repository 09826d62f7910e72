// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package checksum provides SHA1 content hashing for debug symbol
// files.
//
// The symbol server inventory is keyed by SHA1 content digest: before
// uploading, clients send the digests of their candidate files and the
// server answers with the subset it does not already hold. The digest
// is computed over the raw file bytes, whether the file sits on disk or
// inside a zip archive, so the same debug symbol always maps to the
// same inventory key regardless of how it was packaged.
//
// The API surface is three functions:
//
//   - [HashFile] -- streams a file through SHA1, returning a Digest
//     with constant memory usage regardless of file size
//   - [HashReader] -- hashes an arbitrary stream, used for archive
//     entries that never touch the filesystem
//   - [FormatDigest] -- converts a Digest to the canonical lowercase
//     hex string used in API requests and log output
//
// This package has no dependencies on other Symkeep packages.
package checksum
