// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package dsym discovers debug symbol files across directory trees and
// zip archives, deduplicates them by embedded debug identifier, and
// hands them to the caller in bounded batches suitable for
// check-then-upload round trips against a symbol server.
//
// # Discovery Model
//
// [BatchIterator] walks a root path depth-first. Every regular file is
// a candidate: plain files are probed directly, and files that carry
// the zip magic are (optionally) opened and their entries probed one
// by one. A candidate that parses as Mach-O with at least one embedded
// identifier becomes a [SymbolRef] carrying its identifiers, SHA1
// checksum, byte size, and the name it should take inside an upload
// bundle.
//
// Identifier-level deduplication runs against a caller-visible
// [UUIDSet]: a candidate is kept only if it contributes at least one
// identifier not seen before, and a kept candidate marks all of its
// identifiers as seen. Sharing one set across several iterators makes
// deduplication span multiple root paths in a single run.
//
// # Archive Discipline
//
// At most one zip archive is open at any time. SymbolRefs produced
// from archive entries borrow that archive's handle rather than
// copying entry bytes, so the iterator never closes or replaces an
// archive while records referencing it are still pending: when an
// archive runs out of entries with borrowed records in the pending
// batch, the batch is flushed before the walk resumes, and the
// archive is retired only on the following pull. A batch holding only
// plain-file records is unaffected by archive boundaries. Consumers
// in turn must finish reading a batch's records before asking for the
// next batch; a record read after its archive was retired fails with
// [ErrArchiveClosed] instead of silently reading the wrong entry.
//
// # Batching
//
// Batches carry between 1 and the configured cap (default
// [DefaultBatchSize]) records. An empty batch is never yielded; the
// sequence simply ends. An optional target identifier set restricts
// discovery to matching candidates and stops the walk early once every
// target has been seen.
//
// # Packaging
//
// [WriteBundle] streams a batch's records into a zip archive under
// their bundle names, and [SelectMissing] filters a batch down to the
// records a symbol server reported as absent. Both operate on the
// records of a single batch, while its archive borrow is still live.
package dsym
