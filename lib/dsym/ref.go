// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package dsym

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/google/uuid"
)

// bundlePrefix is the virtual root under which every discovered
// artifact is stored when repackaged into an upload bundle.
const bundlePrefix = "DebugSymbols"

// SymbolRef describes one discovered debug symbol artifact.
//
// A SymbolRef sourced from an archive entry borrows the iterator's
// archive handle instead of holding a copy of the entry bytes. The
// borrow is valid for the lifetime of the batch the record arrived in:
// once the consumer asks for the next batch, the iterator is free to
// retire the archive and Open fails with ErrArchiveClosed.
type SymbolRef struct {
	// ArchiveName is the path under which the artifact is stored in
	// an upload bundle, always prefixed "DebugSymbols/".
	ArchiveName string

	// Checksum is the lowercase hex SHA1 digest of the artifact
	// bytes, computed once at discovery time.
	Checksum string

	// Size is the artifact's byte length.
	Size int64

	// UUIDs holds the debug identifiers embedded in the artifact,
	// sorted byte-wise. Never empty for a yielded record.
	UUIDs []uuid.UUID

	source refSource
}

// Open returns a reader over the artifact's bytes. The caller must
// close it.
func (ref *SymbolRef) Open() (io.ReadCloser, error) {
	return ref.source.open()
}

// Location describes where the artifact was discovered, for display:
// the file path, or "archive!entry" for an archive entry. Unlike Open
// it stays valid after the iterator has moved on.
func (ref *SymbolRef) Location() string {
	return ref.source.location()
}

// refSource locates the bytes behind a SymbolRef: either a filesystem
// path or an entry of the iterator's currently open archive.
type refSource interface {
	open() (io.ReadCloser, error)
	location() string
}

type fileSource struct {
	path string
}

func (s fileSource) open() (io.ReadCloser, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.path, err)
	}
	return file, nil
}

func (s fileSource) location() string {
	return s.path
}

type entrySource struct {
	slot       *archiveSlot
	generation uint64
	index      int

	// archivePath and entryName are captured at discovery time so the
	// location survives the slot moving on to another archive.
	archivePath string
	entryName   string
}

func (s entrySource) open() (io.ReadCloser, error) {
	return s.slot.openEntry(s.generation, s.index)
}

func (s entrySource) location() string {
	return s.archivePath + "!" + s.entryName
}

// archiveName maps a discovered artifact's relative name to its
// location in an upload bundle. Joining also normalizes any "." or
// ".." segments an archive entry name might carry.
func archiveName(name string) string {
	return path.Join(bundlePrefix, name)
}
