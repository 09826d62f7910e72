// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package dsym

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/symkeep/symkeep/lib/checksum"
	"github.com/symkeep/symkeep/lib/machoid"
)

// DefaultBatchSize bounds how many records a batch carries. Each batch
// turns into one missing-check round trip and at most one upload, so
// the cap keeps request sizes and the memory pinned by borrowed
// archive handles small even over very large trees.
const DefaultBatchSize = 12

// zipMagic is the local-file-header signature that opens every zip
// archive.
var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// BatchConfig configures a BatchIterator.
type BatchConfig struct {
	// Root is the file or directory tree to scan. Required.
	Root string

	// Targets restricts discovery to artifacts embedding at least
	// one of these identifiers, and stops the walk early once all of
	// them have been found. Empty means match everything.
	Targets UUIDSet

	// Found accumulates every identifier of every kept record. Pass
	// the same set to several iterators to deduplicate across root
	// paths; the caller reads it afterwards to see which targets
	// were never found. A nil set is created internally.
	Found UUIDSet

	// DescendArchives enables opening files with zip magic and
	// scanning their entries.
	DescendArchives bool

	// BatchSize overrides DefaultBatchSize when positive.
	BatchSize int

	// Visit, when non-nil, is called with each file path the walk
	// reaches, before the file is probed. Purely informational, for
	// progress display.
	Visit func(path string)
}

// BatchIterator walks a root path, discovers debug symbol artifacts in
// plain files and zip archives, and yields them as bounded batches of
// SymbolRefs. See the package documentation for the discovery model
// and the archive borrow discipline.
//
// The iterator is not safe for concurrent use.
type BatchIterator struct {
	root      string
	targets   UUIDSet
	found     UUIDSet
	descend   bool
	batchSize int
	visit     func(string)

	walk       *treeWalker
	slot       archiveSlot
	entryIndex int

	batch []*SymbolRef

	// batchBorrows records whether any pending record reads through
	// the currently open archive. Only then does retiring the
	// archive force the batch out early.
	batchBorrows bool

	done bool
	err  error
}

// NewBatchIterator returns an iterator over the discovery batches of
// config.Root. Construction does no I/O; all failures surface from
// Next.
func NewBatchIterator(config BatchConfig) *BatchIterator {
	found := config.Found
	if found == nil {
		found = NewUUIDSet()
	}
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BatchIterator{
		root:      config.Root,
		targets:   config.Targets,
		found:     found,
		descend:   config.DescendArchives,
		batchSize: batchSize,
		visit:     config.Visit,
		walk:      newTreeWalker(config.Root),
	}
}

// Next returns the next batch of discovered records, between 1 and the
// configured cap in length. It returns nil, nil once the walk is
// exhausted or every target identifier has been found. The first hard
// error (unreadable file, corrupt archive) aborts the sequence; later
// calls return the same error.
//
// Records borrowing an archive handle stay readable until Next is
// called again, which is when an exhausted archive is retired.
func (it *BatchIterator) Next() ([]*SymbolRef, error) {
	if it.err != nil {
		return nil, it.err
	}
	if it.done {
		return nil, nil
	}

	batch, err := it.pull()
	if err != nil {
		it.err = err
		it.slot.close()
		return nil, err
	}
	if len(batch) == 0 {
		it.done = true
		it.slot.close()
		return nil, nil
	}
	return batch, nil
}

// Close retires the currently open archive, if any. Records from
// already-yielded batches that borrow it become unreadable. Close is
// optional when the iterator is pulled to exhaustion, since the final
// Next call retires the archive itself.
func (it *BatchIterator) Close() error {
	it.done = true
	return it.slot.close()
}

// pull advances traversal until the pending batch is full, traversal
// is exhausted, the targets are all found, or retiring an archive the
// batch borrows forces the batch out. An empty result means the
// sequence is over.
func (it *BatchIterator) pull() ([]*SymbolRef, error) {
	// An archive whose entries ran out last pull was kept open only
	// for the records yielded then; the consumer's borrow ended when
	// it asked for this batch.
	if it.slot.isOpen() && it.entryIndex >= it.slot.entryCount() {
		it.slot.close()
	}

	for !it.targetsSatisfied() {
		if it.slot.isOpen() {
			if it.entryIndex >= it.slot.entryCount() {
				if it.batchBorrows {
					// Forced yield: the batch must reach the
					// consumer before the archive it borrows
					// is retired. The close happens at the
					// top of the next pull.
					break
				}
				it.slot.close()
				continue
			}
			index := it.entryIndex
			it.entryIndex++
			full, err := it.processEntry(index)
			if err != nil {
				return nil, err
			}
			if full {
				break
			}
			continue
		}

		file, info, err := it.walk.next()
		if err != nil {
			return nil, err
		}
		if file == "" {
			break
		}
		if it.visit != nil {
			it.visit(file)
		}

		if it.descend {
			isZip, err := isZipFile(file)
			if err != nil {
				return nil, err
			}
			if isZip {
				// The pending batch can only hold plain-file
				// records at this point: a batch borrowing an
				// archive is always flushed before the walk
				// resumes, so opening here invalidates
				// nothing.
				if err := it.slot.open(file); err != nil {
					return nil, err
				}
				it.entryIndex = 0
				continue
			}
		}

		full, err := it.processFile(file, info)
		if err != nil {
			return nil, err
		}
		if full {
			break
		}
	}

	batch := it.batch
	it.batch = nil
	it.batchBorrows = false
	return batch, nil
}

// processFile probes one plain file and, if it is an eligible Mach-O
// carrying a fresh identifier, appends it to the pending batch.
// Returns whether the batch reached the size cap.
func (it *BatchIterator) processFile(file string, info fs.FileInfo) (bool, error) {
	uuids, err := machoid.FileUUIDs(file)
	if errors.Is(err, machoid.ErrNotMachO) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !it.eligible(uuids) {
		return false, nil
	}

	digest, err := checksum.HashFile(file)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(it.root, file)
	if err != nil {
		return false, fmt.Errorf("relativizing %s: %w", file, err)
	}
	if rel == "." {
		// The root itself is the file; name it by its basename.
		rel = filepath.Base(file)
	}

	return it.pushRef(&SymbolRef{
		ArchiveName: archiveName(filepath.ToSlash(rel)),
		Checksum:    checksum.FormatDigest(digest),
		Size:        info.Size(),
		UUIDs:       uuids,
		source:      fileSource{path: file},
	}), nil
}

// processEntry probes one entry of the open archive, exactly as
// processFile does for plain files. The entry bytes are buffered once
// and shared between identifier extraction and checksumming.
func (it *BatchIterator) processEntry(index int) (bool, error) {
	entry := it.slot.entry(index)
	rc, err := entry.Open()
	if err != nil {
		return false, fmt.Errorf("opening %s in %s: %w", entry.Name, it.slot.path, err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return false, fmt.Errorf("reading %s in %s: %w", entry.Name, it.slot.path, err)
	}

	uuids, err := machoid.UUIDs(bytes.NewReader(data))
	if errors.Is(err, machoid.ErrNotMachO) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !it.eligible(uuids) {
		return false, nil
	}

	digest, err := checksum.HashReader(bytes.NewReader(data))
	if err != nil {
		return false, err
	}

	return it.pushRef(&SymbolRef{
		ArchiveName: archiveName(entry.Name),
		Checksum:    checksum.FormatDigest(digest),
		Size:        int64(len(data)),
		UUIDs:       uuids,
		source: entrySource{
			slot:        &it.slot,
			generation:  it.slot.generation,
			index:       index,
			archivePath: it.slot.path,
			entryName:   entry.Name,
		},
	}), nil
}

// pushRef applies the deduplication rule: the record is kept only if
// at least one of its identifiers is unseen, and a kept record marks
// all of its identifiers as found. Returns whether the batch reached
// the size cap.
func (it *BatchIterator) pushRef(ref *SymbolRef) bool {
	fresh := false
	for _, id := range ref.UUIDs {
		if !it.found.Contains(id) {
			fresh = true
			it.found.Add(id)
		}
	}
	if fresh {
		it.batch = append(it.batch, ref)
		if _, borrows := ref.source.(entrySource); borrows {
			it.batchBorrows = true
		}
	}
	return len(it.batch) >= it.batchSize
}

// eligible applies the matching condition: without targets, any
// identifier-bearing file matches; with targets, the identifier sets
// must intersect.
func (it *BatchIterator) eligible(uuids []uuid.UUID) bool {
	if len(it.targets) == 0 {
		return len(uuids) > 0
	}
	for _, id := range uuids {
		if it.targets.Contains(id) {
			return true
		}
	}
	return false
}

// targetsSatisfied reports whether every target identifier has been
// found. Always false when no targets were supplied.
func (it *BatchIterator) targetsSatisfied() bool {
	if len(it.targets) == 0 {
		return false
	}
	return it.found.ContainsAll(it.targets)
}

// isZipFile reports whether the file starts with the zip magic. Files
// shorter than the magic are simply not archives; an unreadable file
// is an error.
func isZipFile(file string) (bool, error) {
	f, err := os.Open(file)
	if err != nil {
		return false, fmt.Errorf("probing %s: %w", file, err)
	}
	defer f.Close()

	var magic [4]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, fmt.Errorf("probing %s: %w", file, err)
	}
	return bytes.Equal(magic[:], zipMagic), nil
}
