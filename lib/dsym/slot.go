// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package dsym

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
)

// ErrArchiveClosed reports a read against an archive the iterator has
// already retired. It means the consumer held a SymbolRef past the
// lifetime of the batch it arrived in.
var ErrArchiveClosed = errors.New("dsym: backing archive no longer open")

// archiveSlot holds the single archive a BatchIterator keeps open at a
// time. Every open bumps a generation counter, and entry reads carry
// the generation they were issued under, so a record from a retired
// archive fails its staleness check instead of reading whatever
// archive happens to occupy the slot now.
type archiveSlot struct {
	path       string
	reader     *zip.ReadCloser
	generation uint64
}

// open indexes the archive at path and makes it the slot's current
// archive, retiring any previous one.
func (s *archiveSlot) open(path string) error {
	s.close()
	reader, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("indexing archive %s: %w", path, err)
	}
	s.path = path
	s.reader = reader
	s.generation++
	return nil
}

// close retires the current archive, if any.
func (s *archiveSlot) close() error {
	if s.reader == nil {
		return nil
	}
	err := s.reader.Close()
	s.reader = nil
	return err
}

func (s *archiveSlot) isOpen() bool {
	return s.reader != nil
}

func (s *archiveSlot) entryCount() int {
	return len(s.reader.File)
}

func (s *archiveSlot) entry(index int) *zip.File {
	return s.reader.File[index]
}

// openEntry returns a reader over the given entry, provided the slot
// still holds the archive generation the caller discovered it under.
func (s *archiveSlot) openEntry(generation uint64, index int) (io.ReadCloser, error) {
	if s.reader == nil || s.generation != generation {
		return nil, fmt.Errorf("opening archive entry %d: %w", index, ErrArchiveClosed)
	}
	rc, err := s.reader.File[index].Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s in %s: %w", s.reader.File[index].Name, s.path, err)
	}
	return rc, nil
}
