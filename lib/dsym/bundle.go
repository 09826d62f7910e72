// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package dsym

import (
	"archive/zip"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// WriteBundle writes the given records into w as a zip archive, each
// under its ArchiveName. Entry bytes are streamed from the record
// sources, so archive-backed records must still be within their batch
// lifetime. report, when non-nil, receives incremental byte counts as
// data is copied, for progress display.
//
// Any read or write failure aborts packaging; the bytes already
// written to w must then be discarded by the caller.
func WriteBundle(w io.Writer, refs []*SymbolRef, report func(n int64)) error {
	bundle := zip.NewWriter(w)
	bundle.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestSpeed)
	})

	for _, ref := range refs {
		entry, err := bundle.Create(ref.ArchiveName)
		if err != nil {
			return fmt.Errorf("creating bundle entry %s: %w", ref.ArchiveName, err)
		}
		src, err := ref.Open()
		if err != nil {
			return fmt.Errorf("reading %s: %w", ref.ArchiveName, err)
		}
		_, err = io.Copy(entry, &progressReader{reader: src, report: report})
		src.Close()
		if err != nil {
			return fmt.Errorf("writing bundle entry %s: %w", ref.ArchiveName, err)
		}
	}

	if err := bundle.Close(); err != nil {
		return fmt.Errorf("finalizing bundle: %w", err)
	}
	return nil
}

// progressReader reports each chunk read through it.
type progressReader struct {
	reader io.Reader
	report func(n int64)
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 && pr.report != nil {
		pr.report(int64(n))
	}
	return n, err
}
