// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"archive/zip"
	"bytes"
)

// ZipEntry is one named blob for ZipArchive.
type ZipEntry struct {
	Name string
	Data []byte
}

// ZipArchive packs the given entries into an in-memory zip archive,
// preserving entry order.
func ZipArchive(t interface {
	Helper()
	Fatalf(format string, args ...any)
}, entries ...ZipEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for _, entry := range entries {
		w, err := writer.Create(entry.Name)
		if err != nil {
			t.Fatalf("creating zip entry %s: %v", entry.Name, err)
		}
		if _, err := w.Write(entry.Data); err != nil {
			t.Fatalf("writing zip entry %s: %v", entry.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing zip writer: %v", err)
	}
	return buf.Bytes()
}
