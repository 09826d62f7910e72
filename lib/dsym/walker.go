// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package dsym

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// treeWalker is a resumable depth-first walk over a directory tree,
// yielding regular files one at a time. Unlike filepath.WalkDir it is
// pull-based: the iterator asks for the next file only when it needs
// one, so traversal state survives across batch boundaries without a
// background goroutine.
type treeWalker struct {
	// stack holds paths not yet visited, deepest last. Popping a
	// directory pushes its children in reverse name order so they
	// are visited in name order.
	stack []string
}

func newTreeWalker(root string) *treeWalker {
	return &treeWalker{stack: []string{root}}
}

// next returns the next regular file along with its stat info, or an
// empty path once the walk is exhausted. Unreadable paths fail the
// walk; symlinks and special files are skipped without following.
func (w *treeWalker) next() (string, fs.FileInfo, error) {
	for len(w.stack) > 0 {
		current := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]

		info, err := os.Lstat(current)
		if err != nil {
			return "", nil, fmt.Errorf("reading %s: %w", current, err)
		}
		switch {
		case info.Mode().IsRegular():
			return current, info, nil
		case info.IsDir():
			entries, err := os.ReadDir(current)
			if err != nil {
				return "", nil, fmt.Errorf("reading directory %s: %w", current, err)
			}
			for i := len(entries) - 1; i >= 0; i-- {
				w.stack = append(w.stack, filepath.Join(current, entries[i].Name()))
			}
		}
	}
	return "", nil, nil
}
