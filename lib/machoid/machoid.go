// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package machoid extracts debug identifiers from Mach-O binaries.
//
// Every Mach-O image built with debug info carries an LC_UUID load
// command whose 16-byte payload uniquely identifies the build. The
// same UUID is stamped into both the stripped binary and its dSYM
// bundle, which is how crash reporters pair a crashing image with the
// debug symbols that can symbolicate it. Universal (fat) binaries
// carry one UUID per architecture slice; this package returns all of
// them.
//
// Extraction has three outcomes, which callers must distinguish:
//
//   - a non-empty identifier list: the source is a Mach-O with at
//     least one LC_UUID command
//   - an empty list with a nil error: a valid Mach-O without LC_UUID
//     (some linker outputs omit it)
//   - [ErrNotMachO]: the bytes do not parse as Mach-O at all
//
// Only I/O failures (an unopenable path) surface as ordinary errors;
// unparseable content is never fatal because directory trees routinely
// contain files of every other format.
package machoid

import (
	"bytes"
	"debug/macho"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/google/uuid"
)

// ErrNotMachO reports that a byte source is not a Mach-O binary. It is
// a skip signal, not a failure: callers scanning mixed directory trees
// should continue with the next file.
var ErrNotMachO = errors.New("machoid: not a Mach-O binary")

// loadCmdUUID is the LC_UUID load command tag. debug/macho parses the
// command but does not export the constant or decode the payload.
const loadCmdUUID = 0x1b

// Image describes one identifier-bearing architecture slice of a
// Mach-O binary.
type Image struct {
	UUID uuid.UUID
	CPU  string
}

// Images lists the identifier-bearing architecture slices of a Mach-O
// binary in file order. A slice without an LC_UUID command produces no
// Image, so a valid Mach-O can yield an empty list.
//
// Returns ErrNotMachO if the bytes do not parse as Mach-O.
func Images(r io.ReaderAt) ([]Image, error) {
	fat, err := macho.NewFatFile(r)
	switch {
	case err == nil:
		var images []Image
		for _, arch := range fat.Arches {
			images = append(images, collectImages(arch.File)...)
		}
		return images, nil
	case errors.Is(err, macho.ErrNotFat):
		file, err := macho.NewFile(r)
		if err != nil {
			return nil, ErrNotMachO
		}
		return collectImages(file), nil
	default:
		// Fat magic with an unparseable structure. The magic
		// collides with other formats (Java class files share
		// 0xcafebabe), so this is indistinguishable from a
		// non-Mach-O file.
		return nil, ErrNotMachO
	}
}

// FileImages lists the identifier-bearing slices of the Mach-O binary
// at path. A file that cannot be opened is an error; a file that opens
// but does not parse as Mach-O returns ErrNotMachO.
func FileImages(path string) ([]Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()
	return Images(file)
}

// UUIDs extracts the debug identifiers embedded in a Mach-O binary
// read from r. Both thin and universal (fat) binaries are handled; for
// universal binaries the result covers every architecture slice. The
// returned identifiers are deduplicated and sorted byte-wise so the
// order is stable across runs.
//
// Returns ErrNotMachO if the bytes do not parse as Mach-O.
func UUIDs(r io.ReaderAt) ([]uuid.UUID, error) {
	images, err := Images(r)
	if err != nil {
		return nil, err
	}

	found := make(map[uuid.UUID]struct{}, len(images))
	for _, image := range images {
		found[image.UUID] = struct{}{}
	}
	ids := make([]uuid.UUID, 0, len(found))
	for id := range found {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return ids, nil
}

// FileUUIDs extracts the debug identifiers from the Mach-O binary at
// path. A file that cannot be opened is an error; a file that opens
// but does not parse as Mach-O returns ErrNotMachO.
func FileUUIDs(path string) ([]uuid.UUID, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()
	return UUIDs(file)
}

// collectImages scans the load commands of a parsed Mach-O image and
// returns an Image per LC_UUID payload. The load command layout is
// cmd (4 bytes), cmdsize (4 bytes), uuid (16 bytes).
func collectImages(f *macho.File) []Image {
	var images []Image
	for _, load := range f.Loads {
		raw := load.Raw()
		if len(raw) < 24 {
			continue
		}
		if f.ByteOrder.Uint32(raw[0:4]) != loadCmdUUID {
			continue
		}
		images = append(images, Image{
			UUID: uuid.UUID(raw[8:24]),
			CPU:  cpuName(f.Cpu),
		})
	}
	return images
}

// cpuName maps debug/macho CPU constants to the names Apple tooling
// prints. Subtypes are not decoded, so 32-bit ARM variants all read
// "arm".
func cpuName(cpu macho.Cpu) string {
	switch cpu {
	case macho.Cpu386:
		return "i386"
	case macho.CpuAmd64:
		return "x86_64"
	case macho.CpuArm:
		return "arm"
	case macho.CpuArm64:
		return "arm64"
	case macho.CpuPpc:
		return "ppc"
	case macho.CpuPpc64:
		return "ppc64"
	}
	return "unknown"
}
