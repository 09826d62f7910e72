// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"encoding/binary"

	"github.com/google/uuid"
)

// CPU type constants for the MachO fixture builder, matching the
// values Mach-O headers use on current Apple hardware.
const (
	CPUTypeARM64  uint32 = 0x0100000c
	CPUTypeX86_64 uint32 = 0x01000007
)

// MachO synthesizes a minimal little-endian 64-bit Mach-O executable
// carrying one LC_UUID load command per given identifier. Passing no
// identifiers produces a valid Mach-O with no LC_UUID at all.
func MachO(cpu uint32, ids ...uuid.UUID) []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian

	// mach_header_64: magic, cputype, cpusubtype, filetype, ncmds,
	// sizeofcmds, flags, reserved.
	writeU32(&buf, le, 0xfeedfacf)
	writeU32(&buf, le, cpu)
	writeU32(&buf, le, 0)
	writeU32(&buf, le, 2) // MH_EXECUTE
	writeU32(&buf, le, uint32(len(ids)))
	writeU32(&buf, le, uint32(24*len(ids)))
	writeU32(&buf, le, 0)
	writeU32(&buf, le, 0)

	// LC_UUID: cmd, cmdsize, 16-byte payload.
	for _, id := range ids {
		writeU32(&buf, le, 0x1b)
		writeU32(&buf, le, 24)
		buf.Write(id[:])
	}
	return buf.Bytes()
}

// FatMachO wraps the given thin Mach-O images in a universal (fat)
// container, one architecture slice per image. The slice CPU types are
// read back out of the thin headers, so every image must come from
// MachO with a distinct cpu argument.
func FatMachO(arches ...[]byte) []byte {
	var buf bytes.Buffer
	be := binary.BigEndian

	// fat_header: magic, nfat_arch. Unlike the thin slices, the fat
	// wrapper is always big-endian.
	writeU32(&buf, be, 0xcafebabe)
	writeU32(&buf, be, uint32(len(arches)))

	offset := 8 + 20*len(arches)
	for _, arch := range arches {
		cpu := binary.LittleEndian.Uint32(arch[4:8])
		writeU32(&buf, be, cpu)
		writeU32(&buf, be, 0)
		writeU32(&buf, be, uint32(offset))
		writeU32(&buf, be, uint32(len(arch)))
		writeU32(&buf, be, 0)
		offset += len(arch)
	}
	for _, arch := range arches {
		buf.Write(arch)
	}
	return buf.Bytes()
}

func writeU32(buf *bytes.Buffer, order binary.ByteOrder, v uint32) {
	var scratch [4]byte
	order.PutUint32(scratch[:], v)
	buf.Write(scratch[:])
}
