// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package checksum

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Digest is a SHA1 content digest.
type Digest [sha1.Size]byte

// HashFile computes the SHA1 digest of the file at path. The file is
// streamed through the hash function in chunks (via io.Copy) to keep
// memory usage constant regardless of file size.
func HashFile(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	digest, err := HashReader(file)
	if err != nil {
		return Digest{}, fmt.Errorf("hashing %s: %w", path, err)
	}
	return digest, nil
}

// HashReader computes the SHA1 digest of everything readable from r.
func HashReader(r io.Reader) (Digest, error) {
	hasher := sha1.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return Digest{}, err
	}

	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// FormatDigest returns the lowercase hex-encoded string representation
// of a SHA1 digest. This is the canonical format used in API requests
// and log output.
func FormatDigest(digest Digest) string {
	return hex.EncodeToString(digest[:])
}
