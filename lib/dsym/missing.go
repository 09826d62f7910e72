// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package dsym

// SelectMissing filters refs down to the records whose checksums
// appear in missing, preserving input order. The missing list is
// typically a symbol server's answer to "which of these checksums do
// you not hold yet".
func SelectMissing(refs []*SymbolRef, missing []string) []*SymbolRef {
	missingSet := make(map[string]struct{}, len(missing))
	for _, sum := range missing {
		missingSet[sum] = struct{}{}
	}

	var keep []*SymbolRef
	for _, ref := range refs {
		if _, ok := missingSet[ref.Checksum]; ok {
			keep = append(keep, ref)
		}
	}
	return keep
}
