// Copyright 2026 The Symkeep Authors
// SPDX-License-Identifier: Apache-2.0

package dsym

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// UUIDSet is a set of debug identifiers. The zero value is not usable;
// construct with NewUUIDSet. Being a map type, a UUIDSet is shared by
// reference: handing the same set to several BatchIterators makes them
// deduplicate against each other.
type UUIDSet map[uuid.UUID]struct{}

// NewUUIDSet returns a set holding the given identifiers.
func NewUUIDSet(ids ...uuid.UUID) UUIDSet {
	set := make(UUIDSet, len(ids))
	for _, id := range ids {
		set.Add(id)
	}
	return set
}

// ParseUUIDSet parses canonical identifier strings into a set. Used
// for caller-supplied target identifiers; the first unparseable value
// fails the whole call.
func ParseUUIDSet(values []string) (UUIDSet, error) {
	set := make(UUIDSet, len(values))
	for _, value := range values {
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("parsing debug identifier %q: %w", value, err)
		}
		set.Add(id)
	}
	return set, nil
}

// Add inserts id into the set.
func (s UUIDSet) Add(id uuid.UUID) {
	s[id] = struct{}{}
}

// Contains reports whether id is in the set.
func (s UUIDSet) Contains(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

// ContainsAll reports whether every identifier in other is in s.
func (s UUIDSet) ContainsAll(other UUIDSet) bool {
	for id := range other {
		if !s.Contains(id) {
			return false
		}
	}
	return true
}

// Len returns the number of identifiers in the set.
func (s UUIDSet) Len() int {
	return len(s)
}

// Difference returns the identifiers in s that are not in other,
// sorted byte-wise for stable reporting.
func (s UUIDSet) Difference(other UUIDSet) []uuid.UUID {
	var ids []uuid.UUID
	for id := range s {
		if !other.Contains(id) {
			ids = append(ids, id)
		}
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return ids
}
