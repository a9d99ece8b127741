// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package store

import (
	"fmt"

	"github.com/Fantom-foundation/Hoard/backend/arena"
)

// ForEachEntry visits every entry of the most recently committed content
// together with its reference count, in ascending value order. This is a
// writer-side operation used to persist the store; reference counts are
// not stable under concurrent mutations.
func (s *UniqueStore) ForEachEntry(visit func(ref arena.Handle, value []byte, refCount uint32)) {
	s.dict.ForEachKey(s.dict.GetFrozenView(), func(ref arena.Handle) {
		visit(ref, s.arena.Get(ref), s.arena.RefCount(ref))
	})
}

// Rehydrate replaces the store's content from persisted entries sorted in
// ascending value order. Entries with a zero reference count get a value
// slot but no dictionary entry and are staged for reclamation, mirroring
// how they were pending at save time. The store must be freshly created.
func (s *UniqueStore) Rehydrate(values [][]byte, refCounts []uint32) error {
	if len(values) != len(refCounts) {
		return fmt.Errorf("mismatching rehydration input lengths, %d != %d", len(values), len(refCounts))
	}
	if s.arena.NumValues() != 0 {
		return fmt.Errorf("rehydrating a non-empty store")
	}
	refs := make([]arena.Handle, 0, len(values)+1)
	counts := make([]uint32, 0, len(values)+1)
	refs = append(refs, arena.Nil)
	counts = append(counts, 0)
	for i, value := range values {
		refs = append(refs, s.arena.Adopt(value, refCounts[i]))
		counts = append(counts, refCounts[i])
	}
	s.dict.Build(refs, counts, func(ref arena.Handle) {
		s.pendingHandles = append(s.pendingHandles, ref)
	})
	s.Commit()
	s.log.Info("rehydrated", "values", len(values), "uniques", s.dict.GetNumUniques())
	return nil
}
