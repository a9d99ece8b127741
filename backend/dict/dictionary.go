// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package dict provides the ordered dictionary over deduplicated value
// handles. The dictionary keeps a strict total order over all indexed
// handles, defined by comparators supplied per operation, and offers
// immutable frozen views that concurrent readers traverse without
// synchronization while a single writer keeps mutating the live structure.
//
// The dictionary does not track readers. The owning store must drive the
// generation protocol: Freeze to publish, TransferHoldLists when its
// generation advances, and TrimHoldLists once it established that no
// reader uses an older generation.
package dict

import (
	"fmt"

	"github.com/Fantom-foundation/Hoard/backend/arena"
	"github.com/Fantom-foundation/Hoard/backend/generation"
	"github.com/Fantom-foundation/Hoard/common"
)

//go:generate mockgen -source dictionary.go -destination dictionary_mocks.go -package dict

// Compactable is the relocation capability supplied to MoveEntries. It is
// implemented by the arena owning the stored values.
type Compactable interface {
	// Move relocates the value behind the given handle to defragment
	// storage and returns its possibly new handle. Relocation changes only
	// the storage address, never the value, so the order of the handle
	// under any value comparator is unaffected.
	Move(ref arena.Handle) arena.Handle
}

// Comparator orders handles by the values they denote. The null handle
// takes the place of a probe value not yet present in the store; where the
// probe value comes from is a contract between the caller and the
// comparator.
type Comparator = common.Comparator[arena.Handle]

// Dictionary is the ordered set of all handles a deduplicating value store
// hands out. Each distinct value is indexed at most once.
//
// All mutating operations require external mutual exclusion; frozen views
// obtained through GetFrozenView are safe for concurrent readers.
type Dictionary struct {
	tree *BTree[arena.Handle]
}

// NewDictionary creates an empty dictionary using the given B-tree node
// capacity.
func NewDictionary(nodeCapacity int) *Dictionary {
	return &Dictionary{tree: NewBTree[arena.Handle](nodeCapacity)}
}

// Add looks up the entry comparing equal to the comparator's probe value.
// On a hit the existing handle is returned and nothing is allocated. On a
// miss the allocate capability is invoked exactly once, and the handle it
// returns is inserted at the probed position. The returned flag reports
// whether an insertion took place.
func (d *Dictionary) Add(comp Comparator, allocate func() arena.Handle) (arena.Handle, bool) {
	if existing, exists := d.tree.Get(comp, arena.Nil); exists {
		return existing, false
	}
	ref := allocate()
	d.tree.Insert(comp, ref)
	return ref, true
}

// Find returns the handle of the entry comparing equal to the comparator's
// probe value, or the null handle if there is none.
func (d *Dictionary) Find(comp Comparator) arena.Handle {
	existing, exists := d.tree.Get(comp, arena.Nil)
	if !exists {
		return arena.Nil
	}
	return existing
}

// Remove excises the entry of the given handle from the dictionary. The
// handle must be valid and present at the position located by the
// comparator; a violation is a programming error and aborts. The removed
// entry's value slot is not freed here; it is the caller's to reclaim once
// its own hold lists confirm no reader can reach it.
func (d *Dictionary) Remove(comp Comparator, ref arena.Handle) {
	if !ref.Valid() {
		panic("dict: removing an invalid handle")
	}
	existing, exists := d.tree.Get(comp, ref)
	if !exists || existing != ref {
		panic(fmt.Sprintf("dict: handle %d is not present at its probed position", ref))
	}
	d.tree.Remove(comp, ref)
}

// MoveEntries iterates every live entry in ascending order and asks the
// compactable capability to relocate its value. Entries whose handle
// changed are rewritten in place through copy-on-write, leaving
// concurrently held frozen views unaffected.
func (d *Dictionary) MoveEntries(compactable Compactable) {
	d.tree.RewriteKeys(func(ref arena.Handle) (arena.Handle, bool) {
		newRef := compactable.Move(ref)
		return newRef, newRef != ref
	})
}

// Build replaces the dictionary content from parallel sequences of
// candidate handles and their reference counts, as they come out of a
// persisted snapshot. Both sequences must be of equal, nonzero length and
// sorted by denoted value; index 0 is the reserved null entry and skipped.
// Handles with a zero reference count are not indexed but reported through
// the hold callback so the caller can release their value slots. The built
// structure replaces the previous one, which is retired onto the hold
// list.
func (d *Dictionary) Build(refs []arena.Handle, refCounts []uint32, hold func(arena.Handle)) {
	if len(refs) != len(refCounts) {
		panic(fmt.Sprintf("dict: mismatching build input lengths, %d != %d", len(refs), len(refCounts)))
	}
	if len(refs) == 0 {
		panic("dict: empty build input")
	}
	keys := make([]arena.Handle, 0, len(refs)-1)
	for i := 1; i < len(refs); i++ {
		if refCounts[i] != 0 {
			keys = append(keys, refs[i])
		} else {
			hold(refs[i])
		}
	}
	d.tree.Assign(keys)
}

// Freeze publishes the current content as a new immutable frozen view.
func (d *Dictionary) Freeze() {
	d.tree.Freeze()
}

// GetFrozenView returns the most recently published frozen view. Safe to
// call from any goroutine; the caller must guard the generation for the
// time it keeps using the view.
func (d *Dictionary) GetFrozenView() *FrozenView[arena.Handle] {
	return d.tree.GetFrozenView()
}

// ForEachKey visits every handle of the given frozen view in ascending
// order.
func (d *Dictionary) ForEachKey(view *FrozenView[arena.Handle], visit func(arena.Handle)) {
	view.ForEach(visit)
}

// TransferHoldLists tags everything retired since the last transfer with
// the given generation. To be called by the owning store when its
// generation advances.
func (d *Dictionary) TransferHoldLists(gen generation.Generation) {
	d.tree.TransferHoldLists(gen)
}

// TrimHoldLists reclaims everything retired at generations older than
// firstUsed. This is the only irreversible operation of the reclamation
// protocol.
func (d *Dictionary) TrimHoldLists(firstUsed generation.Generation) {
	d.tree.TrimHoldLists(firstUsed)
}

// GetNumUniques returns the number of distinct values indexed by the last
// published frozen view.
func (d *Dictionary) GetNumUniques() int {
	return d.tree.GetFrozenView().Size()
}

// GetMemoryFootprint provides the memory consumed by the dictionary,
// including retired nodes awaiting reclamation.
func (d *Dictionary) GetMemoryFootprint() *common.MemoryFootprint {
	return d.tree.GetMemoryFootprint()
}
