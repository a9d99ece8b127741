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
	"github.com/Fantom-foundation/Hoard/backend/arena"
	"github.com/Fantom-foundation/Hoard/backend/dict"
	"github.com/Fantom-foundation/Hoard/backend/generation"
)

// View is an immutable snapshot of the store's content at the commit it
// was opened after. It pins its generation against reclamation; a view
// that is no longer needed must be released, or the retired structures it
// can still reach are never recycled.
type View struct {
	view  *dict.FrozenView[arena.Handle]
	guard *generation.Guard
	arena *arena.ByteArena
}

// Size returns the number of distinct values in the view.
func (v *View) Size() int {
	return v.view.Size()
}

// Get resolves a handle of this view to its value. The returned slice must
// not be modified.
func (v *View) Get(ref arena.Handle) []byte {
	return v.arena.Get(ref)
}

// ForEach visits every entry of the view in ascending value order.
func (v *View) ForEach(visit func(ref arena.Handle, value []byte)) {
	v.view.ForEach(func(ref arena.Handle) {
		visit(ref, v.arena.Get(ref))
	})
}

// NewIterator provides entry-by-entry access in ascending value order.
func (v *View) NewIterator() *dict.Iterator[arena.Handle] {
	return v.view.NewIterator()
}

// Release unpins the view's generation. The view must not be used
// afterwards.
func (v *View) Release() {
	v.guard.Release()
}
