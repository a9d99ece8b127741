// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package arena

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// IndexSet is a compressed set of handles. It is the representation used
// for snapshots of the allocated-handle population, where the elements are
// mostly continuous runs interrupted by released slots.
type IndexSet struct {
	bits *roaring.Bitmap
}

// NewIndexSet creates an empty set.
func NewIndexSet() *IndexSet {
	return &IndexSet{bits: roaring.New()}
}

// Add inserts the given handle into this set.
func (s *IndexSet) Add(handle Handle) {
	s.bits.Add(uint32(handle))
}

// Contains tests whether the given handle is part of this set.
func (s *IndexSet) Contains(handle Handle) bool {
	return s.bits.Contains(uint32(handle))
}

// Size returns the number of handles in this set.
func (s *IndexSet) Size() int {
	return int(s.bits.GetCardinality())
}

// ForEach visits all handles in this set in ascending order.
func (s *IndexSet) ForEach(visit func(Handle)) {
	s.bits.Iterate(func(value uint32) bool {
		visit(Handle(value))
		return true
	})
}
