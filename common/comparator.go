// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

// Comparator defines a total order over keys of type K. Implementations
// must be consistent for the duration of a single operation they are
// passed into; the data structures in this repository never inspect key
// contents themselves.
type Comparator[K any] interface {
	// Compare returns a negative number when a is ordered before b,
	// zero when both are equal, and a positive number otherwise.
	Compare(a, b *K) int
}

// Uint32Comparator is a Comparator for unsigned 32-bit integers.
type Uint32Comparator struct{}

func (c Uint32Comparator) Compare(a, b *uint32) int {
	if *a < *b {
		return -1
	}
	if *a > *b {
		return 1
	}
	return 0
}
