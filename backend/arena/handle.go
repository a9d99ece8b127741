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

// Handle is an opaque reference to one value stored in an arena. Handles
// mirror pointers of a memory-management system: the arena's Allocate
// operation hands them out and the Release operation returns the referenced
// slot for re-use. The zero handle is reserved as the universal null value
// and never denotes a stored value.
type Handle uint32

// Nil is the reserved null handle.
const Nil Handle = 0

// Valid returns true when the handle denotes a stored value.
func (h Handle) Valid() bool {
	return h != Nil
}
