// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package dict

import (
	"github.com/Fantom-foundation/Hoard/common"
)

// node is one node of the copy-on-write B-tree. Mutating operations never
// modify a frozen node in place; they clone the node, retire the original
// onto the allocator's hold list, and return the clone. Callers must
// therefore always adopt the returned node pointer in place of the one the
// operation was invoked on.
type node[K any] interface {
	// get locates the given key and returns the stored key that compared
	// equal to it. The probe key itself is never returned.
	get(comp common.Comparator[K], key K) (stored K, exists bool)

	// insert finds the in-order position of the key and inserts it into the
	// subtree rooted by this node. When the key already exists, nothing
	// happens. When the node exceeds its capacity it is split in two and the
	// middle key is handed to the caller to be inserted into the parent.
	// The effective node, the split-off right node, the middle key, and the
	// inserted and split flags are returned.
	insert(alloc *nodeAllocator[K], comp common.Comparator[K], key K) (self node[K], right node[K], middle K, inserted, split bool)

	// remove deletes the key from the subtree rooted by this node,
	// rebalancing children that fall below the minimum occupancy. It
	// returns the effective node and whether the key was present.
	remove(alloc *nodeAllocator[K], comp common.Comparator[K], key K) (self node[K], removed bool)

	// rewriteKeys visits every key of the subtree in ascending order and
	// replaces those for which the rewrite function reports a change,
	// thawing only nodes whose content actually changes.
	rewriteKeys(alloc *nodeAllocator[K], rewrite func(K) (K, bool)) node[K]

	// freeze marks this node and its entire subtree immutable. Subtrees
	// that are already frozen are skipped.
	freeze()

	// retire places this node and its entire subtree on the allocator's
	// hold list.
	retire(alloc *nodeAllocator[K])

	// forEach visits all keys of the subtree in ascending order.
	forEach(visit func(K))

	// max returns the largest key of the subtree. The subtree must not be
	// empty.
	max() K

	// numKeys returns the number of keys stored in this node alone.
	numKeys() int

	// check verifies the structural invariants of the subtree: uniform leaf
	// depth and node occupancy within capacity.
	check(capacity int, isRoot bool, depth int, leafDepth *int) error
}

// findItem locates a key in a sorted key list using binary search.
// It returns the index of the key and true when found. Otherwise it returns
// false and the position at which the key would have to be inserted to keep
// the list sorted.
func findItem[K any](keys []K, comp common.Comparator[K], key K) (index int, exists bool) {
	end := len(keys) - 1
	var res, start, mid int
	for start <= end {
		mid = (start + end) / 2
		res = comp.Compare(&keys[mid], &key)
		if res == 0 {
			return mid, true
		} else if res < 0 {
			start = mid + 1
		} else {
			end = mid - 1
		}
	}

	if res < 0 {
		mid += 1
	}
	return mid, false
}

// prepend inserts an item at the front of a list.
func prepend[T any](list []T, item T) []T {
	list = append(list, item)
	copy(list[1:], list)
	list[0] = item
	return list
}
