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

// buildTree constructs a tree over the given pre-sorted keys in linear
// time, without any comparator involvement. Leaves are filled level by
// level, with keys between two adjacent nodes becoming separator keys of
// the level above. Key counts are distributed evenly so that no node
// exceeds the capacity and every node keeps a sane minimum occupancy.
func buildTree[K any](alloc *nodeAllocator[K], keys []K) node[K] {
	n := len(keys)
	if n <= alloc.capacity {
		leaf := alloc.newLeaf()
		leaf.keys = append(leaf.keys, keys...)
		return leaf
	}

	// the leaf level: numLeaves leaves separated by numLeaves-1 keys
	numLeaves := (n + 1 + alloc.capacity) / (alloc.capacity + 1)
	total := n - (numLeaves - 1)
	base, extra := total/numLeaves, total%numLeaves

	nodes := make([]node[K], 0, numLeaves)
	seps := make([]K, 0, numLeaves-1)
	idx := 0
	for i := 0; i < numLeaves; i++ {
		size := base
		if i < extra {
			size++
		}
		leaf := alloc.newLeaf()
		leaf.keys = append(leaf.keys, keys[idx:idx+size]...)
		idx += size
		nodes = append(nodes, leaf)
		if i < numLeaves-1 {
			seps = append(seps, keys[idx])
			idx++
		}
	}

	// inner levels, until a single root remains
	for len(nodes) > 1 {
		numInners := (len(nodes) + alloc.capacity) / (alloc.capacity + 1)
		base, extra := len(nodes)/numInners, len(nodes)%numInners

		nextNodes := make([]node[K], 0, numInners)
		nextSeps := make([]K, 0, numInners-1)
		childIdx, sepIdx := 0, 0
		for i := 0; i < numInners; i++ {
			count := base
			if i < extra {
				count++
			}
			inner := alloc.newInner()
			for j := 0; j < count; j++ {
				inner.children = append(inner.children, nodes[childIdx])
				childIdx++
				if j < count-1 {
					inner.keys = append(inner.keys, seps[sepIdx])
					sepIdx++
				}
			}
			nextNodes = append(nextNodes, inner)
			if i < numInners-1 {
				nextSeps = append(nextSeps, seps[sepIdx])
				sepIdx++
			}
		}
		nodes, seps = nextNodes, nextSeps
	}
	return nodes[0]
}
