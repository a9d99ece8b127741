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
	"unsafe"

	"github.com/Fantom-foundation/Hoard/backend/generation"
	"github.com/Fantom-foundation/Hoard/common"
)

// nodeAllocator manages the nodes of one copy-on-write B-tree. Nodes
// retired by mutations are not freed; they are collected on a pending hold
// list since concurrent readers of previously frozen views may still
// traverse them. The owning store moves pending nodes into
// generation-tagged buckets when its generation advances, and only a trim
// with a later first-used generation returns them to the free list for
// re-use.
type nodeAllocator[K any] struct {
	capacity int

	freeLeaves []*leafNode[K]
	freeInners []*innerNode[K]

	// nodes retired since the last hold-list transfer
	pendingLeaves []*leafNode[K]
	pendingInners []*innerNode[K]

	holds []holdList[K]

	numLeaves int // total leaf nodes owned, in whatever state
	numInners int
}

// holdList collects the nodes retired before the generation it is tagged
// with was left.
type holdList[K any] struct {
	generation generation.Generation
	leaves     []*leafNode[K]
	inners     []*innerNode[K]
}

func newNodeAllocator[K any](capacity int) *nodeAllocator[K] {
	return &nodeAllocator[K]{capacity: capacity}
}

// newLeaf hands out an empty mutable leaf, re-using a trimmed node when one
// is available.
func (a *nodeAllocator[K]) newLeaf() *leafNode[K] {
	if n := len(a.freeLeaves); n > 0 {
		leaf := a.freeLeaves[n-1]
		a.freeLeaves = a.freeLeaves[:n-1]
		return leaf
	}
	a.numLeaves++
	return &leafNode[K]{keys: make([]K, 0, a.capacity+1)}
}

func (a *nodeAllocator[K]) newInner() *innerNode[K] {
	if n := len(a.freeInners); n > 0 {
		inner := a.freeInners[n-1]
		a.freeInners = a.freeInners[:n-1]
		return inner
	}
	a.numInners++
	return &innerNode[K]{
		keys:     make([]K, 0, a.capacity+1),
		children: make([]node[K], 0, a.capacity+2),
	}
}

// thawLeaf makes the given leaf writable. A mutable leaf is returned as is;
// a frozen leaf is cloned and the original retired, leaving it untouched
// for readers of previously frozen views.
func (a *nodeAllocator[K]) thawLeaf(n *leafNode[K]) *leafNode[K] {
	if !n.frozen {
		return n
	}
	clone := a.newLeaf()
	clone.keys = append(clone.keys, n.keys...)
	a.retireLeaf(n)
	return clone
}

func (a *nodeAllocator[K]) thawInner(n *innerNode[K]) *innerNode[K] {
	if !n.frozen {
		return n
	}
	clone := a.newInner()
	clone.keys = append(clone.keys, n.keys...)
	clone.children = append(clone.children, n.children...)
	a.retireInner(n)
	return clone
}

// retireLeaf places a node removed from the live structure on the pending
// hold list. The node's content stays intact until the hold list it ends up
// on is trimmed.
func (a *nodeAllocator[K]) retireLeaf(n *leafNode[K]) {
	a.pendingLeaves = append(a.pendingLeaves, n)
}

func (a *nodeAllocator[K]) retireInner(n *innerNode[K]) {
	a.pendingInners = append(a.pendingInners, n)
}

// transferHoldLists tags all pending retired nodes with the given
// generation, making them eligible for trimming once no reader uses that
// generation or an older one.
func (a *nodeAllocator[K]) transferHoldLists(gen generation.Generation) {
	if len(a.pendingLeaves) == 0 && len(a.pendingInners) == 0 {
		return
	}
	if n := len(a.holds); n > 0 && a.holds[n-1].generation == gen {
		a.holds[n-1].leaves = append(a.holds[n-1].leaves, a.pendingLeaves...)
		a.holds[n-1].inners = append(a.holds[n-1].inners, a.pendingInners...)
	} else {
		a.holds = append(a.holds, holdList[K]{
			generation: gen,
			leaves:     a.pendingLeaves,
			inners:     a.pendingInners,
		})
	}
	a.pendingLeaves = nil
	a.pendingInners = nil
}

// trimHoldLists returns all nodes retired at a generation older than the
// given first-used generation to the free list. This is the only operation
// that makes retired nodes reusable.
func (a *nodeAllocator[K]) trimHoldLists(firstUsed generation.Generation) {
	trimmed := 0
	for _, hold := range a.holds {
		if hold.generation >= firstUsed {
			break
		}
		for _, leaf := range hold.leaves {
			leaf.keys = leaf.keys[:0]
			leaf.frozen = false
			a.freeLeaves = append(a.freeLeaves, leaf)
		}
		for _, inner := range hold.inners {
			inner.keys = inner.keys[:0]
			inner.children = inner.children[:0]
			inner.frozen = false
			a.freeInners = append(a.freeInners, inner)
		}
		trimmed++
	}
	a.holds = a.holds[trimmed:]
}

// numHeldNodes reports the number of nodes awaiting reclamation, including
// pending ones not yet transferred.
func (a *nodeAllocator[K]) numHeldNodes() int {
	count := len(a.pendingLeaves) + len(a.pendingInners)
	for _, hold := range a.holds {
		count += len(hold.leaves) + len(hold.inners)
	}
	return count
}

// getMemoryFootprint reports the memory consumed by all owned nodes based
// on the allocator's counters; it never touches the nodes themselves.
func (a *nodeAllocator[K]) getMemoryFootprint() *common.MemoryFootprint {
	var key K
	var child node[K]
	leafSize := unsafe.Sizeof(leafNode[K]{}) + uintptr(a.capacity+1)*unsafe.Sizeof(key)
	innerSize := unsafe.Sizeof(innerNode[K]{}) +
		uintptr(a.capacity+1)*unsafe.Sizeof(key) +
		uintptr(a.capacity+2)*unsafe.Sizeof(child)
	size := unsafe.Sizeof(*a) +
		uintptr(a.numLeaves)*leafSize +
		uintptr(a.numInners)*innerSize
	return common.NewMemoryFootprint(size)
}
