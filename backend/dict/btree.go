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
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/Fantom-foundation/Hoard/backend/generation"
	"github.com/Fantom-foundation/Hoard/common"
)

// BTree is a copy-on-write B-tree shared between a single writer and any
// number of readers. The tree is initialized with a node capacity and kept
// balanced so no node exceeds it. Keys are compared through a comparator
// supplied per operation; the tree never inspects keys itself.
//
// Mutations are not internally synchronized and require external mutual
// exclusion among each other. Readers do not take part in that exclusion:
// they traverse a FrozenView obtained from a previous Freeze, which stays
// valid because mutations clone frozen nodes instead of changing them in
// place. Nodes displaced by such clones, and nodes excised by Remove, are
// parked on generation-tagged hold lists and only re-used after a trim
// confirmed no reader can reach them anymore.
type BTree[K any] struct {
	root  node[K]
	size  int
	alloc *nodeAllocator[K]

	frozen atomic.Pointer[FrozenView[K]]
}

// NewBTree creates an empty tree with the given node capacity. An initial
// empty frozen view is published immediately. The capacity must be at
// least 2.
func NewBTree[K any](nodeCapacity int) *BTree[K] {
	if nodeCapacity < 2 {
		panic(fmt.Sprintf("btree: node capacity %d is too small", nodeCapacity))
	}
	alloc := newNodeAllocator[K](nodeCapacity)
	t := &BTree[K]{
		root:  alloc.newLeaf(),
		alloc: alloc,
	}
	t.Freeze()
	return t
}

// Get locates the stored key comparing equal to the given key. The probe
// key itself is never returned; on a hit the returned key is the one held
// by the tree.
func (t *BTree[K]) Get(comp common.Comparator[K], key K) (K, bool) {
	return t.root.get(comp, key)
}

// Insert adds the input key to this tree. If an equal key already exists,
// nothing happens and false is returned.
func (t *BTree[K]) Insert(comp common.Comparator[K], key K) bool {
	self, right, middle, inserted, split := t.root.insert(t.alloc, comp, key)
	t.root = self
	if split {
		newRoot := t.alloc.newInner()
		newRoot.keys = append(newRoot.keys, middle)
		newRoot.children = append(newRoot.children, self, right)
		t.root = newRoot
	}
	if inserted {
		t.size++
	}
	return inserted
}

// Remove deletes the input key from this tree. If the key does not exist,
// nothing happens and false is returned.
func (t *BTree[K]) Remove(comp common.Comparator[K], key K) bool {
	self, removed := t.root.remove(t.alloc, comp, key)
	t.root = self
	if !removed {
		return false
	}
	t.size--
	// a root that ran out of keys is replaced by its only child
	if inner, ok := t.root.(*innerNode[K]); ok && len(inner.keys) == 0 {
		t.root = inner.children[0]
		t.alloc.retireInner(inner)
	}
	return true
}

// RewriteKeys visits every key in ascending order and replaces those for
// which the rewrite function reports a change. The ordered position of a
// rewritten key must not change; only nodes whose content changes are
// thawed, leaving previously frozen views unaffected.
func (t *BTree[K]) RewriteKeys(rewrite func(K) (K, bool)) {
	t.root = t.root.rewriteKeys(t.alloc, rewrite)
}

// Assign replaces the whole content of this tree by the given keys, which
// must already be in ascending order. The previous structure is retired
// onto the hold list; the new one is built bottom-up in linear time.
func (t *BTree[K]) Assign(keys []K) {
	t.root.retire(t.alloc)
	t.root = buildTree(t.alloc, keys)
	t.size = len(keys)
}

// ForEach iterates over this tree and visits all keys in ascending order.
// It observes the live structure and may only be called by the writer.
func (t *BTree[K]) ForEach(visit func(K)) {
	t.root.forEach(visit)
}

// Size returns the number of keys in the live structure.
func (t *BTree[K]) Size() int {
	return t.size
}

// Freeze marks the current structure immutable and publishes it as the new
// frozen view. Later mutations will clone the nodes they touch, leaving
// the published view traversable by concurrent readers.
func (t *BTree[K]) Freeze() *FrozenView[K] {
	t.root.freeze()
	view := &FrozenView[K]{root: t.root, size: t.size}
	t.frozen.Store(view)
	return view
}

// GetFrozenView returns the most recently published frozen view. It is
// safe to call from any goroutine.
func (t *BTree[K]) GetFrozenView() *FrozenView[K] {
	return t.frozen.Load()
}

// TransferHoldLists tags all nodes retired since the last transfer with
// the given generation.
func (t *BTree[K]) TransferHoldLists(gen generation.Generation) {
	t.alloc.transferHoldLists(gen)
}

// TrimHoldLists reclaims all nodes retired at generations older than the
// given first-used generation.
func (t *BTree[K]) TrimHoldLists(firstUsed generation.Generation) {
	t.alloc.trimHoldLists(firstUsed)
}

// GetMemoryFootprint provides the memory consumed by this tree, including
// retired nodes not yet reclaimed.
func (t *BTree[K]) GetMemoryFootprint() *common.MemoryFootprint {
	mf := common.NewMemoryFootprint(unsafe.Sizeof(*t))
	mf.AddChild("nodes", t.alloc.getMemoryFootprint())
	return mf
}

func (t *BTree[K]) String() string {
	return fmt.Sprintf("%v", t.root)
}

// checkProperties verifies the structural invariants of the live tree and
// that its keys are strictly increasing under the given comparator.
func (t *BTree[K]) checkProperties(comp common.Comparator[K]) error {
	leafDepth := -1
	if err := t.root.check(t.alloc.capacity, true, 0, &leafDepth); err != nil {
		return err
	}
	count := 0
	var prev K
	var failure error
	t.root.forEach(func(key K) {
		if count > 0 && failure == nil && comp.Compare(&prev, &key) >= 0 {
			failure = fmt.Errorf("keys not strictly increasing: %v before %v", prev, key)
		}
		prev = key
		count++
	})
	if failure != nil {
		return failure
	}
	if count != t.size {
		return fmt.Errorf("wrong size, counted %d, recorded %d", count, t.size)
	}
	return nil
}
