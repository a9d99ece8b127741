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

	"github.com/Fantom-foundation/Hoard/common"
)

// innerNode contains keys as the leafNode, in addition, it contains an
// array of child nodes. The subtree below children[i] holds keys ordered
// before keys[i]; the subtree below children[i+1] holds keys ordered after.
type innerNode[K any] struct {
	keys     []K
	children []node[K]
	frozen   bool
}

func (m *innerNode[K]) get(comp common.Comparator[K], key K) (stored K, exists bool) {
	index, exists := findItem(m.keys, comp, key)
	if exists {
		return m.keys[index], true
	}
	return m.children[index].get(comp, key)
}

func (m *innerNode[K]) insert(alloc *nodeAllocator[K], comp common.Comparator[K], key K) (self node[K], right node[K], middle K, inserted, split bool) {
	index, exists := findItem(m.keys, comp, key)
	if exists {
		return m, nil, middle, false, false
	}

	child, childRight, childMiddle, inserted, childSplit := m.children[index].insert(alloc, comp, key)
	if !inserted {
		return m, nil, middle, false, false
	}

	n := alloc.thawInner(m)
	n.children[index] = child
	if childSplit {
		n.insertAt(childMiddle, childRight, index)
	}

	// check and potentially split this node
	if len(n.keys) == alloc.capacity+1 {
		r, mid := n.split(alloc)
		return n, r, mid, true, true
	}
	return n, nil, middle, true, false
}

func (m *innerNode[K]) remove(alloc *nodeAllocator[K], comp common.Comparator[K], key K) (self node[K], removed bool) {
	index, exists := findItem(m.keys, comp, key)
	if exists {
		// The key separates two subtrees and cannot be excised directly;
		// it is replaced by its in-order predecessor, which is removed
		// from the left subtree instead.
		pred := m.children[index].max()
		child, _ := m.children[index].remove(alloc, comp, pred)
		n := alloc.thawInner(m)
		n.keys[index] = pred
		n.children[index] = child
		n.rebalance(alloc, index)
		return n, true
	}

	child, removed := m.children[index].remove(alloc, comp, key)
	if !removed {
		return m, false
	}
	n := alloc.thawInner(m)
	n.children[index] = child
	n.rebalance(alloc, index)
	return n, true
}

func (m *innerNode[K]) rewriteKeys(alloc *nodeAllocator[K], rewrite func(K) (K, bool)) node[K] {
	cur := m
	for i := 0; i < len(cur.children); i++ {
		child := cur.children[i].rewriteKeys(alloc, rewrite)
		if child != cur.children[i] {
			cur = alloc.thawInner(cur)
			cur.children[i] = child
		}
		if i < len(cur.keys) {
			newKey, changed := rewrite(cur.keys[i])
			if changed {
				cur = alloc.thawInner(cur)
				cur.keys[i] = newKey
			}
		}
	}
	return cur
}

func (m *innerNode[K]) freeze() {
	if m.frozen {
		return
	}
	m.frozen = true
	for _, child := range m.children {
		child.freeze()
	}
}

func (m *innerNode[K]) retire(alloc *nodeAllocator[K]) {
	for _, child := range m.children {
		child.retire(alloc)
	}
	alloc.retireInner(m)
}

// insertAt extends this node by one key and its associated right child at
// the input position. The keys and children beyond are shifted right.
func (m *innerNode[K]) insertAt(key K, right node[K], index int) {
	m.keys = append(m.keys, key)
	copy(m.keys[index+1:], m.keys[index:])
	m.keys[index] = key

	m.children = append(m.children, right)
	copy(m.children[index+2:], m.children[index+1:])
	m.children[index+1] = right
}

// split this node into two. Keys and children in this node are reduced to
// half and the other half is put in the output node.
func (m *innerNode[K]) split(alloc *nodeAllocator[K]) (right *innerNode[K], middle K) {
	right = alloc.newInner()
	midIndex := len(m.keys) / 2
	middle = m.keys[midIndex]

	right.keys = append(right.keys, m.keys[midIndex+1:]...)
	m.keys = m.keys[:midIndex]

	right.children = append(right.children, m.children[midIndex+1:]...)
	m.children = m.children[:midIndex+1]
	return
}

// rebalance restores the minimum occupancy of the child at the given index
// after a removal, either by borrowing a key from a sibling through the
// separating key, or by merging the child with a sibling. The receiver must
// be thawed.
func (m *innerNode[K]) rebalance(alloc *nodeAllocator[K], index int) {
	minKeys := alloc.capacity / 2
	if m.children[index].numKeys() >= minKeys {
		return
	}
	if index > 0 && m.children[index-1].numKeys() > minKeys {
		m.rotateRight(alloc, index)
		return
	}
	if index+1 < len(m.children) && m.children[index+1].numKeys() > minKeys {
		m.rotateLeft(alloc, index)
		return
	}
	if index > 0 {
		m.mergeChildren(alloc, index-1)
	} else if index+1 < len(m.children) {
		m.mergeChildren(alloc, index)
	}
}

// rotateRight moves the last key of the left sibling into the separator
// position and the previous separator down into the deficient child.
func (m *innerNode[K]) rotateRight(alloc *nodeAllocator[K], index int) {
	switch child := m.children[index].(type) {
	case *leafNode[K]:
		left := alloc.thawLeaf(m.children[index-1].(*leafNode[K]))
		c := alloc.thawLeaf(child)
		c.insertAt(m.keys[index-1], 0)
		m.keys[index-1] = left.keys[len(left.keys)-1]
		left.keys = left.keys[:len(left.keys)-1]
		m.children[index-1] = left
		m.children[index] = c
	case *innerNode[K]:
		left := alloc.thawInner(m.children[index-1].(*innerNode[K]))
		c := alloc.thawInner(child)
		c.keys = prepend(c.keys, m.keys[index-1])
		c.children = prepend(c.children, left.children[len(left.children)-1])
		m.keys[index-1] = left.keys[len(left.keys)-1]
		left.keys = left.keys[:len(left.keys)-1]
		left.children = left.children[:len(left.children)-1]
		m.children[index-1] = left
		m.children[index] = c
	}
}

// rotateLeft moves the first key of the right sibling into the separator
// position and the previous separator down into the deficient child.
func (m *innerNode[K]) rotateLeft(alloc *nodeAllocator[K], index int) {
	switch child := m.children[index].(type) {
	case *leafNode[K]:
		right := alloc.thawLeaf(m.children[index+1].(*leafNode[K]))
		c := alloc.thawLeaf(child)
		c.keys = append(c.keys, m.keys[index])
		m.keys[index] = right.keys[0]
		right.keys = right.keys[:copy(right.keys, right.keys[1:])]
		m.children[index] = c
		m.children[index+1] = right
	case *innerNode[K]:
		right := alloc.thawInner(m.children[index+1].(*innerNode[K]))
		c := alloc.thawInner(child)
		c.keys = append(c.keys, m.keys[index])
		c.children = append(c.children, right.children[0])
		m.keys[index] = right.keys[0]
		right.keys = right.keys[:copy(right.keys, right.keys[1:])]
		right.children = right.children[:copy(right.children, right.children[1:])]
		m.children[index] = c
		m.children[index+1] = right
	}
}

// mergeChildren joins the children at index and index+1 with their
// separating key into a single node, retiring the right child.
func (m *innerNode[K]) mergeChildren(alloc *nodeAllocator[K], index int) {
	switch left := m.children[index].(type) {
	case *leafNode[K]:
		right := m.children[index+1].(*leafNode[K])
		l := alloc.thawLeaf(left)
		l.keys = append(l.keys, m.keys[index])
		l.keys = append(l.keys, right.keys...)
		alloc.retireLeaf(right)
		m.children[index] = l
	case *innerNode[K]:
		right := m.children[index+1].(*innerNode[K])
		l := alloc.thawInner(left)
		l.keys = append(l.keys, m.keys[index])
		l.keys = append(l.keys, right.keys...)
		l.children = append(l.children, right.children...)
		alloc.retireInner(right)
		m.children[index] = l
	}
	m.keys = append(m.keys[:index], m.keys[index+1:]...)
	m.children = append(m.children[:index+1], m.children[index+2:]...)
}

func (m *innerNode[K]) forEach(visit func(K)) {
	for i, child := range m.children {
		child.forEach(visit)
		if i < len(m.keys) {
			visit(m.keys[i])
		}
	}
}

func (m *innerNode[K]) max() K {
	return m.children[len(m.children)-1].max()
}

func (m *innerNode[K]) numKeys() int {
	return len(m.keys)
}

func (m *innerNode[K]) check(capacity int, isRoot bool, depth int, leafDepth *int) error {
	if len(m.children) != len(m.keys)+1 {
		return fmt.Errorf("inner node with %d keys has %d children", len(m.keys), len(m.children))
	}
	if len(m.keys) > capacity {
		return fmt.Errorf("inner node exceeds capacity: %d > %d", len(m.keys), capacity)
	}
	if !isRoot && len(m.keys) == 0 {
		return fmt.Errorf("non-root inner node is empty")
	}
	for _, child := range m.children {
		if err := child.check(capacity, false, depth+1, leafDepth); err != nil {
			return err
		}
	}
	return nil
}

func (m innerNode[K]) String() string {
	return fmt.Sprintf("%v", m.children)
}
