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

// leafNode contains a sorted list of keys and no children.
type leafNode[K any] struct {
	keys   []K
	frozen bool
}

func (m *leafNode[K]) get(comp common.Comparator[K], key K) (stored K, exists bool) {
	index, exists := findItem(m.keys, comp, key)
	if exists {
		return m.keys[index], true
	}
	return stored, false
}

func (m *leafNode[K]) insert(alloc *nodeAllocator[K], comp common.Comparator[K], key K) (self node[K], right node[K], middle K, inserted, split bool) {
	index, exists := findItem(m.keys, comp, key)
	if exists {
		return m, nil, middle, false, false
	}

	l := alloc.thawLeaf(m)
	l.insertAt(key, index)

	// split when overflow
	if len(l.keys) == alloc.capacity+1 {
		r, mid := l.split(alloc)
		return l, r, mid, true, true
	}
	return l, nil, middle, true, false
}

func (m *leafNode[K]) remove(alloc *nodeAllocator[K], comp common.Comparator[K], key K) (self node[K], removed bool) {
	index, exists := findItem(m.keys, comp, key)
	if !exists {
		return m, false
	}
	l := alloc.thawLeaf(m)
	l.keys = append(l.keys[:index], l.keys[index+1:]...)
	return l, true
}

func (m *leafNode[K]) rewriteKeys(alloc *nodeAllocator[K], rewrite func(K) (K, bool)) node[K] {
	cur := m
	for i := 0; i < len(cur.keys); i++ {
		newKey, changed := rewrite(cur.keys[i])
		if changed {
			cur = alloc.thawLeaf(cur)
			cur.keys[i] = newKey
		}
	}
	return cur
}

func (m *leafNode[K]) freeze() {
	if !m.frozen {
		m.frozen = true
	}
}

func (m *leafNode[K]) retire(alloc *nodeAllocator[K]) {
	alloc.retireLeaf(m)
}

// insertAt extends the key list by one item and inserts the input key at
// the input position. The keys beyond this index are shifted right.
func (m *leafNode[K]) insertAt(key K, index int) {
	m.keys = append(m.keys, key)
	copy(m.keys[index+1:], m.keys[index:])
	m.keys[index] = key
}

// split this node into two. Keys in this node are reduced to half and the
// other half is put in the output node. The middle key is returned to be
// moved into the parent.
func (m *leafNode[K]) split(alloc *nodeAllocator[K]) (right *leafNode[K], middle K) {
	right = alloc.newLeaf()
	midIndex := len(m.keys) / 2
	right.keys = append(right.keys, m.keys[midIndex+1:]...)
	middle = m.keys[midIndex]
	m.keys = m.keys[:midIndex]
	return
}

func (m *leafNode[K]) forEach(visit func(K)) {
	for _, key := range m.keys {
		visit(key)
	}
}

func (m *leafNode[K]) max() K {
	return m.keys[len(m.keys)-1]
}

func (m *leafNode[K]) numKeys() int {
	return len(m.keys)
}

func (m *leafNode[K]) check(capacity int, isRoot bool, depth int, leafDepth *int) error {
	if *leafDepth < 0 {
		*leafDepth = depth
	} else if *leafDepth != depth {
		return fmt.Errorf("leaf depth not uniform: %d != %d", depth, *leafDepth)
	}
	if len(m.keys) > capacity {
		return fmt.Errorf("leaf exceeds capacity: %d > %d", len(m.keys), capacity)
	}
	if !isRoot && len(m.keys) == 0 {
		return fmt.Errorf("non-root leaf is empty")
	}
	return nil
}

func (m leafNode[K]) String() string {
	return fmt.Sprintf("%v", m.keys)
}
