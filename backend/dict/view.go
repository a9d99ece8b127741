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

// FrozenView is an immutable snapshot of a BTree taken by Freeze. Any
// number of goroutines may traverse it concurrently without locking; it
// never observes effects of mutations applied after it was taken. The
// caller is responsible for holding a generation guard spanning the
// traversal, so the nodes the view references are not reclaimed under it.
type FrozenView[K any] struct {
	root node[K]
	size int
}

// Size returns the number of keys captured by this view.
func (v *FrozenView[K]) Size() int {
	return v.size
}

// ForEach visits all keys of this view in ascending order.
func (v *FrozenView[K]) ForEach(visit func(K)) {
	v.root.forEach(visit)
}

// NewIterator creates an iterator over all keys of this view in ascending
// order. Iterators are cheap to create and may be discarded at any point;
// a fresh iterator restarts the traversal from the first key.
func (v *FrozenView[K]) NewIterator() *Iterator[K] {
	return newIterator(v.root)
}

// Iterator is a lazy in-order traversal of one tree snapshot.
type Iterator[K any] struct {
	stack   []iterFrame[K]
	next    K
	hasNext bool
}

// iterFrame remembers the traversal position within one node: for a leaf
// the index of the next key to emit, for an inner node the index of the
// separator key following the child traversed last.
type iterFrame[K any] struct {
	n   node[K]
	pos int
}

func newIterator[K any](root node[K]) *Iterator[K] {
	it := &Iterator[K]{stack: make([]iterFrame[K], 0, 8)}
	it.descend(root)
	it.advance()
	return it
}

// HasNext returns true if there is at least one more key to be emitted.
func (it *Iterator[K]) HasNext() bool {
	return it.hasNext
}

// Next returns the next key. HasNext should be called to find out whether
// there is one; otherwise the returned key must not be used.
func (it *Iterator[K]) Next() K {
	key := it.next
	it.advance()
	return key
}

// descend pushes the path to the leftmost leaf of the given subtree.
func (it *Iterator[K]) descend(n node[K]) {
	for {
		it.stack = append(it.stack, iterFrame[K]{n: n})
		inner, ok := n.(*innerNode[K])
		if !ok {
			return
		}
		n = inner.children[0]
	}
}

func (it *Iterator[K]) advance() {
	it.hasNext = false
	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]
		switch n := top.n.(type) {
		case *leafNode[K]:
			if top.pos < len(n.keys) {
				it.next = n.keys[top.pos]
				top.pos++
				it.hasNext = true
				return
			}
		case *innerNode[K]:
			if top.pos < len(n.keys) {
				it.next = n.keys[top.pos]
				pos := top.pos
				top.pos++
				it.descend(n.children[pos+1])
				it.hasNext = true
				return
			}
		}
		it.stack = it.stack[:len(it.stack)-1]
	}
}
