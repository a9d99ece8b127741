// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package store

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/Fantom-foundation/Hoard/backend/arena"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniqueStoreAddDeduplicates(t *testing.T) {
	s := NewUniqueStore(Config{})

	first := s.Add([]byte("hello"))
	second := s.Add([]byte("hello"))
	other := s.Add([]byte("world"))

	assert.Equal(t, first, second, "same value must resolve to the same handle")
	assert.NotEqual(t, first, other, "distinct values must get distinct handles")
	assert.Equal(t, []byte("hello"), s.Get(first))
	assert.Equal(t, []byte("world"), s.Get(other))
}

func TestUniqueStoreFind(t *testing.T) {
	s := NewUniqueStore(Config{})
	ref := s.Add([]byte("hello"))

	found, exists := s.Find([]byte("hello"))
	require.True(t, exists)
	assert.Equal(t, ref, found)

	_, exists = s.Find([]byte("world"))
	assert.False(t, exists)
}

func TestUniqueStoreReleaseKeepsSharedValues(t *testing.T) {
	s := NewUniqueStore(Config{})
	ref := s.Add([]byte("hello"))
	s.Add([]byte("hello")) // second reference

	s.Release(ref)

	found, exists := s.Find([]byte("hello"))
	require.True(t, exists, "value with remaining references must stay")
	assert.Equal(t, ref, found)
}

func TestUniqueStoreReleaseOfLastReferenceRemovesEntry(t *testing.T) {
	s := NewUniqueStore(Config{})
	ref := s.Add([]byte("hello"))

	s.Release(ref)

	_, exists := s.Find([]byte("hello"))
	assert.False(t, exists, "fully released value must leave the dictionary")

	// the slot is still resolvable until reclaimed
	assert.Equal(t, []byte("hello"), s.Get(ref))
}

func TestUniqueStoreSlotRecycledOnlyAfterCommitAndReclaim(t *testing.T) {
	s := NewUniqueStore(Config{})
	ref := s.Add([]byte("hello"))
	s.Release(ref)

	// neither release nor commit alone frees the slot
	s.Commit()
	assert.Equal(t, []byte("hello"), s.Get(ref))

	s.Reclaim()
	assert.Panics(t, func() { s.Get(ref) }, "reclaimed slot must not resolve")
}

func TestUniqueStoreReclaimBlockedByViewGuard(t *testing.T) {
	s := NewUniqueStore(Config{})
	ref := s.Add([]byte("hello"))
	s.Commit()

	view := s.View()
	s.Release(ref)
	s.Commit()
	s.Reclaim()

	// the view still pins the generation in which the value was live
	assert.Equal(t, []byte("hello"), view.Get(ref))

	view.Release()
	s.Reclaim()
	assert.Panics(t, func() { s.Get(ref) })
}

func TestUniqueStoreViewIsolatedFromLaterMutations(t *testing.T) {
	s := NewUniqueStore(Config{})
	s.Add([]byte("a"))
	s.Add([]byte("c"))
	s.Commit()

	view := s.View()
	defer view.Release()

	s.Add([]byte("b"))
	s.Commit()

	assert.Equal(t, 2, view.Size())
	values := [][]byte{}
	view.ForEach(func(_ arena.Handle, value []byte) {
		values = append(values, value)
	})
	assert.Equal(t, [][]byte{[]byte("a"), []byte("c")}, values)

	fresh := s.View()
	defer fresh.Release()
	assert.Equal(t, 3, fresh.Size())
}

func TestUniqueStoreViewIteratesInValueOrder(t *testing.T) {
	s := NewUniqueStore(Config{})
	for _, value := range []string{"pear", "apple", "quince", "fig"} {
		s.Add([]byte(value))
	}
	s.Commit()

	view := s.View()
	defer view.Release()

	last := []byte(nil)
	view.ForEach(func(ref arena.Handle, value []byte) {
		assert.Equal(t, value, view.Get(ref))
		if last != nil {
			assert.Negative(t, bytes.Compare(last, value), "iteration out of order")
		}
		last = value
	})
}

func TestUniqueStoreGetNumUniquesFollowsCommits(t *testing.T) {
	s := NewUniqueStore(Config{})
	s.Add([]byte("a"))
	s.Add([]byte("b"))

	assert.Equal(t, 0, s.GetNumUniques(), "uncommitted content must not count")
	s.Commit()
	assert.Equal(t, 2, s.GetNumUniques())

	s.Add([]byte("c"))
	assert.Equal(t, 2, s.GetNumUniques())
	s.Commit()
	assert.Equal(t, 3, s.GetNumUniques())
}

func TestUniqueStoreCompactPreservesContent(t *testing.T) {
	s := NewUniqueStore(Config{})
	handles := map[string]arena.Handle{}
	for i := 0; i < 100; i++ {
		value := fmt.Sprintf("value-%03d", i)
		handles[value] = s.Add([]byte(value))
	}
	s.Commit()

	view := s.View()
	s.Compact()
	s.Commit()

	// old handles remain resolvable for the pre-compaction view
	for value, ref := range handles {
		assert.Equal(t, []byte(value), view.Get(ref))
	}
	view.Release()

	// the live store resolves every value through its new handle
	for i := 0; i < 100; i++ {
		value := fmt.Sprintf("value-%03d", i)
		ref, exists := s.Find([]byte(value))
		require.True(t, exists, "value %s lost by compaction", value)
		assert.Equal(t, []byte(value), s.Get(ref))
		assert.Equal(t, uint32(1), s.arena.RefCount(ref), "reference count lost by relocation")
	}

	s.Reclaim()
	for _, ref := range handles {
		assert.Panics(t, func() { s.Get(ref) }, "pre-compaction slot must be recycled")
	}
}

func TestUniqueStoreRehydrateRestoresContent(t *testing.T) {
	original := NewUniqueStore(Config{})
	for i := 0; i < 50; i++ {
		original.Add([]byte(fmt.Sprintf("value-%03d", i)))
	}
	original.Add([]byte("value-007")) // one doubly referenced value
	original.Commit()

	values := [][]byte{}
	counts := []uint32{}
	original.ForEachEntry(func(_ arena.Handle, value []byte, refCount uint32) {
		values = append(values, value)
		counts = append(counts, refCount)
	})

	restored := NewUniqueStore(Config{})
	require.NoError(t, restored.Rehydrate(values, counts))

	assert.Equal(t, original.GetNumUniques(), restored.GetNumUniques())
	ref, exists := restored.Find([]byte("value-007"))
	require.True(t, exists)
	assert.Equal(t, uint32(2), restored.arena.RefCount(ref))

	// releasing twice removes the doubly referenced value again
	restored.Release(ref)
	restored.Release(ref)
	_, exists = restored.Find([]byte("value-007"))
	assert.False(t, exists)
}

func TestUniqueStoreRehydrateHoldsZeroRefCountEntries(t *testing.T) {
	s := NewUniqueStore(Config{})
	err := s.Rehydrate(
		[][]byte{[]byte("dead"), []byte("live")},
		[]uint32{0, 1},
	)
	require.NoError(t, err)

	_, exists := s.Find([]byte("dead"))
	assert.False(t, exists, "zero reference count entries must not be indexed")
	_, exists = s.Find([]byte("live"))
	assert.True(t, exists)

	// the dead slot is reclaimed with the next cycle
	assert.Equal(t, 2, s.arena.NumValues())
	s.Commit()
	s.Reclaim()
	assert.Equal(t, 1, s.arena.NumValues())
}

func TestUniqueStoreRehydrateRejectsBadInput(t *testing.T) {
	s := NewUniqueStore(Config{})
	assert.Error(t, s.Rehydrate([][]byte{[]byte("a")}, nil))

	s.Add([]byte("a"))
	assert.Error(t, s.Rehydrate([][]byte{[]byte("b")}, []uint32{1}))
}

func TestUniqueStoreMemoryFootprintCoversComponents(t *testing.T) {
	s := NewUniqueStore(Config{})
	for i := 0; i < 1000; i++ {
		s.Add([]byte(fmt.Sprintf("value-%04d", i)))
	}
	s.Commit()

	mf := s.GetMemoryFootprint()
	require.NotNil(t, mf)
	require.NotNil(t, mf.GetChild("arena"))
	require.NotNil(t, mf.GetChild("dictionary"))
	assert.Greater(t, uint64(mf.Total()), uint64(1000*10), "footprint too small to cover the values")
}
