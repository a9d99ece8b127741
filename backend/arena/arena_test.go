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

import (
	"bytes"
	"testing"
)

func TestByteArena_AllocateAndGet(t *testing.T) {
	a := NewByteArena()
	h1 := a.Allocate([]byte("first"))
	h2 := a.Allocate([]byte("second"))

	if !h1.Valid() || !h2.Valid() {
		t.Fatalf("allocated handles must be valid, got %d and %d", h1, h2)
	}
	if h1 == h2 {
		t.Fatalf("distinct allocations share handle %d", h1)
	}
	if got := a.Get(h1); !bytes.Equal(got, []byte("first")) {
		t.Errorf("wrong value, got %s, wanted first", got)
	}
	if got := a.Get(h2); !bytes.Equal(got, []byte("second")) {
		t.Errorf("wrong value, got %s, wanted second", got)
	}
	if got, want := a.NumValues(), 2; got != want {
		t.Errorf("wrong number of values, got %d, wanted %d", got, want)
	}
}

func TestByteArena_AllocateCopiesInput(t *testing.T) {
	a := NewByteArena()
	value := []byte("mutable")
	h := a.Allocate(value)
	value[0] = 'X'
	if got := a.Get(h); !bytes.Equal(got, []byte("mutable")) {
		t.Errorf("stored value aliases caller memory, got %s", got)
	}
}

func TestByteArena_NullHandleIsNeverAssigned(t *testing.T) {
	a := NewByteArena()
	for i := 0; i < 100; i++ {
		if h := a.Allocate([]byte{byte(i)}); h == Nil {
			t.Fatalf("allocation %d produced the null handle", i)
		}
	}
}

func TestByteArena_ReleasedSlotIsReused(t *testing.T) {
	a := NewByteArena()
	h1 := a.Allocate([]byte("a"))
	a.Allocate([]byte("b"))
	a.Release(h1)

	h3 := a.Allocate([]byte("c"))
	if h3 != h1 {
		t.Errorf("free slot not reused, got handle %d, wanted %d", h3, h1)
	}
	if got := a.Get(h3); !bytes.Equal(got, []byte("c")) {
		t.Errorf("wrong value in reused slot, got %s", got)
	}
}

func TestByteArena_GetOfReleasedHandlePanics(t *testing.T) {
	a := NewByteArena()
	h := a.Allocate([]byte("a"))
	a.Release(h)

	defer func() {
		if recover() == nil {
			t.Errorf("access to a released handle should panic")
		}
	}()
	a.Get(h)
}

func TestByteArena_GetOfNullHandlePanics(t *testing.T) {
	a := NewByteArena()
	defer func() {
		if recover() == nil {
			t.Errorf("access to the null handle should panic")
		}
	}()
	a.Get(Nil)
}

func TestByteArena_MovePreservesValueAndRefCount(t *testing.T) {
	a := NewByteArena()
	old := a.Allocate([]byte("payload"))
	a.IncRef(old)
	a.IncRef(old)

	moved := a.Move(old)
	if moved == old {
		t.Fatalf("move must produce a fresh handle")
	}
	if got := a.Get(moved); !bytes.Equal(got, []byte("payload")) {
		t.Errorf("moved slot has wrong value, got %s", got)
	}
	if got, want := a.RefCount(moved), uint32(2); got != want {
		t.Errorf("moved slot has wrong reference count, got %d, wanted %d", got, want)
	}
	// The old slot stays resolvable until explicitly released.
	if got := a.Get(old); !bytes.Equal(got, []byte("payload")) {
		t.Errorf("old slot no longer resolvable, got %s", got)
	}
	a.Release(old)
}

func TestByteArena_RefCounting(t *testing.T) {
	a := NewByteArena()
	h := a.Allocate([]byte("x"))
	if got, want := a.RefCount(h), uint32(0); got != want {
		t.Fatalf("fresh slot should start unreferenced, got %d", got)
	}
	a.IncRef(h)
	a.IncRef(h)
	if got, want := a.DecRef(h), uint32(1); got != want {
		t.Errorf("wrong count after decrement, got %d, wanted %d", got, want)
	}
	if got, want := a.DecRef(h), uint32(0); got != want {
		t.Errorf("wrong count after decrement, got %d, wanted %d", got, want)
	}

	defer func() {
		if recover() == nil {
			t.Errorf("decrementing a zero reference count should panic")
		}
	}()
	a.DecRef(h)
}

func TestByteArena_GetIdsReflectsLiveHandles(t *testing.T) {
	a := NewByteArena()
	h1 := a.Allocate([]byte("a"))
	h2 := a.Allocate([]byte("b"))
	h3 := a.Allocate([]byte("c"))
	a.Release(h2)

	ids := a.GetIds()
	if got, want := ids.Size(), 2; got != want {
		t.Fatalf("wrong number of ids, got %d, wanted %d", got, want)
	}
	if !ids.Contains(h1) || !ids.Contains(h3) {
		t.Errorf("live handles missing from id set")
	}
	if ids.Contains(h2) {
		t.Errorf("released handle %d reported live", h2)
	}
	if ids.Contains(Nil) {
		t.Errorf("null handle reported live")
	}

	var collected []Handle
	ids.ForEach(func(h Handle) {
		collected = append(collected, h)
	})
	if len(collected) != 2 || collected[0] != h1 || collected[1] != h3 {
		t.Errorf("unexpected enumeration %v", collected)
	}
}

func TestByteArena_MemoryFootprintCoversValues(t *testing.T) {
	a := NewByteArena()
	before := a.GetMemoryFootprint().Total()
	a.Allocate(make([]byte, 4096))
	after := a.GetMemoryFootprint().Total()
	if after < before+4096 {
		t.Errorf("footprint does not cover stored values, before %d, after %d", before, after)
	}
}
