// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package arena provides the value storage backing a deduplicating store.
// Values are stored once and addressed through opaque handles; the life
// cycle of handles is managed by client code, which must not release a
// handle while any reader may still resolve it.
package arena

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/Fantom-foundation/Hoard/common"
)

// ByteArena is an in-memory arena of byte-slice values. Slots of released
// handles are kept on a free list and reassigned by future allocations.
//
// All mutations require external mutual exclusion. Concurrent readers may
// resolve handles through Get without synchronization, restricted to
// handles they obtained from a structure published after the allocation;
// the slot table is republished atomically on every allocation, and slot
// contents are written before any such publication can happen.
type ByteArena struct {
	values    atomic.Pointer[[][]byte] // slot 0 is the reserved null slot and stays nil
	refCounts []uint32
	freeList  []Handle
	numLive   int
	liveBytes uintptr
}

// NewByteArena creates an empty arena.
func NewByteArena() *ByteArena {
	a := &ByteArena{
		refCounts: make([]uint32, 1, 16),
	}
	values := make([][]byte, 1, 16)
	a.values.Store(&values)
	return a
}

// Allocate stores a copy of the given value and returns its handle. The
// initial reference count of the new slot is zero.
func (a *ByteArena) Allocate(value []byte) Handle {
	return a.Adopt(value, 0)
}

// Adopt stores a copy of the given value with a preset reference count.
// It is used when rehydrating an arena from a persisted snapshot.
func (a *ByteArena) Adopt(value []byte, refCount uint32) Handle {
	stored := make([]byte, len(value))
	copy(stored, value)

	values := *a.values.Load()
	var handle Handle
	if n := len(a.freeList); n > 0 {
		handle = a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		values[handle] = stored
		a.refCounts[handle] = refCount
	} else {
		handle = Handle(len(values))
		values = append(values, stored)
		a.refCounts = append(a.refCounts, refCount)
		a.values.Store(&values)
	}
	a.numLive++
	a.liveBytes += uintptr(len(stored))
	return handle
}

// Get resolves a handle to the stored value. The returned slice must not be
// modified. Resolving an invalid or released handle is a programming error
// and aborts.
func (a *ByteArena) Get(handle Handle) []byte {
	values := *a.values.Load()
	a.check(values, handle)
	return values[handle]
}

// Move relocates the value of the given handle into a fresh slot and
// returns the new handle. The old slot keeps its content so concurrent
// readers holding the old handle can still resolve it; the caller must
// release it once no reader can.
func (a *ByteArena) Move(handle Handle) Handle {
	values := *a.values.Load()
	a.check(values, handle)
	return a.Adopt(values[handle], a.refCounts[handle])
}

// Release returns the slot of the given handle for re-use. The handle may
// only be released once, and only when no reader can still resolve it.
func (a *ByteArena) Release(handle Handle) {
	values := *a.values.Load()
	a.check(values, handle)
	a.numLive--
	a.liveBytes -= uintptr(len(values[handle]))
	values[handle] = nil
	a.refCounts[handle] = 0
	a.freeList = append(a.freeList, handle)
}

// IncRef increments the reference count of the given handle.
func (a *ByteArena) IncRef(handle Handle) {
	a.check(*a.values.Load(), handle)
	a.refCounts[handle]++
}

// DecRef decrements the reference count of the given handle and returns
// the remaining count. Decrementing a zero count is a programming error.
func (a *ByteArena) DecRef(handle Handle) uint32 {
	a.check(*a.values.Load(), handle)
	if a.refCounts[handle] == 0 {
		panic(fmt.Sprintf("arena: reference count of handle %d is already zero", handle))
	}
	a.refCounts[handle]--
	return a.refCounts[handle]
}

// RefCount returns the reference count of the given handle.
func (a *ByteArena) RefCount(handle Handle) uint32 {
	a.check(*a.values.Load(), handle)
	return a.refCounts[handle]
}

// NumValues returns the number of allocated, not yet released slots.
func (a *ByteArena) NumValues() int {
	return a.numLive
}

// GetIds fetches a snapshot of the currently allocated handles. This is a
// linear-time operation intended for consistency checks, not for regular
// use in performance critical code.
func (a *ByteArena) GetIds() *IndexSet {
	values := *a.values.Load()
	set := NewIndexSet()
	for i := 1; i < len(values); i++ {
		if values[i] != nil {
			set.Add(Handle(i))
		}
	}
	return set
}

// GetMemoryFootprint provides the memory consumed by the arena.
func (a *ByteArena) GetMemoryFootprint() *common.MemoryFootprint {
	var handle Handle
	var slice []byte
	values := *a.values.Load()
	size := unsafe.Sizeof(*a)
	size += uintptr(cap(values)) * unsafe.Sizeof(slice)
	size += uintptr(cap(a.refCounts)) * unsafe.Sizeof(uint32(0))
	size += uintptr(cap(a.freeList)) * unsafe.Sizeof(handle)
	mf := common.NewMemoryFootprint(size)
	mf.AddChild("values", common.NewMemoryFootprint(a.liveBytes))
	return mf
}

func (a *ByteArena) check(values [][]byte, handle Handle) {
	if !handle.Valid() || int(handle) >= len(values) {
		panic(fmt.Sprintf("arena: access to invalid handle %d", handle))
	}
	if values[handle] == nil {
		panic(fmt.Sprintf("arena: access to released handle %d", handle))
	}
}
