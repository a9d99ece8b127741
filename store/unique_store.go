// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package store combines the value arena, the ordered dictionary and the
// generation handler into a deduplicating value store. A single writer
// mutates the store; any number of readers access committed content through
// guarded views without blocking the writer.
package store

import (
	"bytes"
	"io"
	"log/slog"
	"unsafe"

	"github.com/Fantom-foundation/Hoard/backend/arena"
	"github.com/Fantom-foundation/Hoard/backend/dict"
	"github.com/Fantom-foundation/Hoard/backend/generation"
	"github.com/Fantom-foundation/Hoard/common"
)

const defaultNodeCapacity = 16

// Config tunes a unique store. The zero value is usable.
type Config struct {
	// NodeCapacity is the number of keys a dictionary node can hold.
	// Defaults to 16.
	NodeCapacity int
	// Logger receives structured events about commits, compaction and
	// reclamation. Defaults to a silent logger.
	Logger *slog.Logger
}

// UniqueStore keeps each distinct byte-slice value exactly once, addressed
// through reference-counted handles. Mutating operations and Commit belong
// to a single writer; View may be called from any goroutine.
type UniqueStore struct {
	arena *arena.ByteArena
	dict  *dict.Dictionary
	gens  *generation.Handler
	log   *slog.Logger

	// value slots no reader may observe anymore, staged for the arena
	pendingHandles []arena.Handle
	heldHandles    []handleHold
}

type handleHold struct {
	generation generation.Generation
	handles    []arena.Handle
}

// NewUniqueStore creates an empty store with the given configuration.
func NewUniqueStore(config Config) *UniqueStore {
	capacity := config.NodeCapacity
	if capacity == 0 {
		capacity = defaultNodeCapacity
	}
	log := config.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &UniqueStore{
		arena: arena.NewByteArena(),
		dict:  dict.NewDictionary(capacity),
		gens:  generation.NewHandler(),
		log:   log,
	}
}

// Add stores the given value if it is not present yet and returns its
// handle, incrementing the value's reference count either way.
func (s *UniqueStore) Add(value []byte) arena.Handle {
	ref, _ := s.dict.Add(s.comparatorFor(value), func() arena.Handle {
		return s.arena.Allocate(value)
	})
	s.arena.IncRef(ref)
	return ref
}

// Get resolves a handle to its value. The returned slice must not be
// modified.
func (s *UniqueStore) Get(ref arena.Handle) []byte {
	return s.arena.Get(ref)
}

// Find returns the handle of the given value without modifying the store,
// reporting whether the value is present.
func (s *UniqueStore) Find(value []byte) (arena.Handle, bool) {
	ref := s.dict.Find(s.comparatorFor(value))
	return ref, ref.Valid()
}

// RefCount returns the number of references currently held on the given
// handle.
func (s *UniqueStore) RefCount(ref arena.Handle) uint32 {
	return s.arena.RefCount(ref)
}

// Release drops one reference to the given handle. When the last reference
// is gone the entry leaves the dictionary; its value slot remains
// resolvable for readers of previously committed views and is recycled by
// a later Reclaim.
func (s *UniqueStore) Release(ref arena.Handle) {
	if s.arena.DecRef(ref) > 0 {
		return
	}
	s.dict.Remove(s.comparatorFor(s.arena.Get(ref)), ref)
	s.pendingHandles = append(s.pendingHandles, ref)
}

// Commit publishes all mutations since the previous commit as a new
// immutable view and opens the next generation. Everything retired since
// the previous commit is tagged with the closing generation.
func (s *UniqueStore) Commit() {
	s.dict.Freeze()
	current := s.gens.Current()
	s.dict.TransferHoldLists(current)
	if len(s.pendingHandles) > 0 {
		s.heldHandles = append(s.heldHandles, handleHold{
			generation: current,
			handles:    s.pendingHandles,
		})
		s.pendingHandles = nil
	}
	s.gens.Advance()
	s.log.Debug("committed", "generation", current, "uniques", s.dict.GetNumUniques())
}

// Reclaim frees everything retired at generations no live reader guards
// anymore. Dictionary nodes return to the allocator's free lists, value
// slots to the arena.
func (s *UniqueStore) Reclaim() {
	firstUsed := s.gens.FirstUsed()
	s.dict.TrimHoldLists(firstUsed)
	trimmed := 0
	freed := 0
	for _, hold := range s.heldHandles {
		if hold.generation >= firstUsed {
			break
		}
		for _, ref := range hold.handles {
			s.arena.Release(ref)
			freed++
		}
		trimmed++
	}
	s.heldHandles = s.heldHandles[trimmed:]
	s.log.Debug("reclaimed", "firstUsed", firstUsed, "freedValues", freed)
}

// Compact relocates all live values into fresh arena slots to shed
// fragmentation. Old slots stay resolvable for readers of previously
// committed views and are recycled after the next Commit and Reclaim.
func (s *UniqueStore) Compact() {
	moved := &movingCompactor{store: s}
	s.dict.MoveEntries(moved)
	s.log.Info("compacted", "movedValues", moved.count)
}

// movingCompactor adapts the arena's relocation to the dictionary's
// compaction driver, staging replaced slots for reclamation.
type movingCompactor struct {
	store *UniqueStore
	count int
}

func (c *movingCompactor) Move(ref arena.Handle) arena.Handle {
	newRef := c.store.arena.Move(ref)
	c.store.pendingHandles = append(c.store.pendingHandles, ref)
	c.count++
	return newRef
}

// View opens a reader view of the most recently committed content. The
// view pins its generation until released; holding it does not block the
// writer, only the reclamation of what the view can still reach.
func (s *UniqueStore) View() *View {
	// the guard must be in place before the view is fetched; the reverse
	// order would leave a window in which a commit and reclamation cycle
	// could recycle the fetched view's nodes
	guard := s.gens.TakeGuard()
	return &View{
		view:  s.dict.GetFrozenView(),
		guard: guard,
		arena: s.arena,
	}
}

// GetNumUniques returns the number of distinct values in the most recently
// committed content.
func (s *UniqueStore) GetNumUniques() int {
	return s.dict.GetNumUniques()
}

// GetMemoryFootprint provides the memory consumed by the store and its
// components.
func (s *UniqueStore) GetMemoryFootprint() *common.MemoryFootprint {
	var ref arena.Handle
	held := uintptr(len(s.pendingHandles))
	for _, hold := range s.heldHandles {
		held += uintptr(len(hold.handles))
	}
	mf := common.NewMemoryFootprint(0)
	mf.AddChild("arena", s.arena.GetMemoryFootprint())
	mf.AddChild("dictionary", s.dict.GetMemoryFootprint())
	mf.AddChild("heldHandles", common.NewMemoryFootprint(held*unsafe.Sizeof(ref)))
	return mf
}

func (s *UniqueStore) comparatorFor(value []byte) valueComparator {
	return valueComparator{arena: s.arena, probe: value}
}

// valueComparator orders handles by the values they denote, resolving the
// null handle to the probe value the current operation is about.
type valueComparator struct {
	arena *arena.ByteArena
	probe []byte
}

func (c valueComparator) Compare(a, b *arena.Handle) int {
	return bytes.Compare(c.resolve(*a), c.resolve(*b))
}

func (c valueComparator) resolve(ref arena.Handle) []byte {
	if !ref.Valid() {
		return c.probe
	}
	return c.arena.Get(ref)
}
