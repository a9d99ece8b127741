// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package generation provides the epoch counter sequencing safe memory
// reclamation between a single writer and lock-free readers. The writer
// retires structures into generation-tagged hold lists and may only reclaim
// them once no reader guards a generation as old as the retiring one.
package generation

import (
	"sync"
)

// Generation identifies an epoch of a store's index structure. Generations
// are strictly increasing; the zero value precedes every valid generation.
type Generation uint64

// Handler tracks the current generation of a store and the generations
// pinned by active readers. The writer advances the generation after
// publishing a new frozen state; readers take a guard before traversing
// and release it when done.
//
// Taking and releasing guards is safe from any goroutine. Advance may only
// be called by the writer.
type Handler struct {
	mu      sync.Mutex
	current Generation
	active  map[Generation]int
}

// NewHandler creates a Handler starting at generation 1.
func NewHandler() *Handler {
	return &Handler{
		current: 1,
		active:  make(map[Generation]int),
	}
}

// Current returns the generation mutations are currently attributed to.
func (h *Handler) Current() Generation {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Advance moves the handler to the next generation and returns it.
func (h *Handler) Advance() Generation {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current++
	return h.current
}

// TakeGuard pins the current generation until the returned guard is
// released. Structures retired at or after the pinned generation stay
// traversable for the guard holder.
func (h *Handler) TakeGuard() *Guard {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active[h.current]++
	return &Guard{handler: h, generation: h.current}
}

// FirstUsed returns the oldest generation any active guard pins, or the
// current generation when no guard is held. Hold lists tagged with a
// generation older than this value are safe to reclaim.
func (h *Handler) FirstUsed() Generation {
	h.mu.Lock()
	defer h.mu.Unlock()
	first := h.current
	for gen := range h.active {
		if gen < first {
			first = gen
		}
	}
	return first
}

// Guard pins one generation on behalf of a reader. Guards are not
// reusable; Release must be called exactly once.
type Guard struct {
	handler    *Handler
	generation Generation
	released   bool
}

// Generation returns the generation pinned by this guard.
func (g *Guard) Generation() Generation {
	return g.generation
}

// Release unpins the guarded generation. The guard becomes invalid for any
// future operation afterwards.
func (g *Guard) Release() {
	if g.released {
		return
	}
	g.released = true
	h := g.handler
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active[g.generation]--
	if h.active[g.generation] == 0 {
		delete(h.active, g.generation)
	}
}
