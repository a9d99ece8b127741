// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"fmt"
	"sort"
	"strings"
)

// MemoryFootprint describes the memory consumption of a store structure.
// Footprints form a tree mirroring the component structure; a child may be
// shared between several parents and is counted only once in totals.
type MemoryFootprint struct {
	value    uintptr
	children map[string]*MemoryFootprint
}

// NewMemoryFootprint creates a new MemoryFootprint instance covering the
// given number of bytes, not including any subcomponents.
func NewMemoryFootprint(value uintptr) *MemoryFootprint {
	return &MemoryFootprint{
		value:    value,
		children: make(map[string]*MemoryFootprint),
	}
}

// AddChild attaches the MemoryFootprint of a subcomponent.
func (mf *MemoryFootprint) AddChild(name string, child *MemoryFootprint) {
	mf.children[name] = child
}

// GetChild returns the footprint of the named subcomponent, or nil if
// there is none.
func (mf *MemoryFootprint) GetChild(name string) *MemoryFootprint {
	return mf.children[name]
}

// Value provides the amount of bytes consumed by the structure itself,
// excluding its subcomponents.
func (mf *MemoryFootprint) Value() uintptr {
	return mf.value
}

// Total provides the amount of bytes consumed by the structure including
// all its subcomponents.
func (mf *MemoryFootprint) Total() uintptr {
	seen := make(map[*MemoryFootprint]bool)
	return mf.addToTotal(seen)
}

func (mf *MemoryFootprint) addToTotal(seen map[*MemoryFootprint]bool) (total uintptr) {
	if seen[mf] {
		return 0
	}
	seen[mf] = true
	total = mf.value
	for _, child := range mf.children {
		total += child.addToTotal(seen)
	}
	return total
}

// ToString renders the footprint as a tree summary, one component per line.
// The name parameter labels the root of the tree.
func (mf *MemoryFootprint) ToString(name string) string {
	var sb strings.Builder
	mf.writeTo(&sb, name)
	return sb.String()
}

func (mf *MemoryFootprint) writeTo(sb *strings.Builder, path string) {
	writeMemoryAmount(sb, mf.Total())
	sb.WriteRune(' ')
	sb.WriteString(path)
	sb.WriteRune('\n')
	names := make([]string, 0, len(mf.children))
	for name := range mf.children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		mf.children[name].writeTo(sb, path+"/"+name)
	}
}

func writeMemoryAmount(sb *strings.Builder, bytes uintptr) {
	const unit = 1024
	const prefixes = "KMGTPE"
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && exp+1 < len(prefixes); n /= unit {
		div *= unit
		exp++
	}
	fmt.Fprintf(sb, "%.1f %cB", float64(bytes)/float64(div), prefixes[exp])
}
