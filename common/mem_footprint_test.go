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
	"strings"
	"testing"
)

func TestMemoryFootprint_TotalSumsChildren(t *testing.T) {
	root := NewMemoryFootprint(100)
	root.AddChild("a", NewMemoryFootprint(10))
	root.AddChild("b", NewMemoryFootprint(20))

	if got, want := root.Total(), uintptr(130); got != want {
		t.Errorf("wrong total, got %d, wanted %d", got, want)
	}
}

func TestMemoryFootprint_SharedChildCountedOnce(t *testing.T) {
	shared := NewMemoryFootprint(50)
	root := NewMemoryFootprint(0)
	left := NewMemoryFootprint(0)
	right := NewMemoryFootprint(0)
	left.AddChild("shared", shared)
	right.AddChild("shared", shared)
	root.AddChild("left", left)
	root.AddChild("right", right)

	if got, want := root.Total(), uintptr(50); got != want {
		t.Errorf("shared child counted multiple times, got %d, wanted %d", got, want)
	}
}

func TestMemoryFootprint_ToStringListsAllComponents(t *testing.T) {
	root := NewMemoryFootprint(100)
	root.AddChild("index", NewMemoryFootprint(10))
	root.AddChild("values", NewMemoryFootprint(20))

	str := root.ToString("store")
	for _, path := range []string{"store", "store/index", "store/values"} {
		if !strings.Contains(str, path) {
			t.Errorf("summary misses component %s:\n%s", path, str)
		}
	}
}
