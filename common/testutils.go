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
	"testing"
)

func AssertArraysEqual[V comparable](t *testing.T, first, second []V) {
	t.Helper()
	if len(first) != len(second) {
		t.Errorf("array sizes differ, %d != %d", len(first), len(second))
		return
	}
	for i := 0; i < len(first); i++ {
		if first[i] != second[i] {
			t.Errorf("assertValues failed: %v != %v", first[i], second[i])
		}
	}
}

func AssertArraySorted[T any](t *testing.T, arr []T, comparator Comparator[T]) {
	t.Helper()
	for i := 1; i < len(arr); i++ {
		if comparator.Compare(&arr[i-1], &arr[i]) >= 0 {
			t.Errorf("not strictly sorted: %v followed by %v", arr[i-1], arr[i])
		}
	}
}
