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
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/Fantom-foundation/Hoard/backend/arena"
	"golang.org/x/sync/errgroup"
)

func TestUniqueStoreConcurrentReadersDuringChurnAndReclamation(t *testing.T) {
	const numReaders = 4
	const numRounds = 200

	s := NewUniqueStore(Config{})
	for i := 0; i < 20; i++ {
		s.Add([]byte(fmt.Sprintf("value-%03d", i)))
	}
	s.Commit()

	ctx, cancel := context.WithCancel(context.Background())
	group, _ := errgroup.WithContext(ctx)

	for i := 0; i < numReaders; i++ {
		group.Go(func() error {
			for ctx.Err() == nil {
				view := s.View()
				count := 0
				last := []byte(nil)
				var err error
				view.ForEach(func(ref arena.Handle, value []byte) {
					if !bytes.Equal(value, view.Get(ref)) {
						err = fmt.Errorf("handle %d resolves inconsistently", ref)
					}
					if last != nil && bytes.Compare(last, value) >= 0 {
						err = fmt.Errorf("view iteration out of order")
					}
					last = append(last[:0], value...)
					count++
				})
				if err == nil && count != view.Size() {
					err = fmt.Errorf("view of size %d produced %d entries", view.Size(), count)
				}
				view.Release()
				if err != nil {
					return err
				}
			}
			return nil
		})
	}

	// the writer churns, commits, compacts occasionally, and reclaims
	// whatever the reader guards no longer pin
	rnd := rand.New(rand.NewSource(486))
	live := map[string]arena.Handle{}
	for i := 0; i < 20; i++ {
		value := fmt.Sprintf("value-%03d", i)
		live[value], _ = s.Find([]byte(value))
	}
	for round := 0; round < numRounds; round++ {
		for i := 0; i < 10; i++ {
			value := fmt.Sprintf("value-%03d", rnd.Intn(100))
			if ref, exists := live[value]; exists && rnd.Intn(2) == 0 {
				s.Release(ref)
				delete(live, value)
			} else if !exists {
				live[value] = s.Add([]byte(value))
			}
		}
		if round%50 == 17 {
			s.Compact()
			for value := range live {
				live[value], _ = s.Find([]byte(value))
			}
		}
		s.Commit()
		s.Reclaim()
	}
	cancel()

	if err := group.Wait(); err != nil {
		t.Fatalf("reader failed: %v", err)
	}
}
