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
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB covers the key-value operations shared by plain and
// transactional LevelDB instances, allowing both to back persistence
// transparently.
type LevelDB interface {

	// Get gets the value for the given key. It returns ErrNotFound if the
	// DB does not contain the key. The returned slice is its own copy.
	Get(key []byte, ro *opt.ReadOptions) (value []byte, err error)

	// Has returns true if the DB does contain the given key.
	Has(key []byte, ro *opt.ReadOptions) (bool, error)

	// NewIterator returns an iterator over the latest snapshot of the
	// underlying DB, restricted to keys in the given range. The iterator
	// must be released after use.
	NewIterator(slice *util.Range, ro *opt.ReadOptions) iterator.Iterator

	// Put sets the value for the given key, overwriting any previous
	// value.
	Put(key, value []byte, wo *opt.WriteOptions) error

	// Delete deletes the value for the given key.
	Delete(key []byte, wo *opt.WriteOptions) error

	// Write applies the given batch to the DB atomically.
	Write(batch *leveldb.Batch, wo *opt.WriteOptions) error
}
