// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package snapshot persists the content of a unique store into a LevelDB
// instance and rehydrates a store from it. Entries are written in value
// order, each carrying its reference count, so a load can rebuild the
// dictionary in linear time.
package snapshot

import (
	"bytes"
	"fmt"

	"github.com/Fantom-foundation/Hoard/backend/arena"
	"github.com/Fantom-foundation/Hoard/common"
	"github.com/Fantom-foundation/Hoard/store"
	"github.com/klauspost/compress/s2"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/util"
	"golang.org/x/crypto/sha3"
)

const (
	// ErrNoSnapshot is reported when loading from a database that holds no
	// snapshot.
	ErrNoSnapshot = common.ConstError("no snapshot present")
	// ErrCorruptedSnapshot is reported when the persisted records do not
	// match the snapshot's meta record.
	ErrCorruptedSnapshot = common.ConstError("corrupted snapshot")
	// ErrUnsupportedVersion is reported when the snapshot was written in
	// an unknown format version.
	ErrUnsupportedVersion = common.ConstError("unsupported snapshot format version")
)

const formatVersion = 1

// meta record layout: version (1) | record count (8) | sha3-256 digest (32)
const (
	digestSize = 32
	metaSize   = 1 + 8 + digestSize
)

var metaKey = []byte("meta")

const recordPrefix = byte('r')

// Save persists the most recently committed content of the given store,
// replacing any previously saved snapshot. Records are written in value
// order; each record holds the entry's reference count and its compressed
// value. A meta record with a digest over all records seals the snapshot.
// Save is a writer-side operation.
func Save(db common.LevelDB, s *store.UniqueStore) error {
	batch := new(leveldb.Batch)

	// records of an older, larger snapshot must not survive
	it := db.NewIterator(util.BytesPrefix([]byte{recordPrefix}), nil)
	for it.Next() {
		batch.Delete(append([]byte{}, it.Key()...))
	}
	err := it.Error()
	it.Release()
	if err != nil {
		return err
	}

	hasher := sha3.New256()
	var seq uint64
	s.ForEachEntry(func(_ arena.Handle, value []byte, refCount uint32) {
		record := make([]byte, 4, 4+len(value))
		encodeUint(refCount, record)
		record = append(record, s2.Encode(nil, value)...)
		hasher.Write(record)
		batch.Put(recordKey(seq), record)
		seq++
	})

	meta := make([]byte, metaSize)
	meta[0] = formatVersion
	encodeUint(seq, meta[1:9])
	copy(meta[9:], hasher.Sum(nil))
	batch.Put(metaKey, meta)

	return db.Write(batch, nil)
}

// Load rehydrates the given freshly created store from the snapshot in the
// database. The record digest and count are verified against the meta
// record before the store is touched.
func Load(db common.LevelDB, s *store.UniqueStore) error {
	meta, err := db.Get(metaKey, nil)
	if err == errors.ErrNotFound {
		return ErrNoSnapshot
	}
	if err != nil {
		return err
	}
	if len(meta) != metaSize {
		return fmt.Errorf("%w: meta record of size %d", ErrCorruptedSnapshot, len(meta))
	}
	if meta[0] != formatVersion {
		return fmt.Errorf("%w: version %d", ErrUnsupportedVersion, meta[0])
	}
	count := decodeUint[uint64](meta[1:9])

	hasher := sha3.New256()
	values := make([][]byte, 0, count)
	refCounts := make([]uint32, 0, count)
	it := db.NewIterator(util.BytesPrefix([]byte{recordPrefix}), nil)
	defer it.Release()
	for it.Next() {
		record := it.Value()
		if len(record) < 4 {
			return fmt.Errorf("%w: record of size %d", ErrCorruptedSnapshot, len(record))
		}
		hasher.Write(record)
		value, err := s2.Decode(nil, record[4:])
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptedSnapshot, err)
		}
		values = append(values, value)
		refCounts = append(refCounts, decodeUint[uint32](record[:4]))
	}
	if err := it.Error(); err != nil {
		return err
	}
	if uint64(len(values)) != count {
		return fmt.Errorf("%w: %d records, meta claims %d", ErrCorruptedSnapshot, len(values), count)
	}
	if !bytes.Equal(hasher.Sum(nil), meta[9:]) {
		return fmt.Errorf("%w: digest mismatch", ErrCorruptedSnapshot)
	}

	return s.Rehydrate(values, refCounts)
}

func recordKey(seq uint64) []byte {
	key := make([]byte, 9)
	key[0] = recordPrefix
	encodeUint(seq, key[1:])
	return key
}
