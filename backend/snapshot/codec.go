// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package snapshot

import (
	"encoding/binary"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// encodeUint encodes an unsigned integer into its big-endian persistent
// form, sized by the integer type.
func encodeUint[I constraints.Unsigned](value I, trg []byte) {
	switch unsafe.Sizeof(value) {
	case 1:
		trg[0] = byte(value)
	case 2:
		binary.BigEndian.PutUint16(trg, uint16(value))
	case 4:
		binary.BigEndian.PutUint32(trg, uint32(value))
	case 8:
		fallthrough
	default:
		binary.BigEndian.PutUint64(trg, uint64(value))
	}
}

// decodeUint decodes an unsigned integer from its persistent binary form.
func decodeUint[I constraints.Unsigned](src []byte) I {
	var value I
	switch unsafe.Sizeof(value) {
	case 1:
		return I(src[0])
	case 2:
		return I(binary.BigEndian.Uint16(src))
	case 4:
		return I(binary.BigEndian.Uint32(src))
	case 8:
		fallthrough
	default:
		return I(binary.BigEndian.Uint64(src))
	}
}
