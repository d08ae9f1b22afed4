// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package drone

import (
	"fmt"
	"hash/crc32"
)

// MaxTransferSize bounds the transfer buffer of a single drone.
const MaxTransferSize = 16 << 20

// transferBuffer is an offset-addressed file image. Writes may arrive in any
// order; gaps read as zero.
type transferBuffer struct {
	data   []byte
	writes int
}

func (b *transferBuffer) reset() {
	b.data = nil
	b.writes = 0
}

func (b *transferBuffer) writeAt(offset uint32, p []byte) error {
	end := uint64(offset) + uint64(len(p))
	if end > MaxTransferSize {
		return fmt.Errorf("%w: %d bytes", ErrTransferTooLarge, end)
	}
	if n := int(end); n > len(b.data) {
		if n > cap(b.data) {
			grown := make([]byte, n, max(n, 2*cap(b.data)))
			copy(grown, b.data)
			b.data = grown
		} else {
			old := len(b.data)
			b.data = b.data[:n]
			clear(b.data[old:])
		}
	}
	copy(b.data[offset:], p)
	b.writes++
	return nil
}

func (b *transferBuffer) bytes() []byte {
	return b.data
}

// CRC32 is the checksum reported for CalcFileCRC32: IEEE 802.3, reflected,
// initial value and final xor 0xFFFFFFFF.
func CRC32(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}
