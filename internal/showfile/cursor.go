// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package showfile

import "encoding/binary"

// Cursor reads primitives from a byte slice it does not mutate.
type Cursor struct {
	buf []byte
	off int
}

// NewCursor returns a cursor positioned at the start of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Offset returns the number of bytes consumed so far.
func (c *Cursor) Offset() int { return c.off }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.off }

// ReadU8 consumes a single byte.
func (c *Cursor) ReadU8() (uint8, error) {
	if c.Remaining() < 1 {
		return 0, ErrTruncatedInput
	}
	b := c.buf[c.off]
	c.off++
	return b, nil
}

// ReadU16LE consumes a little-endian unsigned 16-bit value.
func (c *Cursor) ReadU16LE() (uint16, error) {
	if c.Remaining() < 2 {
		return 0, ErrTruncatedInput
	}
	v := binary.LittleEndian.Uint16(c.buf[c.off:])
	c.off += 2
	return v, nil
}

// ReadI16LE consumes a little-endian signed 16-bit value.
func (c *Cursor) ReadI16LE() (int16, error) {
	v, err := c.ReadU16LE()
	return int16(v), err
}

// ReadBytes returns the next n bytes as a sub-slice of the underlying buffer.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 || c.Remaining() < n {
		return nil, ErrTruncatedInput
	}
	b := c.buf[c.off : c.off+n : c.off+n]
	c.off += n
	return b, nil
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int) error {
	_, err := c.ReadBytes(n)
	return err
}

// ReadVarint consumes a little-endian base-128 unsigned integer. Each byte
// contributes its low 7 bits; a set top bit means another byte follows.
// Bits beyond the 32nd are discarded.
func (c *Cursor) ReadVarint() (uint32, error) {
	var (
		result uint32
		shift  uint
	)
	for {
		b, err := c.ReadU8()
		if err != nil {
			return 0, err
		}
		if shift < 32 {
			result |= uint32(b&0x7f) << shift
		}
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

// AppendVarint appends the base-128 encoding of v to dst.
func AppendVarint(dst []byte, v uint32) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}
