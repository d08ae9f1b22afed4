// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package showfile

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncatedInput is returned when the buffer ends before a field or
	// block it declares.
	ErrTruncatedInput = errors.New("truncated input")

	// ErrUnknownOpcode is returned when a light program contains a byte that
	// is not a known opcode. It is fatal to the whole decode.
	ErrUnknownOpcode = errors.New("unknown light opcode")

	// ErrUnsupportedBezierOrder is returned when a segment references an
	// order other than constant, linear, cubic or septic.
	ErrUnsupportedBezierOrder = errors.New("unsupported bezier order")
)

// DecodeError locates a decode failure inside the show file.
type DecodeError struct {
	Block  BlockType
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s block at offset %d: %v", e.Block, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
