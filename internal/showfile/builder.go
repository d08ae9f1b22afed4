// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package showfile

import (
	"encoding/binary"
	"errors"
	"math"
)

// fileMagic fills the header; decoders skip it.
var fileMagic = [HeaderSize]byte{'s', 'k', 'y', 'b', 1, 0, 0, 0, 0, 0}

var errBlockTooLarge = errors.New("block body exceeds 65535 bytes")

// Builder assembles a show file from encoded blocks.
type Builder struct {
	blocks []byte
	err    error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Block appends a raw block.
func (b *Builder) Block(tag BlockType, body []byte) *Builder {
	if len(body) > math.MaxUint16 {
		b.err = errBlockTooLarge
		return b
	}
	b.blocks = append(b.blocks, byte(tag))
	b.blocks = binary.LittleEndian.AppendUint16(b.blocks, uint16(len(body)))
	b.blocks = append(b.blocks, body...)
	return b
}

// Bytes returns the header followed by every appended block.
func (b *Builder) Bytes() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	out := make([]byte, 0, HeaderSize+len(b.blocks))
	out = append(out, fileMagic[:]...)
	return append(out, b.blocks...), nil
}

// TrajectoryEncoder produces a trajectory block body. Coordinates are raw
// int16 values scaled by Scale/1000 metres; yaw is in tenths of a degree.
type TrajectoryEncoder struct {
	buf []byte
}

// NewTrajectoryEncoder starts a trajectory body at the given start point.
func NewTrajectoryEncoder(scale uint8, x, y, z, yaw int16) *TrajectoryEncoder {
	e := &TrajectoryEncoder{buf: []byte{scale & 0x7f}}
	for _, v := range []int16{x, y, z, yaw} {
		e.buf = binary.LittleEndian.AppendUint16(e.buf, uint16(v))
	}
	return e
}

// Segment appends one segment. points[a] must hold exactly as many values as
// orders[a] requires.
func (e *TrajectoryEncoder) Segment(durationMS uint16, orders [4]BezierOrder, points [4][]int16) *TrajectoryEncoder {
	var bits byte
	for a, o := range orders {
		bits |= byte(o&0x03) << (2 * uint(a))
	}
	e.buf = append(e.buf, bits)
	e.buf = binary.LittleEndian.AppendUint16(e.buf, durationMS)
	for _, pts := range points {
		for _, v := range pts {
			e.buf = binary.LittleEndian.AppendUint16(e.buf, uint16(v))
		}
	}
	return e
}

// Body returns the encoded block body.
func (e *TrajectoryEncoder) Body() []byte { return e.buf }

// LightEncoder produces a light program block body. Durations are in
// LightTick units.
type LightEncoder struct {
	buf []byte
}

// NewLightEncoder returns an empty light program.
func NewLightEncoder() *LightEncoder { return &LightEncoder{} }

func (e *LightEncoder) op(op Opcode, operands ...byte) *LightEncoder {
	e.buf = append(e.buf, byte(op))
	e.buf = append(e.buf, operands...)
	return e
}

func (e *LightEncoder) ticks(n uint32) *LightEncoder {
	e.buf = AppendVarint(e.buf, n)
	return e
}

// Sleep holds the current color.
func (e *LightEncoder) Sleep(ticks uint32) *LightEncoder { return e.op(OpSleep).ticks(ticks) }

// SetColor switches to c immediately.
func (e *LightEncoder) SetColor(c Color, ticks uint32) *LightEncoder {
	return e.op(OpSetColor, c.R, c.G, c.B).ticks(ticks)
}

// SetGray switches to a gray level immediately.
func (e *LightEncoder) SetGray(level uint8, ticks uint32) *LightEncoder {
	return e.op(OpSetGray, level).ticks(ticks)
}

// SetBlack switches the light off.
func (e *LightEncoder) SetBlack(ticks uint32) *LightEncoder { return e.op(OpSetBlack).ticks(ticks) }

// SetWhite switches to full white.
func (e *LightEncoder) SetWhite(ticks uint32) *LightEncoder { return e.op(OpSetWhite).ticks(ticks) }

// FadeToColor blends towards c over the duration.
func (e *LightEncoder) FadeToColor(c Color, ticks uint32) *LightEncoder {
	return e.op(OpFadeToColor, c.R, c.G, c.B).ticks(ticks)
}

// FadeToBlack blends towards black over the duration.
func (e *LightEncoder) FadeToBlack(ticks uint32) *LightEncoder {
	return e.op(OpFadeToBlack).ticks(ticks)
}

// End terminates the program.
func (e *LightEncoder) End() *LightEncoder { return e.op(OpEnd) }

// Raw appends arbitrary bytes, including opcodes this encoder does not model.
func (e *LightEncoder) Raw(b ...byte) *LightEncoder {
	e.buf = append(e.buf, b...)
	return e
}

// Body returns the encoded block body.
func (e *LightEncoder) Body() []byte { return e.buf }

// EventListEncoder produces a pyro event list block body.
type EventListEncoder struct {
	buf []byte
}

// NewEventListEncoder returns an empty event list.
func NewEventListEncoder() *EventListEncoder { return &EventListEncoder{} }

// Fire appends one pyro event. Angles are in whole degrees.
func (e *EventListEncoder) Fire(startMS, durationMS, index uint32, pitch, yaw, roll int32) *EventListEncoder {
	e.buf = AppendVarint(e.buf, startMS)
	e.buf = AppendVarint(e.buf, durationMS)
	e.buf = AppendVarint(e.buf, index)
	var signs byte
	mags := [3]uint32{}
	for i, v := range [3]int32{pitch, yaw, roll} {
		if v < 0 {
			signs |= 1 << uint(2-i)
			v = -v
		}
		mags[i] = uint32(v)
	}
	e.buf = append(e.buf, signs)
	for _, m := range mags {
		e.buf = AppendVarint(e.buf, m)
	}
	return e
}

// Body returns the encoded block body.
func (e *EventListEncoder) Body() []byte { return e.buf }
