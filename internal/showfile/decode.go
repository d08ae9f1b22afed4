// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package showfile

import (
	"fmt"
	"time"
)

const (
	// HeaderSize is the fixed file header; its contents are not interpreted.
	HeaderSize = 10

	// LightTick is the unit of every light program duration.
	LightTick = 20 * time.Millisecond

	// MinPyroDuration is the shortest firing an event list may declare.
	MinPyroDuration = 500 * time.Millisecond
)

// Decode parses a fully assembled show file. On error no partial program is
// returned.
func Decode(data []byte) (*Program, error) {
	c := NewCursor(data)
	if err := c.Skip(HeaderSize); err != nil {
		return nil, &DecodeError{Block: BlockHeader, Offset: 0, Err: err}
	}

	var (
		prog  Program
		light []LightEvent
	)
	for c.Remaining() > 0 {
		offset := c.Offset()
		tag, err := c.ReadU8()
		if err != nil {
			return nil, &DecodeError{Block: BlockHeader, Offset: offset, Err: err}
		}
		block := BlockType(tag)
		length, err := c.ReadU16LE()
		if err != nil {
			return nil, &DecodeError{Block: block, Offset: offset, Err: err}
		}
		body, err := c.ReadBytes(int(length))
		if err != nil {
			return nil, &DecodeError{Block: block, Offset: offset, Err: err}
		}

		switch block {
		case BlockTrajectory:
			prog.Trajectory, err = decodeTrajectory(body, prog.Trajectory)
		case BlockLightProgram:
			light, err = decodeLightProgram(body, light)
		case BlockEventList:
			prog.Pyro, err = decodeEventList(body, prog.Pyro)
		default:
			// Opaque block, already consumed.
		}
		if err != nil {
			return nil, &DecodeError{Block: block, Offset: offset, Err: err}
		}
	}

	prog.Light = resolveLightTiming(light)
	return &prog, nil
}

func programEnd(segs []TrajectorySegment) time.Duration {
	if len(segs) == 0 {
		return 0
	}
	return segs[len(segs)-1].End
}

func decodeTrajectory(body []byte, segs []TrajectorySegment) ([]TrajectorySegment, error) {
	clock := programEnd(segs)

	if len(body) == 1 {
		seg := TrajectorySegment{
			Start:    clock,
			Duration: time.Second,
			End:      clock + time.Second,
		}
		for a := range seg.Points {
			seg.Points[a] = []float64{0}
		}
		return append(segs, seg), nil
	}

	c := NewCursor(body)
	flags, err := c.ReadU8()
	if err != nil {
		return nil, err
	}
	scale := float64(flags & 0x7f)
	toAxis := func(a Axis, raw int16) float64 {
		if a == AxisYaw {
			return float64(raw) / 10
		}
		return float64(raw) * scale / 1000
	}

	var start [numAxes]float64
	for a := AxisX; a < numAxes; a++ {
		raw, err := c.ReadI16LE()
		if err != nil {
			return nil, err
		}
		start[a] = toAxis(a, raw)
	}

	for c.Remaining() > 0 {
		orderBits, err := c.ReadU8()
		if err != nil {
			return nil, err
		}
		ms, err := c.ReadU16LE()
		if err != nil {
			return nil, err
		}

		var seg TrajectorySegment
		for a := AxisX; a < numAxes; a++ {
			order := BezierOrder((orderBits >> (2 * uint(a))) & 0x03)
			n, err := order.ControlPoints()
			if err != nil {
				return nil, err
			}
			pts := make([]float64, 1, n+1)
			pts[0] = start[a]
			for i := 0; i < n; i++ {
				raw, err := c.ReadI16LE()
				if err != nil {
					return nil, err
				}
				pts = append(pts, toAxis(a, raw))
			}
			seg.Orders[a] = order
			seg.Points[a] = pts
			start[a] = pts[len(pts)-1]
		}

		seg.Duration = time.Duration(ms) * time.Millisecond
		seg.Start = clock
		seg.End = clock + seg.Duration
		clock = seg.End
		segs = append(segs, seg)
	}
	return segs, nil
}

func decodeLightProgram(body []byte, events []LightEvent) ([]LightEvent, error) {
	c := NewCursor(body)
	for c.Remaining() > 0 {
		raw, err := c.ReadU8()
		if err != nil {
			return nil, err
		}
		ev := LightEvent{Opcode: Opcode(raw)}

		switch ev.Opcode {
		case OpEnd, OpNop, OpLoopEnd, OpResetClock, OpUnused:
		case OpSleep, OpWaitUntil:
			err = readTicks(c, &ev)
		case OpSetColor, OpSetColorFromChannels, OpFadeToColor, OpFadeToColorFromChannels:
			var rgb []byte
			if rgb, err = c.ReadBytes(3); err == nil {
				ev.Color, ev.HasColor = Color{R: rgb[0], G: rgb[1], B: rgb[2]}, true
				err = readTicks(c, &ev)
			}
		case OpSetGray, OpFadeToGray:
			var gray uint8
			if gray, err = c.ReadU8(); err == nil {
				ev.Color, ev.HasColor = Color{R: gray, G: gray, B: gray}, true
				err = readTicks(c, &ev)
			}
		case OpSetBlack, OpFadeToBlack:
			ev.Color, ev.HasColor = Black, true
			err = readTicks(c, &ev)
		case OpSetWhite, OpFadeToWhite:
			ev.Color, ev.HasColor = White, true
			err = readTicks(c, &ev)
		case OpLoopBegin:
			var count uint8
			count, err = c.ReadU8()
			ev.Operand = uint32(count)
		case OpJump:
			ev.Operand, err = c.ReadVarint()
		case OpSetPyro, OpSetPyroAll:
			err = c.Skip(1)
		default:
			return nil, fmt.Errorf("%w: 0x%02x at offset %d", ErrUnknownOpcode, raw, c.Offset()-1)
		}
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func readTicks(c *Cursor, ev *LightEvent) error {
	ticks, err := c.ReadVarint()
	if err != nil {
		return err
	}
	ev.Duration = time.Duration(ticks) * LightTick
	return nil
}

// resolveLightTiming lays events end to end from zero and records, for each
// one, the color in force before it started.
func resolveLightTiming(events []LightEvent) []LightEvent {
	if len(events) == 0 {
		return nil
	}
	out := make([]LightEvent, len(events))
	var clock time.Duration
	prev := Black
	for i, ev := range events {
		ev.Start = clock
		ev.End = clock + ev.Duration
		ev.PreviousColor = prev
		if ev.HasColor {
			prev = ev.Color
		}
		clock = ev.End
		out[i] = ev
	}
	return out
}

func decodeEventList(body []byte, events []PyroEvent) ([]PyroEvent, error) {
	c := NewCursor(body)
	for c.Remaining() > 0 {
		var fields [3]uint32
		for i := range fields {
			v, err := c.ReadVarint()
			if err != nil {
				return nil, err
			}
			fields[i] = v
		}
		signs, err := c.ReadU8()
		if err != nil {
			return nil, err
		}
		var angles [3]int32
		for i := range angles {
			mag, err := c.ReadVarint()
			if err != nil {
				return nil, err
			}
			angles[i] = int32(mag)
			if signs&(1<<uint(2-i)) != 0 {
				angles[i] = -angles[i]
			}
		}

		ev := PyroEvent{
			Start:    time.Duration(fields[0]) * time.Millisecond,
			Duration: max(time.Duration(fields[1])*time.Millisecond, MinPyroDuration),
			Index:    fields[2],
			Pitch:    angles[0],
			Yaw:      angles[1],
			Roll:     angles[2],
		}
		ev.End = ev.Start + ev.Duration
		events = append(events, ev)
	}
	return events, nil
}
