// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package showfile decodes the binary show format uploaded to each drone into
// trajectory, light and pyro programs.
package showfile

import (
	"fmt"
	"time"
)

// BlockType tags a length-prefixed section of a show file.
type BlockType uint8

const (
	BlockHeader       BlockType = 0
	BlockTrajectory   BlockType = 1
	BlockLightProgram BlockType = 2
	BlockEventList    BlockType = 3
)

func (b BlockType) String() string {
	switch b {
	case BlockHeader:
		return "header"
	case BlockTrajectory:
		return "trajectory"
	case BlockLightProgram:
		return "light_program"
	case BlockEventList:
		return "event_list"
	default:
		return fmt.Sprintf("BlockType(%d)", uint8(b))
	}
}

// BezierOrder is the polynomial degree used for one axis of a segment.
type BezierOrder uint8

const (
	OrderConstant BezierOrder = iota
	OrderLinear
	OrderCubic
	OrderSeptic
)

// ControlPoints returns how many points the order adds beyond the inherited
// start point.
func (o BezierOrder) ControlPoints() (int, error) {
	switch o {
	case OrderConstant:
		return 0, nil
	case OrderLinear:
		return 1, nil
	case OrderCubic:
		return 3, nil
	case OrderSeptic:
		return 7, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBezierOrder, uint8(o))
	}
}

func (o BezierOrder) String() string {
	switch o {
	case OrderConstant:
		return "constant"
	case OrderLinear:
		return "linear"
	case OrderCubic:
		return "cubic"
	case OrderSeptic:
		return "septic"
	default:
		return fmt.Sprintf("BezierOrder(%d)", uint8(o))
	}
}

// Axis indexes the per-axis arrays of a TrajectorySegment.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
	AxisYaw
	numAxes
)

// Vec3 is a position in metres.
type Vec3 struct {
	X, Y, Z float64
}

// TrajectorySegment is one time slice of the flight path. Points holds, per
// axis, the inherited start point followed by the control points of that
// axis' order, so len(Points[a]) is 1, 2, 4 or 8.
type TrajectorySegment struct {
	Orders   [numAxes]BezierOrder
	Points   [numAxes][]float64
	Start    time.Duration
	End      time.Duration
	Duration time.Duration
}

// EndPoint returns the position and yaw the segment finishes at.
func (s TrajectorySegment) EndPoint() (Vec3, float64) {
	last := func(a Axis) float64 {
		pts := s.Points[a]
		if len(pts) == 0 {
			return 0
		}
		return pts[len(pts)-1]
	}
	return Vec3{X: last(AxisX), Y: last(AxisY), Z: last(AxisZ)}, last(AxisYaw)
}

// Color is an opaque 8-bit RGB value.
type Color struct {
	R, G, B uint8
}

var (
	Black = Color{}
	White = Color{R: 255, G: 255, B: 255}
)

// Opcode is a light program instruction.
type Opcode uint8

const (
	OpEnd                     Opcode = 0
	OpNop                     Opcode = 1
	OpSleep                   Opcode = 2
	OpWaitUntil               Opcode = 3
	OpSetColor                Opcode = 4
	OpSetGray                 Opcode = 5
	OpSetBlack                Opcode = 6
	OpSetWhite                Opcode = 7
	OpFadeToColor             Opcode = 8
	OpFadeToGray              Opcode = 9
	OpFadeToBlack             Opcode = 10
	OpFadeToWhite             Opcode = 11
	OpLoopBegin               Opcode = 12
	OpLoopEnd                 Opcode = 13
	OpFadeToColorFromChannels Opcode = 14
	OpSetColorFromChannels    Opcode = 15
	OpJump                    Opcode = 16
	OpResetClock              Opcode = 17
	OpUnused                  Opcode = 18
	OpSetPyro                 Opcode = 19
	OpSetPyroAll              Opcode = 20
)

var opcodeNames = map[Opcode]string{
	OpEnd:                     "END",
	OpNop:                     "NOP",
	OpSleep:                   "SLEEP",
	OpWaitUntil:               "WAIT_UNTIL",
	OpSetColor:                "SET_COLOR",
	OpSetGray:                 "SET_GRAY",
	OpSetBlack:                "SET_BLACK",
	OpSetWhite:                "SET_WHITE",
	OpFadeToColor:             "FADE_TO_COLOR",
	OpFadeToGray:              "FADE_TO_GRAY",
	OpFadeToBlack:             "FADE_TO_BLACK",
	OpFadeToWhite:             "FADE_TO_WHITE",
	OpLoopBegin:               "LOOP_BEGIN",
	OpLoopEnd:                 "LOOP_END",
	OpFadeToColorFromChannels: "FADE_TO_COLOR_FROM_CHANNELS",
	OpSetColorFromChannels:    "SET_COLOR_FROM_CHANNELS",
	OpJump:                    "JUMP",
	OpResetClock:              "RESET_CLOCK",
	OpUnused:                  "UNUSED",
	OpSetPyro:                 "SET_PYRO",
	OpSetPyroAll:              "SET_PYRO_ALL",
}

func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(%d)", uint8(o))
}

// IsFade reports whether the opcode blends from the previous color.
func (o Opcode) IsFade() bool {
	switch o {
	case OpFadeToColor, OpFadeToGray, OpFadeToBlack, OpFadeToWhite, OpFadeToColorFromChannels:
		return true
	}
	return false
}

// LightEvent is one decoded light instruction with its resolved timing.
// PreviousColor is the last color defined by an event strictly before this
// one, black if there is none.
type LightEvent struct {
	Opcode        Opcode
	Color         Color
	HasColor      bool
	Operand       uint32 // loop counter or jump address; not executed
	Duration      time.Duration
	Start         time.Duration
	End           time.Duration
	PreviousColor Color
}

// PyroEvent fires one pyro channel with a given orientation in degrees.
type PyroEvent struct {
	Start    time.Duration
	Duration time.Duration
	End      time.Duration
	Index    uint32
	Pitch    int32
	Yaw      int32
	Roll     int32
}

// Program is a fully decoded show. It is never mutated after Decode returns.
type Program struct {
	Trajectory []TrajectorySegment
	Light      []LightEvent
	Pyro       []PyroEvent
}

// Duration is the end of the latest trajectory segment, light event or pyro
// event, measured from show start.
func (p *Program) Duration() time.Duration {
	var end time.Duration
	if n := len(p.Trajectory); n > 0 {
		end = p.Trajectory[n-1].End
	}
	if n := len(p.Light); n > 0 {
		end = max(end, p.Light[n-1].End)
	}
	for _, ev := range p.Pyro {
		end = max(end, ev.End)
	}
	return end
}
