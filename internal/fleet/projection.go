// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fleet

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/ManuGH/dronesim/internal/drone"
)

// ProjectionExtent is the half edge of the cube mapped onto the uint16 range.
const ProjectionExtent = 800.0

// ProjectionMode selects the per-drone record layout.
type ProjectionMode int

const (
	// ProjectColor writes position followed by RGB.
	ProjectColor ProjectionMode = iota
	// ProjectPyro writes position, orientation deltas and the firing channel.
	ProjectPyro
)

// ParseProjectionMode maps a configuration value onto a ProjectionMode.
func ParseProjectionMode(s string) (ProjectionMode, error) {
	switch s {
	case "", "color":
		return ProjectColor, nil
	case "pyro":
		return ProjectPyro, nil
	default:
		return 0, fmt.Errorf("unknown projection mode %q", s)
	}
}

func (m ProjectionMode) String() string {
	if m == ProjectPyro {
		return "pyro"
	}
	return "color"
}

// RecordSize is the number of bytes written per drone.
//
//	color: x y z (uint16 BE each) r g b
//	pyro:  x y z (uint16 BE each) pitch yaw roll (int8 each) channel
//
// channel is 0 while nothing fires and index+1 otherwise.
func (m ProjectionMode) RecordSize() int {
	if m == ProjectPyro {
		return 10
	}
	return 9
}

// ProjectionMode returns the configured record layout.
func (c *Coordinator) ProjectionMode() ProjectionMode { return c.cfg.Projection }

// Project evaluates every drone at now and writes its record at
// (uid-1)*RecordSize. buf is grown if needed and returned. now must not go
// backwards between calls; ProjectAt serves arbitrary instants.
func (c *Coordinator) Project(now time.Time, buf []byte) []byte {
	return c.project(buf, func(s *drone.Session) drone.State { return s.StateAt(now) })
}

// ProjectAt is Project evaluated with throwaway cursors, leaving the live
// projection undisturbed.
func (c *Coordinator) ProjectAt(at time.Time, buf []byte) []byte {
	return c.project(buf, func(s *drone.Session) drone.State { return s.StateAtDetached(at) })
}

func (c *Coordinator) project(buf []byte, eval func(*drone.Session) drone.State) []byte {
	mode := c.cfg.Projection
	size := mode.RecordSize()
	need := len(c.order) * size
	if cap(buf) < need {
		buf = make([]byte, need)
	}
	buf = buf[:need]

	for _, uid := range c.order {
		st := eval(c.sessions[uid])
		rec := buf[int(uid-1)*size : int(uid)*size]

		p := st.Pose.Position
		binary.BigEndian.PutUint16(rec[0:], quantize(p.X))
		binary.BigEndian.PutUint16(rec[2:], quantize(p.Y))
		binary.BigEndian.PutUint16(rec[4:], quantize(p.Z))

		if mode == ProjectPyro {
			ev := st.Pyro
			rec[6] = byte(clampInt8(ev.Pitch))
			rec[7] = byte(clampInt8(ev.Yaw))
			rec[8] = byte(clampInt8(ev.Roll))
			rec[9] = 0
			if ev.Duration > 0 {
				rec[9] = byte(min(ev.Index+1, math.MaxUint8))
			}
			continue
		}
		rec[6], rec[7], rec[8] = st.Color.R, st.Color.G, st.Color.B
	}
	return buf
}

// quantize maps [-ProjectionExtent, ProjectionExtent] linearly onto [0, 65535].
func quantize(v float64) uint16 {
	v = min(max(v, -ProjectionExtent), ProjectionExtent)
	return uint16(math.Round((v + ProjectionExtent) / (2 * ProjectionExtent) * math.MaxUint16))
}

func clampInt8(v int32) int8 {
	return int8(min(max(v, math.MinInt8), math.MaxInt8))
}
