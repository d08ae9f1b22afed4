// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playback

import (
	"math"
	"time"

	"github.com/ManuGH/dronesim/internal/showfile"
)

// ColorAt returns the light color at elapsed show time. Outside the program
// the light is off.
func ColorAt(prog *showfile.Program, cur *Cursor, elapsed time.Duration) showfile.Color {
	if prog == nil || len(prog.Light) == 0 {
		return showfile.Black
	}
	events := prog.Light
	if elapsed < events[0].Start || elapsed >= events[len(events)-1].End {
		return showfile.Black
	}

	i := cur.locate(len(events), func(i int) bool {
		return events[i].Start <= elapsed && elapsed < events[i].End
	})
	ev := events[i]

	if ev.Opcode.IsFade() && ev.HasColor {
		return Lerp(ev.PreviousColor, ev.Color, progress(elapsed, ev.Start, ev.End-ev.Start))
	}
	if ev.HasColor {
		return ev.Color
	}
	return ev.PreviousColor
}

// Lerp blends two colors channel by channel.
func Lerp(from, to showfile.Color, t float64) showfile.Color {
	mix := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
	}
	return showfile.Color{R: mix(from.R, to.R), G: mix(from.G, to.G), B: mix(from.B, to.B)}
}
