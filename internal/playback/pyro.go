// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playback

import (
	"time"

	"github.com/ManuGH/dronesim/internal/showfile"
)

// PyroAt returns the pyro event firing at elapsed show time, or the zero
// event when nothing fires. Overlapping events resolve to the most recently
// triggered one.
func PyroAt(prog *showfile.Program, elapsed time.Duration) showfile.PyroEvent {
	if prog == nil || len(prog.Pyro) == 0 {
		return showfile.PyroEvent{}
	}
	events := prog.Pyro
	if elapsed < events[0].Start || elapsed >= events[len(events)-1].End {
		return showfile.PyroEvent{}
	}

	var (
		best  showfile.PyroEvent
		found bool
	)
	for _, ev := range events {
		if ev.Start <= elapsed && elapsed < ev.End && (!found || ev.Start > best.Start) {
			best, found = ev, true
		}
	}
	return best
}
