// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package playback answers "what is the drone doing at time T" for a decoded
// show program.
package playback

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/ManuGH/dronesim/internal/showfile"
)

// Lookahead is how many entries past the cached one a Cursor probes before
// giving up. Cursors assume time only moves forward between queries; queries
// at arbitrary instants start from SeekTrajectory or SeekLight instead.
const Lookahead = 5

// Cursor caches the index of the last active segment or event. It is safe for
// concurrent use; concurrent callers may observe each other's updates late.
type Cursor struct {
	index atomic.Int32
}

// Reset rewinds the cursor to the first entry.
func (c *Cursor) Reset() { c.index.Store(0) }

// Index returns the cached position.
func (c *Cursor) Index() int { return int(c.index.Load()) }

// locate returns the index of the entry containing the query among n entries.
// When neither the cached entry nor the next Lookahead entries match, the
// cursor parks at the end of the probed window.
func (c *Cursor) locate(n int, contains func(i int) bool) int {
	i := min(max(int(c.index.Load()), 0), n-1)
	if contains(i) {
		c.index.Store(int32(i))
		return i
	}
	last := min(i+Lookahead, n-1)
	for j := i + 1; j <= last; j++ {
		if contains(j) {
			c.index.Store(int32(j))
			return j
		}
	}
	c.index.Store(int32(last))
	return last
}

// SeekTrajectory returns a fresh cursor positioned on the segment active at
// elapsed. It is meant for one-off queries that must not disturb a live
// cursor.
func SeekTrajectory(prog *showfile.Program, elapsed time.Duration) *Cursor {
	c := &Cursor{}
	if prog != nil {
		segs := prog.Trajectory
		c.seek(len(segs), func(i int) bool { return segs[i].Start > elapsed })
	}
	return c
}

// SeekLight is SeekTrajectory for the light program.
func SeekLight(prog *showfile.Program, elapsed time.Duration) *Cursor {
	c := &Cursor{}
	if prog != nil {
		events := prog.Light
		c.seek(len(events), func(i int) bool { return events[i].Start > elapsed })
	}
	return c
}

// seek stores the last index whose entry starts at or before the query.
func (c *Cursor) seek(n int, startsAfter func(i int) bool) {
	c.index.Store(int32(max(sort.Search(n, startsAfter)-1, 0)))
}
