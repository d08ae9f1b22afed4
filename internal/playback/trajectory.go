// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playback

import (
	"fmt"
	"time"

	"github.com/ManuGH/dronesim/internal/showfile"
)

// Pose is a position in metres plus a yaw in degrees.
type Pose struct {
	Position showfile.Vec3
	Yaw      float64
}

// EvaluateSegment evaluates every axis of seg at t in [0, 1] in the show's own
// coordinate frame.
func EvaluateSegment(seg showfile.TrajectorySegment, t float64) (Pose, error) {
	var v [4]float64
	for a := showfile.AxisX; a <= showfile.AxisYaw; a++ {
		val, err := bezier(seg.Points[a], t)
		if err != nil {
			return Pose{}, fmt.Errorf("axis %d: %w", a, err)
		}
		v[a] = val
	}
	return Pose{Position: showfile.Vec3{X: v[0], Y: v[1], Z: v[2]}, Yaw: v[3]}, nil
}

func bezier(p []float64, t float64) (float64, error) {
	u := 1 - t
	switch len(p) {
	case 1:
		return p[0], nil
	case 2:
		return u*p[0] + t*p[1], nil
	case 4:
		return u*u*u*p[0] + 3*u*u*t*p[1] + 3*u*t*t*p[2] + t*t*t*p[3], nil
	case 8:
		var (
			u2, u3 = u * u, u * u * u
			t2, t3 = t * t, t * t * t
		)
		return u3*u3*u*p[0] +
			7*u3*u3*t*p[1] +
			21*u3*u2*t2*p[2] +
			35*u3*u*t3*p[3] +
			35*u3*t3*t*p[4] +
			21*u2*t3*t2*p[5] +
			7*u*t3*t3*p[6] +
			t3*t3*t*p[7], nil
	default:
		return 0, fmt.Errorf("%w: %d points", showfile.ErrUnsupportedBezierOrder, len(p))
	}
}

// Publish converts a show-frame position into the consumer's convention.
func Publish(p showfile.Vec3) showfile.Vec3 {
	return showfile.Vec3{X: -p.Y, Y: p.X, Z: p.Z}
}

// PositionAt returns the published pose at elapsed show time. ok is false
// when the program has no trajectory.
func PositionAt(prog *showfile.Program, cur *Cursor, elapsed time.Duration) (pose Pose, ok bool, err error) {
	if prog == nil || len(prog.Trajectory) == 0 {
		return Pose{}, false, nil
	}
	segs := prog.Trajectory
	first, last := segs[0], segs[len(segs)-1]

	var (
		seg showfile.TrajectorySegment
		t   float64
	)
	switch {
	case elapsed < first.Start:
		seg, t = first, 0
	case elapsed > last.End:
		seg, t = last, 1
	default:
		i := cur.locate(len(segs), func(i int) bool {
			return segs[i].Start <= elapsed && elapsed <= segs[i].End
		})
		seg = segs[i]
		t = progress(elapsed, seg.Start, seg.Duration)
	}

	pose, err = EvaluateSegment(seg, t)
	if err != nil {
		return Pose{}, false, err
	}
	pose.Position = Publish(pose.Position)
	return pose, true, nil
}

// progress maps elapsed into [0, 1] over a window. Empty windows count as
// finished.
func progress(elapsed, start, span time.Duration) float64 {
	if span <= 0 {
		return 1
	}
	t := float64(elapsed-start) / float64(span)
	return min(max(t, 0), 1)
}
