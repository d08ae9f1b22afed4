// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/google/renameio/v2"

	"github.com/ManuGH/dronesim/internal/showfile"
)

// Demo show geometry: raw coordinates are centimetres at this scale.
const (
	showgenScale   = 10
	showgenRamp    = 5 * time.Second
	showgenMaxSpan = 60 * time.Second
)

type showgenOptions struct {
	Out      string
	Hover    time.Duration
	Altitude float64
	Radius   float64
	Color    showfile.Color
	Pyro     bool
}

func runShowgen(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("dronesim showgen", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts showgenOptions
	var color string
	fs.StringVar(&opts.Out, "out", "", "output show file (required)")
	fs.DurationVar(&opts.Hover, "hover", 20*time.Second, "time spent at altitude")
	fs.Float64Var(&opts.Altitude, "altitude", 5, "hover altitude in metres")
	fs.Float64Var(&opts.Radius, "radius", 2, "horizontal excursion in metres")
	fs.StringVar(&color, "color", "#00a0ff", "light color as #rrggbb")
	fs.BoolVar(&opts.Pyro, "pyro", false, "fire pyro channel 0 at the top of the climb")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if opts.Out == "" {
		fmt.Fprintln(stderr, "Error: --out is required")
		return 2
	}
	c, err := parseColor(color)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	opts.Color = c

	data, err := buildDemoShow(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := renameio.WriteFile(opts.Out, data, 0o644); err != nil {
		fmt.Fprintf(stderr, "Error: write %s: %v\n", opts.Out, err)
		return 1
	}
	fmt.Fprintf(stdout, "wrote %d bytes to %s\n", len(data), opts.Out)
	return 0
}

func parseColor(s string) (showfile.Color, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "#"))
	if err != nil || len(raw) != 3 {
		return showfile.Color{}, fmt.Errorf("invalid color %q", s)
	}
	return showfile.Color{R: raw[0], G: raw[1], B: raw[2]}, nil
}

// toRaw converts metres to raw coordinates at showgenScale.
func toRaw(m float64) (int16, error) {
	v := math.Round(m * 1000 / showgenScale)
	if v < math.MinInt16 || v > math.MaxInt16 {
		return 0, fmt.Errorf("coordinate %.2fm out of range", m)
	}
	return int16(v), nil
}

// buildDemoShow produces climb, hover with a horizontal out-and-back, and
// descent, lit in one color and optionally with a single pyro event.
func buildDemoShow(opts showgenOptions) ([]byte, error) {
	if opts.Hover <= 0 {
		return nil, errors.New("hover duration must be positive")
	}
	alt, err := toRaw(opts.Altitude)
	if err != nil {
		return nil, err
	}
	radius, err := toRaw(opts.Radius)
	if err != nil {
		return nil, err
	}

	none := showfile.OrderConstant
	rampMS := uint16(showgenRamp.Milliseconds())

	traj := showfile.NewTrajectoryEncoder(showgenScale, 0, 0, 0, 0).
		Segment(rampMS, [4]showfile.BezierOrder{none, none, showfile.OrderLinear, none},
			[4][]int16{nil, nil, {alt}, nil})
	for left := opts.Hover; left > 0; left -= showgenMaxSpan {
		span := min(left, showgenMaxSpan)
		traj.Segment(uint16(span.Milliseconds()),
			[4]showfile.BezierOrder{showfile.OrderCubic, none, none, showfile.OrderLinear},
			[4][]int16{{radius, radius, 0}, nil, nil, {3600}})
	}
	traj.Segment(rampMS, [4]showfile.BezierOrder{none, none, showfile.OrderLinear, none},
		[4][]int16{nil, nil, {0}, nil})

	ramp := uint32(showgenRamp / showfile.LightTick)
	hold := uint32(opts.Hover / showfile.LightTick)
	light := showfile.NewLightEncoder().
		FadeToColor(opts.Color, ramp).
		SetColor(opts.Color, hold).
		FadeToBlack(ramp).
		End()

	b := showfile.NewBuilder().
		Block(showfile.BlockTrajectory, traj.Body()).
		Block(showfile.BlockLightProgram, light.Body())
	if opts.Pyro {
		b.Block(showfile.BlockEventList, showfile.NewEventListEncoder().
			Fire(uint32(showgenRamp.Milliseconds()), 1000, 0, 0, 0, 0).Body())
	}
	return b.Bytes()
}
