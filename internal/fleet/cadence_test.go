// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fleet

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/dronesim/internal/drone"
	"github.com/ManuGH/dronesim/internal/wire"
)

func TestForEachBatch_VisitsFleetInOrder(t *testing.T) {
	c, _ := newTestFleet(t, Config{DroneCount: 25, BatchSize: 10, BatchPause: time.Microsecond}, nil)

	var visited []uint8
	done := c.forEachBatch(context.Background(), func(s *drone.Session) {
		visited = append(visited, s.UID())
	})

	require.True(t, done)
	require.Len(t, visited, 25)
	for i, uid := range visited {
		assert.Equal(t, uint8(i+1), uid)
	}
}

func TestForEachBatch_CancelCompletesCurrentBatch(t *testing.T) {
	c, _ := newTestFleet(t, Config{DroneCount: 25, BatchSize: 10, BatchPause: time.Hour}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	visited := 0
	done := c.forEachBatch(ctx, func(*drone.Session) {
		visited++
		cancel()
	})

	assert.False(t, done)
	assert.Equal(t, 10, visited)
}

func TestSetBatchPause_AppliesAtNextBoundary(t *testing.T) {
	c, _ := newTestFleet(t, Config{DroneCount: 25, BatchSize: 10, BatchPause: time.Hour}, nil)
	assert.Equal(t, time.Hour, c.BatchPause())

	// Shortened during the first batch, so the walk never waits an hour.
	done := make(chan bool, 1)
	go func() {
		done <- c.forEachBatch(context.Background(), func(s *drone.Session) {
			if s.UID() == 1 {
				c.SetBatchPause(time.Microsecond)
			}
		})
	}()
	select {
	case ok := <-done:
		assert.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("batch pause change was not picked up")
	}

	c.SetBatchPause(-time.Second)
	assert.Zero(t, c.BatchPause())
}

func TestForEachBatch_AlreadyCancelled(t *testing.T) {
	c, _ := newTestFleet(t, Config{DroneCount: 3}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	visited := 0
	assert.False(t, c.forEachBatch(ctx, func(*drone.Session) { visited++ }))
	assert.Zero(t, visited)
}

func TestSendTelemetry_ReportsHomeWithoutShow(t *testing.T) {
	origin := drone.Origin{Lat: 47.0, Lon: 8.0, Alt: 400}
	c, pipe := newTestFleet(t, Config{DroneCount: 4, Origin: origin}, nil)
	s, _ := c.Session(4)

	c.sendTelemetry(s, testNow)

	out := sent(t, pipe)
	require.Len(t, out, 3)
	raw, ok := out[0].(*wire.GPSRawInt)
	require.True(t, ok, "got %T", out[0])
	pos, ok := out[1].(*wire.GlobalPositionInt)
	require.True(t, ok, "got %T", out[1])
	_, ok = out[2].(*wire.SysStatus)
	require.True(t, ok, "got %T", out[2])

	home := HomePosition(4, 4)
	wantLat, wantLon := offsetLatLon(origin, home.X, home.Y)
	assert.Equal(t, wantLat, raw.Lat)
	assert.Equal(t, wantLon, raw.Lon)
	assert.Equal(t, int32(400000), raw.AltMM)
	assert.Equal(t, uint64(testNow.UnixMicro()), raw.TimeUsec)
	assert.Equal(t, raw.Lat, pos.Lat)
	assert.Equal(t, int32(0), pos.RelativeAltMM)
}

func TestSendTelemetry_UsesSessionOrigin(t *testing.T) {
	c, pipe := newTestFleet(t, Config{DroneCount: 1}, nil)
	s, _ := c.Session(1)
	s.SetOrigin(drone.Origin{Lat: 10, Lon: 20, Alt: 5})

	c.sendTelemetry(s, testNow)

	raw := sent(t, pipe)[0].(*wire.GPSRawInt)
	assert.Equal(t, int32(100000000), raw.Lat)
	assert.Equal(t, int32(200000000), raw.Lon)
	assert.Equal(t, int32(5000), raw.AltMM)
}

func TestOffsetLatLon(t *testing.T) {
	oneDegree := earthRadius * math.Pi / 180

	lat, lon := offsetLatLon(drone.Origin{}, 0, oneDegree)
	assert.Equal(t, int32(1e7), lat)
	assert.Equal(t, int32(0), lon)

	lat, lon = offsetLatLon(drone.Origin{Lat: 60}, oneDegree, 0)
	assert.Equal(t, int32(60e7), lat)
	assert.InDelta(t, 2e7, lon, 1)
}

func TestHeadingCentidegrees(t *testing.T) {
	tests := []struct {
		yaw  float64
		want uint16
	}{
		{0, 0},
		{90, 9000},
		{-90, 27000},
		{360, 0},
		{725.5, 550},
		{359.999, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, headingCentidegrees(tt.yaw), "yaw %v", tt.yaw)
	}
}

func TestSendHeartbeat(t *testing.T) {
	c, pipe := newTestFleet(t, Config{DroneCount: 1}, nil)
	s, _ := c.Session(1)

	c.sendHeartbeat(s, testNow)
	idle := sent(t, pipe)[0].(*wire.Heartbeat)
	assert.Equal(t, uint8(statusStandby), idle.SystemStatus)
	assert.Zero(t, idle.BaseMode&modeFlagArmed)

	require.NoError(t, s.RestoreShow(hoverShow(t)))
	s.SetShowStart(testNow.Add(-time.Second))

	c.sendHeartbeat(s, testNow)
	active := sent(t, pipe)[0].(*wire.Heartbeat)
	assert.Equal(t, uint8(statusActive), active.SystemStatus)
	assert.NotZero(t, active.BaseMode&modeFlagArmed)

	c.sendHeartbeat(s, testNow.Add(time.Minute))
	done := sent(t, pipe)[0].(*wire.Heartbeat)
	assert.Equal(t, uint8(statusStandby), done.SystemStatus)
}

func TestDrain_EmptiesTransportPastMaxPerTick(t *testing.T) {
	c, pipe := newTestFleet(t, Config{DroneCount: 1, MaxPerTick: 3}, nil)
	for i := range 10 {
		pipe.Deliver(frameFor(t, 1, &wire.ParamSet{Name: fmt.Sprintf("P%d", i), Value: float32(i)}))
	}

	require.NoError(t, c.drain(context.Background()))

	s, _ := c.Session(1)
	for i := range 10 {
		v, ok := s.Parameter(fmt.Sprintf("P%d", i))
		require.True(t, ok, "P%d", i)
		assert.Equal(t, float32(i), v)
	}
	assert.False(t, c.ReceiverHeartbeat().IsZero())
	_, ok, err := pipe.Poll()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDrain_StopsOnCancel(t *testing.T) {
	c, pipe := newTestFleet(t, Config{DroneCount: 1, MaxPerTick: 2}, nil)
	pipe.Deliver(frameFor(t, 1, &wire.ParamSet{Name: "GAIN", Value: 1}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, c.drain(ctx))

	_, ok, err := pipe.Poll()
	require.NoError(t, err)
	assert.True(t, ok, "cancelled drain must not consume frames")
}
