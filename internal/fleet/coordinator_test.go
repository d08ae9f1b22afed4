// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fleet

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/dronesim/internal/archive"
	"github.com/ManuGH/dronesim/internal/showfile"
	"github.com/ManuGH/dronesim/internal/transport"
	"github.com/ManuGH/dronesim/internal/wire"
)

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{DroneCount: 1}, nil, nil)
	assert.ErrorIs(t, err, ErrNoTransport)

	_, err = New(Config{DroneCount: 255}, transport.NewPipe(1), nil)
	assert.Error(t, err)
}

func TestNew_Membership(t *testing.T) {
	c, _ := newTestFleet(t, Config{DroneCount: 12}, nil)

	assert.Equal(t, 12, c.Size())
	_, err := uuid.Parse(c.RunID())
	assert.NoError(t, err)

	sessions := c.Sessions()
	require.Len(t, sessions, 12)
	for i, s := range sessions {
		assert.Equal(t, uint8(i+1), s.UID())
	}
	_, ok := c.Session(0)
	assert.False(t, ok)
	_, ok = c.Session(13)
	assert.False(t, ok)
}

func TestHomePosition_Grid(t *testing.T) {
	assert.Equal(t, showfile.Vec3{}, HomePosition(1, 1))
	assert.Equal(t, showfile.Vec3{X: -1, Y: -1}, HomePosition(1, 4))
	assert.Equal(t, showfile.Vec3{X: 1, Y: -1}, HomePosition(2, 4))
	assert.Equal(t, showfile.Vec3{X: 1, Y: 1}, HomePosition(4, 4))
	assert.Equal(t, showfile.Vec3{X: -2, Y: 0}, HomePosition(4, 9))
}

func TestNew_RestoresArchivedShows(t *testing.T) {
	store, err := archive.NewStore(t.TempDir(), zerolog.New(io.Discard))
	require.NoError(t, err)
	require.NoError(t, store.Save(2, hoverShow(t)))
	require.NoError(t, store.Save(3, []byte("not a show file at all")))

	c, _ := newTestFleet(t, Config{DroneCount: 3}, store)

	for uid, want := range map[uint8]bool{1: false, 2: true, 3: false} {
		s, _ := c.Session(uid)
		assert.Equal(t, want, s.Program() != nil, "drone %d", uid)
	}
}

func TestNew_RestoreSkipsMissing(t *testing.T) {
	mem := &memArchive{shows: map[uint8][]byte{1: hoverShow(t)}}

	c, _ := newTestFleet(t, Config{DroneCount: 2}, mem)

	s1, _ := c.Session(1)
	s2, _ := c.Session(2)
	assert.NotNil(t, s1.Program())
	assert.Nil(t, s2.Program())
	assert.Empty(t, mem.saved, "restoring must not re-archive")
}

func TestRun_ServesFramesAndStops(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cfg := Config{
		DroneCount:        3,
		TelemetryInterval: 5 * time.Millisecond,
		HeartbeatInterval: 5 * time.Millisecond,
		BatchSize:         2,
		BatchPause:        time.Millisecond,
		PollInterval:      time.Millisecond,
	}
	c, pipe := newTestFleet(t, cfg, nil)
	assert.True(t, c.ReceiverHeartbeat().IsZero())
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()

	pipe.Deliver(frameFor(t, 2, &wire.ParamSet{Name: "GAIN", Value: 2}))

	seen := map[wire.Kind]bool{}
	require.Eventually(t, func() bool {
		for {
			select {
			case f := <-pipe.Sent():
				seen[f.Kind] = true
			default:
				return seen[wire.KindParamValue] && seen[wire.KindHeartbeat] && seen[wire.KindGPSRawInt]
			}
		}
	}, 2*time.Second, 5*time.Millisecond)

	s, _ := c.Session(2)
	v, ok := s.Parameter("GAIN")
	assert.True(t, ok)
	assert.Equal(t, float32(2), v)
	assert.False(t, c.ReceiverHeartbeat().IsZero())

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRun_ClosedTransportStopsLoops(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	c, pipe := newTestFleet(t, Config{DroneCount: 1, PollInterval: time.Millisecond}, nil)
	require.NoError(t, pipe.Close())

	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(context.Background()) }()

	select {
	case err := <-errCh:
		assert.True(t, errors.Is(err, transport.ErrClosed), "got %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on a closed transport")
	}
}

func TestReportStatus(t *testing.T) {
	var buf bytes.Buffer
	c, err := New(Config{DroneCount: 2}, transport.NewPipe(1), nil,
		WithClock(func() time.Time { return testNow }),
		WithLogger(zerolog.New(&buf)),
	)
	require.NoError(t, err)
	s, _ := c.Session(2)
	require.NoError(t, s.RestoreShow(hoverShow(t)))
	s.SetShowStart(testNow.Add(-time.Second))

	c.ReportStatus()
	out := buf.String()
	assert.Contains(t, out, `"event":"fleet.drone_status"`)
	assert.Contains(t, out, `"event":"fleet.status"`)
	assert.Contains(t, out, `"with_show":1`)
	assert.Contains(t, out, `"elapsed":1000`)
}
