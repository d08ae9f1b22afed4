// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package fleet runs a simulated drone fleet behind one shared transport:
// it routes inbound frames to drone sessions, paces outbound telemetry and
// heartbeats, and projects the fleet state into a flat output buffer.
package fleet

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ManuGH/dronesim/internal/drone"
	xglog "github.com/ManuGH/dronesim/internal/log"
	"github.com/ManuGH/dronesim/internal/metrics"
	"github.com/ManuGH/dronesim/internal/showfile"
	"github.com/ManuGH/dronesim/internal/transport"
)

// HomeSpacing is the distance in metres between neighbouring home positions.
const HomeSpacing = 2.0

// ErrNoTransport is returned by New without a transport.
var ErrNoTransport = errors.New("fleet: transport is required")

// Archive persists and restores decoded shows.
type Archive interface {
	drone.Archiver
	Load(uid uint8) ([]byte, error)
}

// Config configures a Coordinator.
type Config struct {
	DroneCount int
	Projection ProjectionMode

	TelemetryInterval time.Duration
	HeartbeatInterval time.Duration
	BatchSize         int
	BatchPause        time.Duration

	PollInterval time.Duration
	MaxPerTick   int

	// Origin is the default geographic reference until a drone receives its own.
	Origin drone.Origin
}

func (c *Config) setDefaults() {
	if c.DroneCount <= 0 {
		c.DroneCount = 1
	}
	if c.TelemetryInterval <= 0 {
		c.TelemetryInterval = 200 * time.Millisecond
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 10 * time.Millisecond
	}
	if c.MaxPerTick <= 0 {
		c.MaxPerTick = 256
	}
}

// Coordinator owns the sessions of the fleet and the shared transport.
type Coordinator struct {
	cfg       Config
	runID     string
	logger    zerolog.Logger
	transport transport.Transport
	now       func() time.Time
	booted    time.Time

	// Membership is fixed after New; the map is never written again.
	sessions map[uint8]*drone.Session
	order    []uint8

	seq          atomic.Uint32
	receiverTick atomic.Int64 // unix nanoseconds, wall clock
	batchPause   atomic.Int64 // nanoseconds; adjustable at runtime

	unknownTarget rate.Sometimes
	pollFailure   rate.Sometimes
	sendFailure   rate.Sometimes
}

// Option customises a Coordinator.
type Option func(*Coordinator) error

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) error {
		c.now = now
		return nil
	}
}

// WithLogger sets the base logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Coordinator) error {
		c.logger = logger
		return nil
	}
}

// New builds the fleet. Sessions are created for uids 1..DroneCount; an
// optional archive restores previously uploaded shows.
func New(cfg Config, t transport.Transport, archive Archive, opts ...Option) (*Coordinator, error) {
	if t == nil {
		return nil, ErrNoTransport
	}
	cfg.setDefaults()
	if cfg.DroneCount > drone.MaxUID {
		return nil, fmt.Errorf("fleet: drone count %d exceeds %d", cfg.DroneCount, drone.MaxUID)
	}

	c := &Coordinator{
		cfg:           cfg,
		runID:         uuid.NewString(),
		logger:        xglog.WithComponent("fleet"),
		transport:     t,
		now:           time.Now,
		sessions:      make(map[uint8]*drone.Session, cfg.DroneCount),
		unknownTarget: rate.Sometimes{First: 1, Interval: 10 * time.Second},
		pollFailure:   rate.Sometimes{First: 3, Interval: 10 * time.Second},
		sendFailure:   rate.Sometimes{First: 3, Interval: 10 * time.Second},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With().Str(xglog.FieldRunID, c.runID).Logger()
	c.batchPause.Store(int64(cfg.BatchPause))
	c.booted = c.now()

	var archiver drone.Archiver
	if archive != nil {
		archiver = archive
	}
	for uid := 1; uid <= cfg.DroneCount; uid++ {
		s, err := drone.NewSession(uid, drone.Options{
			Logger:   c.logger,
			Now:      c.now,
			Archiver: archiver,
			Home:     HomePosition(uid, cfg.DroneCount),
		})
		if err != nil {
			return nil, err
		}
		c.sessions[uint8(uid)] = s
		c.order = append(c.order, uint8(uid))
	}
	sort.Slice(c.order, func(i, j int) bool { return c.order[i] < c.order[j] })

	if archive != nil {
		c.restore(archive)
	}

	c.logger.Info().
		Str("event", "fleet.created").
		Int("drones", cfg.DroneCount).
		Str("projection", cfg.Projection.String()).
		Msg("fleet created")
	return c, nil
}

func (c *Coordinator) restore(archive Archive) {
	restored := 0
	for _, uid := range c.order {
		data, err := archive.Load(uid)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err == nil {
			err = c.sessions[uid].RestoreShow(data)
		}
		if err != nil {
			c.logger.Warn().
				Err(err).
				Str("event", "fleet.restore_failed").
				Int(xglog.FieldDroneID, int(uid)).
				Msg("could not restore archived show")
			continue
		}
		restored++
	}
	metrics.SetDronesWithShow(c.loadedCount())
	if restored > 0 {
		c.logger.Info().Str("event", "fleet.restored").Int("drones", restored).Msg("archived shows restored")
	}
}

// HomePosition lays the fleet out on a square grid centred on the origin.
func HomePosition(uid, count int) showfile.Vec3 {
	side := int(math.Ceil(math.Sqrt(float64(count))))
	if side == 0 {
		side = 1
	}
	i := uid - 1
	offset := float64(side-1) / 2
	return showfile.Vec3{
		X: (float64(i%side) - offset) * HomeSpacing,
		Y: (float64(i/side) - offset) * HomeSpacing,
	}
}

// RunID identifies this fleet instance in logs.
func (c *Coordinator) RunID() string { return c.runID }

// Size returns the number of drones.
func (c *Coordinator) Size() int { return len(c.order) }

// Session returns the session of uid.
func (c *Coordinator) Session(uid uint8) (*drone.Session, bool) {
	s, ok := c.sessions[uid]
	return s, ok
}

// Sessions returns every session ordered by uid.
func (c *Coordinator) Sessions() []*drone.Session {
	out := make([]*drone.Session, 0, len(c.order))
	for _, uid := range c.order {
		out = append(out, c.sessions[uid])
	}
	return out
}

// ReceiverHeartbeat returns the wall-clock time of the last receiver tick,
// or the zero time before the receiver has run.
func (c *Coordinator) ReceiverHeartbeat() time.Time {
	ns := c.receiverTick.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// BatchPause returns the current pause between cadence batches.
func (c *Coordinator) BatchPause() time.Duration {
	return time.Duration(c.batchPause.Load())
}

// SetBatchPause changes the pause between cadence batches. It takes effect
// from the next batch boundary; negative values are treated as zero.
func (c *Coordinator) SetBatchPause(d time.Duration) {
	d = max(d, 0)
	if old := time.Duration(c.batchPause.Swap(int64(d))); old != d {
		c.logger.Info().
			Str("event", "fleet.batch_pause_changed").
			Dur("old", old).
			Dur("new", d).
			Msg("cadence batch pause changed")
	}
}

// Now returns the fleet clock.
func (c *Coordinator) Now() time.Time { return c.now() }

func (c *Coordinator) loadedCount() int {
	n := 0
	for _, s := range c.sessions {
		if s.Program() != nil {
			n++
		}
	}
	return n
}

// ReportStatus logs one line per drone and a fleet summary.
func (c *Coordinator) ReportStatus() {
	now := c.now()
	for _, s := range c.Sessions() {
		st := s.StateAtDetached(now)
		ev := c.logger.Info().
			Str("event", "fleet.drone_status").
			Uint8(xglog.FieldDroneID, st.UID).
			Bool("has_show", st.HasShow).
			Float64("x", st.Pose.Position.X).
			Float64("y", st.Pose.Position.Y).
			Float64("z", st.Pose.Position.Z)
		if s.HasShowStart() {
			ev = ev.Dur("elapsed", st.Elapsed)
		}
		ev.Msg("drone status")
	}
	c.logger.Info().
		Str("event", "fleet.status").
		Int("drones", c.Size()).
		Int("with_show", c.loadedCount()).
		Time("receiver_heartbeat", c.ReceiverHeartbeat()).
		Msg("fleet status")
}

// Run starts the telemetry, heartbeat and receiver loops and blocks until
// ctx is cancelled or the transport fails. The transport is not closed.
func (c *Coordinator) Run(ctx context.Context) error {
	ctx = xglog.ContextWithRunID(ctx, c.runID)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.runCadence(ctx, "telemetry", c.cfg.TelemetryInterval, c.sendTelemetry)
	})
	g.Go(func() error {
		return c.runCadence(ctx, "heartbeat", c.cfg.HeartbeatInterval, c.sendHeartbeat)
	})
	g.Go(func() error {
		return c.runReceiver(ctx)
	})

	c.logger.Info().Str("event", "fleet.started").Msg("fleet loops started")
	err := g.Wait()
	c.logger.Info().Err(err).Str("event", "fleet.stopped").Msg("fleet loops stopped")
	return err
}
