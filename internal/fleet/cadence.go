// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fleet

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ManuGH/dronesim/internal/drone"
	xglog "github.com/ManuGH/dronesim/internal/log"
	"github.com/ManuGH/dronesim/internal/metrics"
	"github.com/ManuGH/dronesim/internal/transport"
	"github.com/ManuGH/dronesim/internal/wire"
)

const earthRadius = 6378137.0 // metres, WGS84 equatorial

// Simulated vehicle constants reported in telemetry.
const (
	vehicleQuadrotor  = 2
	autopilotGeneric  = 0
	modeFlagCustom    = 1
	modeFlagArmed     = 128
	statusStandby     = 3
	statusActive      = 4
	fix3D             = 3
	satellitesVisible = 12
	batteryMillivolts = 12600
	batteryPercent    = 100
)

// runCadence calls send for every session once per interval, in batches of
// BatchSize separated by BatchPause. Cancellation is observed between
// batches; a batch in flight always completes.
func (c *Coordinator) runCadence(ctx context.Context, name string, interval time.Duration, send func(*drone.Session, time.Time)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		start := time.Now()
		if !c.forEachBatch(ctx, func(s *drone.Session) { send(s, c.now()) }) {
			return nil
		}
		metrics.CadenceDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
}

// forEachBatch walks the fleet in uid order. It returns false when ctx was
// cancelled before the walk finished.
func (c *Coordinator) forEachBatch(ctx context.Context, fn func(*drone.Session)) bool {
	size := c.cfg.BatchSize
	for i := 0; i < len(c.order); i += size {
		if pause := c.BatchPause(); i > 0 && pause > 0 {
			timer := time.NewTimer(pause)
			select {
			case <-ctx.Done():
				timer.Stop()
				return false
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return false
		}

		end := min(i+size, len(c.order))
		for _, uid := range c.order[i:end] {
			fn(c.sessions[uid])
		}
	}
	return true
}

func (c *Coordinator) sendTelemetry(s *drone.Session, now time.Time) {
	pose := s.PositionAt(now)
	origin := c.originOf(s)
	lat, lon := offsetLatLon(origin, pose.Position.X, pose.Position.Y)
	altMM := int32(math.Round((origin.Alt + pose.Position.Z) * 1000))

	c.send(s.UID(), &wire.GPSRawInt{
		TimeUsec:   uint64(now.UnixMicro()),
		FixType:    fix3D,
		Lat:        lat,
		Lon:        lon,
		AltMM:      altMM,
		Satellites: satellitesVisible,
	})
	c.send(s.UID(), &wire.GlobalPositionInt{
		TimeBootMS:    uint32(now.Sub(c.booted).Milliseconds()),
		Lat:           lat,
		Lon:           lon,
		AltMM:         altMM,
		RelativeAltMM: int32(math.Round(pose.Position.Z * 1000)),
		Heading:       headingCentidegrees(pose.Yaw),
	})
	c.send(s.UID(), &wire.SysStatus{
		VoltageMV:        batteryMillivolts,
		CurrentCA:        -1,
		BatteryRemaining: batteryPercent,
	})
}

func (c *Coordinator) sendHeartbeat(s *drone.Session, now time.Time) {
	hb := &wire.Heartbeat{
		Type:         vehicleQuadrotor,
		Autopilot:    autopilotGeneric,
		BaseMode:     modeFlagCustom,
		SystemStatus: statusStandby,
	}
	if c.performing(s, now) {
		hb.BaseMode |= modeFlagArmed
		hb.SystemStatus = statusActive
	}
	c.send(s.UID(), hb)
}

// performing reports whether now falls inside the loaded show.
func (c *Coordinator) performing(s *drone.Session, now time.Time) bool {
	prog := s.Program()
	if prog == nil {
		return false
	}
	elapsed := s.Elapsed(now)
	return elapsed >= 0 && elapsed < prog.Duration()
}

func (c *Coordinator) originOf(s *drone.Session) drone.Origin {
	if o, ok := s.Origin(); ok {
		return o
	}
	return c.cfg.Origin
}

// offsetLatLon moves origin by east/north metres on a flat-earth
// approximation and returns degE7 coordinates.
func offsetLatLon(origin drone.Origin, east, north float64) (int32, int32) {
	lat := origin.Lat + north/earthRadius*180/math.Pi
	lon := origin.Lon + east/(earthRadius*math.Cos(origin.Lat*math.Pi/180))*180/math.Pi
	return int32(math.Round(lat * 1e7)), int32(math.Round(lon * 1e7))
}

func headingCentidegrees(yaw float64) uint16 {
	h := math.Mod(yaw, 360)
	if h < 0 {
		h += 360
	}
	return uint16(math.Round(h*100)) % 36000
}

// runReceiver drains the transport once per PollInterval until Poll reports
// no data. Every MaxPerTick frames the receiver heartbeat is refreshed and
// cancellation is checked. Per-datagram errors are logged and skipped; a
// closed transport ends the loop.
func (c *Coordinator) runReceiver(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if err := c.drain(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (c *Coordinator) drain(ctx context.Context) error {
	for n := 0; ; n++ {
		if n%c.cfg.MaxPerTick == 0 {
			if ctx.Err() != nil {
				return nil
			}
			c.receiverTick.Store(time.Now().UnixNano())
		}
		frame, ok, err := c.transport.Poll()
		if errors.Is(err, transport.ErrClosed) {
			return fmt.Errorf("receiver: %w", err)
		}
		if err != nil {
			metrics.IncFrameIgnored("malformed_frame")
			c.pollFailure.Do(func() {
				c.logger.Warn().
					Err(err).
					Str("event", "fleet.poll_failed").
					Msg("inbound datagram dropped")
			})
			continue
		}
		if !ok {
			return nil
		}
		c.logger.Trace().
			Str("event", "fleet.frame_received").
			Int(xglog.FieldDroneID, int(frame.Target)).
			Stringer(xglog.FieldKind, frame.Kind).
			Uint8(xglog.FieldSeq, frame.Seq).
			Msg("frame received")
		c.Dispatch(frame, c.now())
	}
}
