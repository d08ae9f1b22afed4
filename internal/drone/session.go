// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package drone holds the per-drone state of the simulated fleet: parameters,
// the show upload buffer, the decoded show and its playback cursors.
package drone

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/dronesim/internal/playback"
	"github.com/ManuGH/dronesim/internal/showfile"
)

const (
	// ParamShowStartTime holds the show start as GPS time-of-week seconds.
	ParamShowStartTime = "SHOW_START_TIME"

	// IdentifyDuration is how long an LED control request overrides the show.
	IdentifyDuration = 2 * time.Second

	// BlinkInterval is the half period of the identify blink.
	BlinkInterval = 250 * time.Millisecond

	MinUID = 1
	MaxUID = 254
)

// farFuture keeps a session idle until a show start time is set.
var farFuture = time.Unix(0, 1<<62)

// Origin is the geographic reference of the show's local frame.
type Origin struct {
	Lat float64 // degrees
	Lon float64 // degrees
	Alt float64 // metres AMSL
}

// Archiver persists successfully decoded show files.
type Archiver interface {
	Save(uid uint8, data []byte) error
}

// Options configures a Session.
type Options struct {
	Logger   zerolog.Logger
	Now      func() time.Time
	Archiver Archiver
	// Home is the position reported while no show is loaded.
	Home showfile.Vec3
}

type identifyWindow struct {
	start, end time.Time
}

// playhead binds a program and a show start to the cursors walking them.
// It is replaced as a whole whenever either input changes, so a reader that
// still holds the previous playhead can never move the new cursors.
type playhead struct {
	program    *showfile.Program
	start      int64 // unix nanoseconds
	trajectory playback.Cursor
	light      playback.Cursor
}

// Session is the state of one simulated drone. Mutations are expected from a
// single goroutine; queries may run concurrently and tolerate stale values.
type Session struct {
	uid      uint8
	logger   zerolog.Logger
	now      func() time.Time
	archiver Archiver

	mu       sync.RWMutex
	params   map[string]float32
	transfer transferBuffer
	origin   *Origin
	home     showfile.Vec3

	head     atomic.Pointer[playhead]
	identify atomic.Pointer[identifyWindow]
}

// NewSession creates the session for uid.
func NewSession(uid int, opts Options) (*Session, error) {
	if uid < MinUID || uid > MaxUID {
		return nil, fmt.Errorf("%w: %d", ErrInvalidUID, uid)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Session{
		uid:      uint8(uid),
		logger:   opts.Logger.With().Int("drone_id", uid).Logger(),
		now:      opts.Now,
		archiver: opts.Archiver,
		params:   make(map[string]float32),
		home:     opts.Home,
	}
	s.head.Store(&playhead{start: farFuture.UnixNano()})
	return s, nil
}

// UID returns the drone identity.
func (s *Session) UID() uint8 { return s.uid }

// Parameter returns a stored parameter. Unknown names read as zero.
func (s *Session) Parameter(name string) (float32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.params[name]
	return v, ok
}

// ParameterCount returns how many parameters have been written.
func (s *Session) ParameterCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.params)
}

// SetParameter stores a parameter. Writing ParamShowStartTime also moves the
// show start reference.
func (s *Session) SetParameter(name string, value float32) {
	s.mu.Lock()
	s.params[name] = value
	s.mu.Unlock()

	if name == ParamShowStartTime {
		s.SetShowStart(FromGPSTimeOfWeek(float64(value), s.now()))
	}
}

// SetShowStart moves the show start reference. Fresh playback cursors are
// published whenever the reference actually changes.
func (s *Session) SetShowStart(t time.Time) {
	ns := t.UnixNano()
	for {
		old := s.head.Load()
		if old.start == ns {
			return
		}
		if s.head.CompareAndSwap(old, &playhead{program: old.program, start: ns}) {
			break
		}
	}
	s.logger.Info().
		Str("event", "show.start_time_set").
		Time("show_start", t).
		Msg("show start time updated")
}

// HasShowStart reports whether a show start time has been set.
func (s *Session) HasShowStart() bool {
	return s.head.Load().start != farFuture.UnixNano()
}

// ShowStart returns the current show start reference.
func (s *Session) ShowStart() time.Time {
	return time.Unix(0, s.head.Load().start)
}

// Program returns the installed show, or nil.
func (s *Session) Program() *showfile.Program {
	return s.head.Load().program
}

// TransferSize returns the number of bytes in the upload buffer.
func (s *Session) TransferSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transfer.bytes())
}

// ReloadShow decodes the upload buffer. On success the decoded show replaces
// the installed one and the buffer is cleared; on failure nothing changes.
func (s *Session) ReloadShow() error {
	s.mu.RLock()
	data := bytes.Clone(s.transfer.bytes())
	chunks := s.transfer.writes
	s.mu.RUnlock()

	if err := s.install(data, chunks); err != nil {
		s.logger.Warn().
			Err(err).
			Str("event", "show.reload_failed").
			Int("size", len(data)).
			Int("chunks", chunks).
			Msg("show decode failed; keeping previous program")
		return err
	}

	s.mu.Lock()
	s.transfer.reset()
	s.mu.Unlock()

	if s.archiver != nil {
		if err := s.archiver.Save(s.uid, data); err != nil {
			s.logger.Warn().Err(err).Str("event", "show.archive_failed").Msg("failed to archive show")
		}
	}
	return nil
}

// RestoreShow installs a previously archived show file without touching the
// upload buffer.
func (s *Session) RestoreShow(data []byte) error {
	return s.install(data, 0)
}

// install decodes and publishes a show. chunks is the number of transfer
// writes that assembled data, zero when it did not come from an upload.
func (s *Session) install(data []byte, chunks int) error {
	prog, err := showfile.Decode(data)
	if err != nil {
		return fmt.Errorf("drone %d: %w", s.uid, err)
	}
	for {
		old := s.head.Load()
		if s.head.CompareAndSwap(old, &playhead{program: prog, start: old.start}) {
			break
		}
	}
	ev := s.logger.Info().
		Str("event", "show.loaded").
		Int("size", len(data))
	if chunks > 0 {
		ev = ev.Int("chunks", chunks)
	}
	ev.
		Int("segments", len(prog.Trajectory)).
		Int("light_events", len(prog.Light)).
		Int("pyro_events", len(prog.Pyro)).
		Msg("show program installed")
	return nil
}

// SetOrigin stores the geographic reference of the local frame.
func (s *Session) SetOrigin(o Origin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.origin = &o
}

// Origin returns the geographic reference, if one has been set.
func (s *Session) Origin() (Origin, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.origin == nil {
		return Origin{}, false
	}
	return *s.origin, true
}

// Identify opens or refreshes the identify window starting at now.
func (s *Session) Identify(now time.Time) {
	s.identify.Store(&identifyWindow{start: now, end: now.Add(IdentifyDuration)})
}

// Elapsed returns show time at now.
func (s *Session) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.ShowStart())
}

// PositionAt returns the published pose at now. Without a show the home
// position is reported. now is expected to advance between calls; use
// StateAtDetached for arbitrary instants.
func (s *Session) PositionAt(now time.Time) playback.Pose {
	h := s.head.Load()
	return s.positionAt(h, &h.trajectory, now)
}

func (s *Session) positionAt(h *playhead, cur *playback.Cursor, now time.Time) playback.Pose {
	pose, ok, err := playback.PositionAt(h.program, cur, h.elapsed(now))
	if err != nil {
		s.logger.Error().Err(err).Str("event", "trajectory.eval_failed").Msg("trajectory evaluation failed")
	}
	if !ok || err != nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return playback.Pose{Position: s.home}
	}
	return pose
}

// ColorAt returns the light color at now. An open identify window blinks
// white regardless of the show.
func (s *Session) ColorAt(now time.Time) showfile.Color {
	h := s.head.Load()
	return s.colorAt(h, &h.light, now)
}

func (s *Session) colorAt(h *playhead, cur *playback.Cursor, now time.Time) showfile.Color {
	if w := s.identify.Load(); w != nil && !now.Before(w.start) && now.Before(w.end) {
		if (now.Sub(w.start)/BlinkInterval)%2 == 0 {
			return showfile.White
		}
		return showfile.Black
	}
	if h.program == nil {
		return showfile.Black
	}
	return playback.ColorAt(h.program, cur, h.elapsed(now))
}

// PyroAt returns the pyro event firing at now.
func (s *Session) PyroAt(now time.Time) showfile.PyroEvent {
	h := s.head.Load()
	return playback.PyroAt(h.program, h.elapsed(now))
}

func (h *playhead) elapsed(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, h.start))
}

// State is a point-in-time view of a session.
type State struct {
	UID     uint8
	HasShow bool
	Elapsed time.Duration
	Pose    playback.Pose
	Color   showfile.Color
	Pyro    showfile.PyroEvent
}

// StateAt evaluates every program of the session at now using the live
// cursors.
func (s *Session) StateAt(now time.Time) State {
	h := s.head.Load()
	return s.stateAt(h, &h.trajectory, &h.light, now)
}

// StateAtDetached evaluates the session at an arbitrary instant with
// throwaway cursors, leaving the live cursors where they are.
func (s *Session) StateAtDetached(at time.Time) State {
	h := s.head.Load()
	elapsed := h.elapsed(at)
	return s.stateAt(h, playback.SeekTrajectory(h.program, elapsed), playback.SeekLight(h.program, elapsed), at)
}

func (s *Session) stateAt(h *playhead, traj, light *playback.Cursor, now time.Time) State {
	return State{
		UID:     s.uid,
		HasShow: h.program != nil,
		Elapsed: h.elapsed(now),
		Pose:    s.positionAt(h, traj, now),
		Color:   s.colorAt(h, light, now),
		Pyro:    playback.PyroAt(h.program, h.elapsed(now)),
	}
}

// cursorIndexes reports the live cursor positions.
func (s *Session) cursorIndexes() (trajectory, light int) {
	h := s.head.Load()
	return h.trajectory.Index(), h.light.Index()
}
