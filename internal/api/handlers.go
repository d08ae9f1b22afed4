// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/dronesim/internal/drone"
)

// Projection response headers.
const (
	HeaderRecordSize     = "X-Record-Size"
	HeaderProjectionMode = "X-Projection-Mode"
	HeaderEvaluatedAt    = "X-Evaluated-At"
)

// DroneView is the JSON form of one drone evaluated at a point in time.
type DroneView struct {
	UID            uint8      `json:"uid"`
	HasShow        bool       `json:"hasShow"`
	ShowStart      *time.Time `json:"showStart,omitempty"`
	ElapsedSeconds *float64   `json:"elapsedSeconds,omitempty"`
	Position       [3]float64 `json:"position"`
	Yaw            float64    `json:"yaw"`
	Color          string     `json:"color"`
	Pyro           *PyroView  `json:"pyro,omitempty"`
	Parameters     int        `json:"parameters"`
	TransferBytes  int        `json:"transferBytes"`
}

// PyroView describes the pyro charge firing at the evaluated time.
type PyroView struct {
	Channel uint32 `json:"channel"`
	Pitch   int32  `json:"pitch"`
	Yaw     int32  `json:"yaw"`
	Roll    int32  `json:"roll"`
}

// FleetView is the body of GET /api/v1/drones.
type FleetView struct {
	RunID  string      `json:"runId"`
	At     time.Time   `json:"at"`
	Drones []DroneView `json:"drones"`
}

// viewOf never walks the live cursors: API requests arrive in no particular
// time order relative to the telemetry loop.
func viewOf(s *drone.Session, now time.Time) DroneView {
	st := s.StateAtDetached(now)
	v := DroneView{
		UID:           st.UID,
		HasShow:       st.HasShow,
		Position:      [3]float64{st.Pose.Position.X, st.Pose.Position.Y, st.Pose.Position.Z},
		Yaw:           st.Pose.Yaw,
		Color:         fmt.Sprintf("#%02x%02x%02x", st.Color.R, st.Color.G, st.Color.B),
		Parameters:    s.ParameterCount(),
		TransferBytes: s.TransferSize(),
	}
	if s.HasShowStart() {
		start := s.ShowStart()
		elapsed := st.Elapsed.Seconds()
		v.ShowStart, v.ElapsedSeconds = &start, &elapsed
	}
	if st.Pyro.Duration > 0 {
		v.Pyro = &PyroView{Channel: st.Pyro.Index, Pitch: st.Pyro.Pitch, Yaw: st.Pyro.Yaw, Roll: st.Pyro.Roll}
	}
	return v
}

// evaluationTime reads the optional ?at=<RFC3339> query parameter.
func (s *Server) evaluationTime(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("at")
	if raw == "" {
		return s.fleet.Now(), nil
	}
	return time.Parse(time.RFC3339Nano, raw)
}

func (s *Server) handleListDrones(w http.ResponseWriter, r *http.Request) {
	now, err := s.evaluationTime(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_time", err.Error())
		return
	}
	sessions := s.fleet.Sessions()
	resp := FleetView{RunID: s.fleet.RunID(), At: now, Drones: make([]DroneView, 0, len(sessions))}
	for _, sess := range sessions {
		resp.Drones = append(resp.Drones, viewOf(sess, now))
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleGetDrone(w http.ResponseWriter, r *http.Request) {
	uid, err := strconv.ParseUint(chi.URLParam(r, "uid"), 10, 8)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_uid", "uid must be an integer between 1 and 254")
		return
	}
	sess, ok := s.fleet.Session(uint8(uid))
	if !ok {
		writeError(w, r, http.StatusNotFound, "unknown_drone", fmt.Sprintf("no drone with uid %d", uid))
		return
	}
	now, err := s.evaluationTime(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_time", err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, viewOf(sess, now))
}

// handleProjection returns the raw projection buffer, the same bytes the
// downstream renderer consumes.
func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	now, err := s.evaluationTime(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_time", err.Error())
		return
	}
	mode := s.fleet.ProjectionMode()
	buf := s.fleet.ProjectAt(now, nil)

	h := w.Header()
	h.Set("Content-Type", "application/octet-stream")
	h.Set("Content-Length", strconv.Itoa(len(buf)))
	h.Set(HeaderRecordSize, strconv.Itoa(mode.RecordSize()))
	h.Set(HeaderProjectionMode, mode.String())
	h.Set(HeaderEvaluatedAt, now.UTC().Format(time.RFC3339Nano))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf)
}
