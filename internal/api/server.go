// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api serves the read-only HTTP view of the simulated fleet.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/dronesim/internal/api/middleware"
	"github.com/ManuGH/dronesim/internal/drone"
	"github.com/ManuGH/dronesim/internal/fleet"
	"github.com/ManuGH/dronesim/internal/health"
	xglog "github.com/ManuGH/dronesim/internal/log"
)

const shutdownTimeout = 5 * time.Second

// Fleet is the part of the coordinator the API reads.
type Fleet interface {
	RunID() string
	Now() time.Time
	Sessions() []*drone.Session
	Session(uid uint8) (*drone.Session, bool)
	ProjectionMode() fleet.ProjectionMode
	ProjectAt(at time.Time, buf []byte) []byte
}

// Config configures the API server.
type Config struct {
	ListenAddr string
	// RateLimit is the per-client request budget per minute.
	RateLimit int
}

// Server exposes fleet state, health and metrics over HTTP.
type Server struct {
	cfg    Config
	fleet  Fleet
	health *health.Manager
	logger zerolog.Logger
	router chi.Router
	limit  *middleware.DynamicRateLimit
}

// New wires the routes. health may be nil.
func New(cfg Config, f Fleet, hm *health.Manager) *Server {
	if hm == nil {
		hm = health.NewManager("")
	}
	s := &Server{
		cfg:    cfg,
		fleet:  f,
		health: hm,
		logger: xglog.WithComponent("api"),
		limit: middleware.NewDynamicRateLimit(middleware.RateLimitConfig{
			RequestLimit: cfg.RateLimit,
			WindowSize:   time.Minute,
		}),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableMetrics: true,
		EnableLogging: true,
	})

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.limit.Handler)
		r.Get("/drones", s.handleListDrones)
		r.Get("/drones/{uid}", s.handleGetDrone)
		r.Get("/projection", s.handleProjection)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not_found", "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" is not supported here")
	})
	return r
}

// SetRateLimit replaces the per-client budget of the /api/v1 routes; 0
// disables limiting.
func (s *Server) SetRateLimit(perMinute int) {
	if s.limit.SetLimit(perMinute) {
		s.logger.Info().
			Str("event", "api.rate_limit_changed").
			Int("limit", perMinute).
			Msg("api rate limit changed")
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("api listen %s: %w", s.cfg.ListenAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener. The listener is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	s.logger.Info().
		Str("event", "api.started").
		Str(xglog.FieldListenAddr, ln.Addr().String()).
		Msg("HTTP API listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	<-errCh
	s.logger.Info().Str("event", "api.stopped").Msg("HTTP API stopped")
	return nil
}
