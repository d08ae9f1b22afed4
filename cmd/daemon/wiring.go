// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/dronesim/internal/api"
	"github.com/ManuGH/dronesim/internal/archive"
	"github.com/ManuGH/dronesim/internal/config"
	"github.com/ManuGH/dronesim/internal/daemon"
	"github.com/ManuGH/dronesim/internal/fleet"
	"github.com/ManuGH/dronesim/internal/health"
	xglog "github.com/ManuGH/dronesim/internal/log"
	"github.com/ManuGH/dronesim/internal/transport"
)

// receiverStaleAfter is how long the receiver loop may go without a tick
// before readiness fails.
const receiverStaleAfter = 2 * time.Second

// buildApp opens the transport and wires fleet, archive, health and API.
// reload may be nil to run without configuration reloads.
func buildApp(cfg config.AppConfig, logger zerolog.Logger, reload daemon.ConfigSource) (*daemon.App, error) {
	tr, err := transport.ListenUDP(transport.UDPConfig{
		ListenAddr:  cfg.Transport.ListenAddr,
		PeerAddr:    cfg.Transport.PeerAddr,
		PollTimeout: cfg.Transport.PollTimeout,
		Logger:      xglog.WithComponent("transport"),
	})
	if err != nil {
		return nil, fmt.Errorf("open transport: %w", err)
	}
	logger.Info().
		Str("event", "transport.listening").
		Str(xglog.FieldListenAddr, tr.LocalAddr().String()).
		Str(xglog.FieldPeer, cfg.Transport.PeerAddr).
		Msg("datagram transport ready")

	app, err := assemble(cfg, tr, logger, reload)
	if err != nil {
		_ = tr.Close()
		return nil, err
	}
	return app, nil
}

func assemble(cfg config.AppConfig, tr transport.Transport, logger zerolog.Logger, reload daemon.ConfigSource) (*daemon.App, error) {
	mode, err := fleet.ParseProjectionMode(cfg.Fleet.ProjectionMode)
	if err != nil {
		return nil, err
	}

	var store fleet.Archive
	showDir := filepath.Join(cfg.DataDir, "shows")
	if cfg.Archive.Enabled {
		s, err := archive.NewStore(showDir, xglog.WithComponent("archive"))
		if err != nil {
			return nil, fmt.Errorf("open show archive: %w", err)
		}
		store = s
	}

	coord, err := fleet.New(fleet.Config{
		DroneCount:        cfg.Fleet.DroneCount,
		Projection:        mode,
		TelemetryInterval: cfg.Cadence.TelemetryInterval,
		HeartbeatInterval: cfg.Cadence.HeartbeatInterval,
		BatchSize:         cfg.Cadence.BatchSize,
		BatchPause:        cfg.Cadence.BatchPause,
		PollInterval:      cfg.Transport.PollInterval,
		MaxPerTick:        cfg.Transport.MaxPerTick,
	}, tr, store)
	if err != nil {
		return nil, fmt.Errorf("create fleet: %w", err)
	}

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.LoopChecker{
		LoopName: "receiver",
		LastTick: coord.ReceiverHeartbeat,
		MaxAge:   max(receiverStaleAfter, 10*cfg.Transport.PollInterval),
	})
	hm.RegisterChecker(health.CheckerFunc{
		CheckName: "fleet",
		Fn: func(context.Context) health.CheckResult {
			return health.CheckResult{
				Status:  health.StatusHealthy,
				Message: fmt.Sprintf("%d drones, run %s", coord.Size(), coord.RunID()),
			}
		},
	})
	if cfg.Archive.Enabled {
		hm.RegisterChecker(health.WritableDirChecker{Path: showDir})
	}

	var server *api.Server
	var srv daemon.Runner
	if cfg.API.ListenAddr != "" {
		server = api.New(api.Config{ListenAddr: cfg.API.ListenAddr, RateLimit: cfg.API.RateLimit}, coord, hm)
		srv = server
	}

	logger.Info().
		Str("event", "daemon.wired").
		Str(xglog.FieldRunID, coord.RunID()).
		Int("drones", coord.Size()).
		Str("projection", mode.String()).
		Bool("archive", cfg.Archive.Enabled).
		Str("api", cfg.API.ListenAddr).
		Msg("daemon components wired")

	app := daemon.NewApp(logger, coord, srv, tr)
	if reload != nil {
		app.WithConfigReload(reload, liveApplier(coord, server, logger))
	}
	return app, nil
}

// liveApplier applies the settings that may change while the daemon runs:
// log level, cadence batch pause and the API rate limit. srv may be nil.
func liveApplier(coord *fleet.Coordinator, srv *api.Server, logger zerolog.Logger) func(config.AppConfig) {
	return func(cfg config.AppConfig) {
		if err := xglog.SetLevel(cfg.LogLevel); err != nil {
			logger.Warn().Err(err).Str("event", "config.log_level_invalid").Msg("keeping current log level")
		}
		coord.SetBatchPause(cfg.Cadence.BatchPause)
		if srv != nil {
			srv.SetRateLimit(cfg.API.RateLimit)
		}
		logger.Info().Str("event", "config.applied").Str("log_level", cfg.LogLevel).Msg("live configuration applied")
	}
}
