// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon owns the runtime lifecycle of the simulator: the fleet
// loops, the HTTP API and the transport they share.
package daemon

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/dronesim/internal/config"
)

// Runner is a long-lived component that blocks until ctx is cancelled.
type Runner interface {
	Run(ctx context.Context) error
}

// StatusReporter logs a one-shot status summary on demand.
type StatusReporter interface {
	ReportStatus()
}

// ConfigSource reloads the configuration and announces every accepted reload.
type ConfigSource interface {
	StartWatcher(ctx context.Context) error
	RegisterListener(ch chan<- config.AppConfig)
	Reload(ctx context.Context) error
}

// App wires the fleet, the optional API server and the transport together.
type App struct {
	logger       zerolog.Logger
	fleet        Runner
	api          Runner
	transport    io.Closer
	statusSignal os.Signal
	cfgSource    ConfigSource
	applyConfig  func(config.AppConfig)
	reloadSignal os.Signal
	notify       func(chan<- os.Signal, ...os.Signal)
	stopNotify   func(chan<- os.Signal)
}

// NewApp creates a new App orchestrator. api may be nil when the HTTP
// surface is disabled.
func NewApp(logger zerolog.Logger, fleet Runner, api Runner, transport io.Closer) *App {
	return &App{
		logger:       logger,
		fleet:        fleet,
		api:          api,
		transport:    transport,
		statusSignal: syscall.SIGUSR1,
		reloadSignal: syscall.SIGHUP,
		notify:       signal.Notify,
		stopNotify:   signal.Stop,
	}
}

// WithConfigReload makes Run watch src and hand every reloaded configuration
// to apply. The reload signal (SIGHUP) forces a reload.
func (a *App) WithConfigReload(src ConfigSource, apply func(config.AppConfig)) *App {
	a.cfgSource, a.applyConfig = src, apply
	return a
}

// Run starts every owned subsystem and blocks until ctx is cancelled or one
// of them fails. The transport is closed on return.
func (a *App) Run(ctx context.Context) error {
	if a.fleet == nil {
		return ErrMissingFleet
	}
	if a.transport == nil {
		return ErrMissingTransport
	}
	defer func() {
		if err := a.transport.Close(); err != nil {
			a.logger.Warn().Err(err).Str("event", "transport.close_failed").Msg("failed to close transport")
		}
	}()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.fleet.Run(ctx) })
	if a.api != nil {
		g.Go(func() error { return a.api.Run(ctx) })
	}

	// Status dump on demand (best-effort; stops via ctx).
	if rep, ok := a.fleet.(StatusReporter); ok && a.statusSignal != nil {
		g.Go(func() error {
			sigCh := make(chan os.Signal, 1)
			a.notify(sigCh, a.statusSignal)
			defer a.stopNotify(sigCh)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-sigCh:
					a.logger.Info().
						Str("event", "status.signal").
						Str("signal", a.statusSignal.String()).
						Msg("received status signal")
					rep.ReportStatus()
				}
			}
		})
	}

	if a.cfgSource != nil {
		a.runConfigReload(ctx, g)
	}

	a.logger.Info().Str("event", "daemon.started").Bool("api", a.api != nil).Msg("daemon running")
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	a.logger.Info().Err(err).Str("event", "daemon.stopped").Msg("daemon stopped")
	return err
}

// runConfigReload starts the watcher (best effort), the apply loop and the
// reload signal handler.
func (a *App) runConfigReload(ctx context.Context, g *errgroup.Group) {
	if err := a.cfgSource.StartWatcher(ctx); err != nil {
		a.logger.Warn().Err(err).Str("event", "config.watcher_start_failed").Msg("failed to start config watcher")
	}

	if a.applyConfig != nil {
		applyCh := make(chan config.AppConfig, 1)
		a.cfgSource.RegisterListener(applyCh)
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case cfg := <-applyCh:
					a.applyConfig(cfg)
				}
			}
		})
	}

	if a.reloadSignal == nil {
		return
	}
	g.Go(func() error {
		hupCh := make(chan os.Signal, 1)
		a.notify(hupCh, a.reloadSignal)
		defer a.stopNotify(hupCh)

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-hupCh:
				a.logger.Info().
					Str("event", "config.reload_signal").
					Str("signal", a.reloadSignal.String()).
					Msg("received reload signal")
				if err := a.cfgSource.Reload(ctx); err != nil {
					a.logger.Error().Err(err).Str("event", "config.reload_failed").Msg("signal-triggered reload failed")
				}
			}
		}
	})
}
