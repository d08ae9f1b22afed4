// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"github.com/ManuGH/dronesim/internal/validate"
)

// MaxDrones is the largest fleet addressable by a one-byte system id (0 and 255 are reserved).
const MaxDrones = 254

// Validate checks a resolved configuration and returns every problem at once.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.Range("fleet.droneCount", cfg.Fleet.DroneCount, 1, MaxDrones)
	v.OneOf("fleet.projectionMode", cfg.Fleet.ProjectionMode, []string{ProjectionColor, ProjectionPyro})

	v.HostPort("transport.listenAddr", cfg.Transport.ListenAddr)
	if cfg.Transport.PeerAddr != "" {
		v.HostPort("transport.peerAddr", cfg.Transport.PeerAddr)
	}
	v.PositiveDuration("transport.pollInterval", cfg.Transport.PollInterval)
	v.PositiveDuration("transport.pollTimeout", cfg.Transport.PollTimeout)
	v.Positive("transport.maxFramesPerTick", cfg.Transport.MaxPerTick)

	v.PositiveDuration("cadence.telemetryInterval", cfg.Cadence.TelemetryInterval)
	v.PositiveDuration("cadence.heartbeatInterval", cfg.Cadence.HeartbeatInterval)
	v.Positive("cadence.batchSize", cfg.Cadence.BatchSize)
	v.NonNegativeDuration("cadence.batchPause", cfg.Cadence.BatchPause)

	if cfg.API.ListenAddr != "" {
		v.HostPort("api.listenAddr", cfg.API.ListenAddr)
		v.Positive("api.rateLimit", cfg.API.RateLimit)
	}

	v.OneOf("logLevel", cfg.LogLevel, []string{"trace", "debug", "info", "warn", "error"})
	if cfg.Archive.Enabled {
		v.Directory("dataDir", cfg.DataDir, false)
	}

	return v.Err()
}
