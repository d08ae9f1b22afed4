// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// Projection modes select the per-drone record written by the output projection.
const (
	ProjectionColor = "color"
	ProjectionPyro  = "pyro"
)

// FileConfig is the on-disk YAML representation. Durations are Go duration
// strings ("250ms"); pointers distinguish "unset" from the zero value.
type FileConfig struct {
	DataDir  string `yaml:"dataDir,omitempty"`
	LogLevel string `yaml:"logLevel,omitempty"`

	Fleet     FleetFileConfig     `yaml:"fleet,omitempty"`
	Transport TransportFileConfig `yaml:"transport,omitempty"`
	Cadence   CadenceFileConfig   `yaml:"cadence,omitempty"`
	API       APIFileConfig       `yaml:"api,omitempty"`
	Archive   ArchiveFileConfig   `yaml:"archive,omitempty"`
}

// FleetFileConfig holds fleet membership and projection settings.
type FleetFileConfig struct {
	DroneCount     *int   `yaml:"droneCount,omitempty"`
	ProjectionMode string `yaml:"projectionMode,omitempty"`
}

// TransportFileConfig holds the shared UDP endpoint settings.
type TransportFileConfig struct {
	ListenAddr   string `yaml:"listenAddr,omitempty"`
	PeerAddr     string `yaml:"peerAddr,omitempty"`
	PollInterval string `yaml:"pollInterval,omitempty"`
	PollTimeout  string `yaml:"pollTimeout,omitempty"`
	MaxPerTick   *int   `yaml:"maxFramesPerTick,omitempty"`
}

// CadenceFileConfig holds the outbound loop pacing.
type CadenceFileConfig struct {
	TelemetryInterval string `yaml:"telemetryInterval,omitempty"`
	HeartbeatInterval string `yaml:"heartbeatInterval,omitempty"`
	BatchSize         *int   `yaml:"batchSize,omitempty"`
	BatchPause        string `yaml:"batchPause,omitempty"`
}

// APIFileConfig holds the HTTP API settings.
type APIFileConfig struct {
	ListenAddr *string `yaml:"listenAddr,omitempty"`
	RateLimit  *int    `yaml:"rateLimit,omitempty"`
}

// ArchiveFileConfig toggles show persistence.
type ArchiveFileConfig struct {
	Enabled *bool `yaml:"enabled,omitempty"`
}

// AppConfig is the fully resolved runtime configuration.
type AppConfig struct {
	Version    string
	DataDir    string
	LogLevel   string
	LogService string

	Fleet     FleetConfig
	Transport TransportConfig
	Cadence   CadenceConfig
	API       APIConfig
	Archive   ArchiveConfig
}

// FleetConfig configures the simulated fleet.
type FleetConfig struct {
	DroneCount     int
	ProjectionMode string
}

// TransportConfig configures the shared datagram endpoint.
type TransportConfig struct {
	ListenAddr string
	// PeerAddr fixes the ground station address; empty learns it from the
	// first inbound datagram.
	PeerAddr     string
	PollInterval time.Duration
	PollTimeout  time.Duration
	MaxPerTick   int
}

// CadenceConfig configures the telemetry and heartbeat loops.
type CadenceConfig struct {
	TelemetryInterval time.Duration
	HeartbeatInterval time.Duration
	BatchSize         int
	BatchPause        time.Duration
}

// APIConfig configures the HTTP API. An empty ListenAddr disables it.
type APIConfig struct {
	ListenAddr string
	// RateLimit is the per-client request budget per minute.
	RateLimit int
}

// ArchiveConfig configures show persistence under DataDir.
type ArchiveConfig struct {
	Enabled bool
}
