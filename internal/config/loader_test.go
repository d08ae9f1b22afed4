// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvDataDir, t.TempDir())

	cfg, err := NewLoader("", "v1.2.3").Load()
	require.NoError(t, err)

	assert.Equal(t, "v1.2.3", cfg.Version)
	assert.Equal(t, DefaultDroneCount, cfg.Fleet.DroneCount)
	assert.Equal(t, ProjectionColor, cfg.Fleet.ProjectionMode)
	assert.Equal(t, DefaultListenAddr, cfg.Transport.ListenAddr)
	assert.Equal(t, DefaultBatchSize, cfg.Cadence.BatchSize)
	assert.Equal(t, DefaultTelemetryInterval, cfg.Cadence.TelemetryInterval)
	assert.True(t, cfg.Archive.Enabled)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dataDir := t.TempDir()
	path := writeConfig(t, `
dataDir: `+dataDir+`
logLevel: debug
fleet:
  droneCount: 42
  projectionMode: pyro
transport:
  listenAddr: 127.0.0.1:0
  peerAddr: 127.0.0.1:14550
  pollInterval: 20ms
cadence:
  batchSize: 5
  batchPause: 2ms
api:
  listenAddr: ""
archive:
  enabled: false
`)

	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 42, cfg.Fleet.DroneCount)
	assert.Equal(t, ProjectionPyro, cfg.Fleet.ProjectionMode)
	assert.Equal(t, "127.0.0.1:14550", cfg.Transport.PeerAddr)
	assert.Equal(t, 20*time.Millisecond, cfg.Transport.PollInterval)
	assert.Equal(t, DefaultPollTimeout, cfg.Transport.PollTimeout)
	assert.Equal(t, 5, cfg.Cadence.BatchSize)
	assert.Equal(t, 2*time.Millisecond, cfg.Cadence.BatchPause)
	assert.Empty(t, cfg.API.ListenAddr)
	assert.False(t, cfg.Archive.Enabled)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "fleet:\n  droneCount: 42\n")
	t.Setenv(EnvDataDir, t.TempDir())
	t.Setenv(EnvDroneCount, "7")
	t.Setenv(EnvBatchPause, "1ms")
	t.Setenv(EnvArchiveEnabled, "off")

	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Fleet.DroneCount)
	assert.Equal(t, time.Millisecond, cfg.Cadence.BatchPause)
	assert.False(t, cfg.Archive.Enabled)
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv(EnvDataDir, t.TempDir())
	t.Setenv(EnvDroneCount, "many")

	cfg, err := NewLoader("", "").Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultDroneCount, cfg.Fleet.DroneCount)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "fleet:\n  droneCount: 3\n  wingspan: 2\n")

	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownConfigField)
}

func TestLoad_RejectsMultipleDocuments(t *testing.T) {
	path := writeConfig(t, "logLevel: info\n---\nlogLevel: debug\n")

	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple documents")
}

func TestLoad_RejectsNonYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only YAML supported")
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, "cadence:\n  batchPause: soon\n")

	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cadence.batchPause")
}

func TestLoad_EmptyFile(t *testing.T) {
	t.Setenv(EnvDataDir, t.TempDir())
	path := writeConfig(t, "")

	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultDroneCount, cfg.Fleet.DroneCount)
}

func TestValidate(t *testing.T) {
	base := Defaults()
	base.DataDir = t.TempDir()
	require.NoError(t, Validate(base))

	tests := []struct {
		name   string
		mutate func(*AppConfig)
		field  string
	}{
		{"zero drones", func(c *AppConfig) { c.Fleet.DroneCount = 0 }, "fleet.droneCount"},
		{"too many drones", func(c *AppConfig) { c.Fleet.DroneCount = 255 }, "fleet.droneCount"},
		{"unknown projection", func(c *AppConfig) { c.Fleet.ProjectionMode = "laser" }, "fleet.projectionMode"},
		{"bad listen", func(c *AppConfig) { c.Transport.ListenAddr = "nowhere" }, "transport.listenAddr"},
		{"bad peer", func(c *AppConfig) { c.Transport.PeerAddr = "10.0.0.1" }, "transport.peerAddr"},
		{"zero batch", func(c *AppConfig) { c.Cadence.BatchSize = 0 }, "cadence.batchSize"},
		{"negative pause", func(c *AppConfig) { c.Cadence.BatchPause = -time.Millisecond }, "cadence.batchPause"},
		{"zero telemetry", func(c *AppConfig) { c.Cadence.TelemetryInterval = 0 }, "cadence.telemetryInterval"},
		{"bad api", func(c *AppConfig) { c.API.ListenAddr = "api" }, "api.listenAddr"},
		{"bad level", func(c *AppConfig) { c.LogLevel = "loud" }, "logLevel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidate_APIDisabledSkipsChecks(t *testing.T) {
	cfg := Defaults()
	cfg.DataDir = t.TempDir()
	cfg.API.ListenAddr = ""
	cfg.API.RateLimit = 0
	assert.NoError(t, Validate(cfg))
}
