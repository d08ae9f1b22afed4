// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied before the file and environment layers.
const (
	DefaultDroneCount        = 1
	DefaultListenAddr        = ":14555"
	DefaultPollInterval      = 10 * time.Millisecond
	DefaultPollTimeout       = time.Millisecond
	DefaultMaxFramesPerTick  = 256
	DefaultTelemetryInterval = 200 * time.Millisecond
	DefaultHeartbeatInterval = time.Second
	DefaultBatchSize         = 10
	DefaultBatchPause        = 5 * time.Millisecond
	DefaultAPIListenAddr     = "127.0.0.1:8088"
	DefaultAPIRateLimit      = 600
	DefaultDataDir           = "data"
	DefaultLogService        = "dronesim"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a new configuration loader. An empty configPath skips the file layer.
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: configPath, version: version}
}

// Load loads configuration with precedence: ENV > File > Defaults, then validates it.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		fileCfg, err := loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	mergeEnvConfig(&cfg)

	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Defaults returns the configuration used when neither file nor environment set a key.
func Defaults() AppConfig {
	return AppConfig{
		DataDir:    DefaultDataDir,
		LogLevel:   "info",
		LogService: DefaultLogService,
		Fleet: FleetConfig{
			DroneCount:     DefaultDroneCount,
			ProjectionMode: ProjectionColor,
		},
		Transport: TransportConfig{
			ListenAddr:   DefaultListenAddr,
			PollInterval: DefaultPollInterval,
			PollTimeout:  DefaultPollTimeout,
			MaxPerTick:   DefaultMaxFramesPerTick,
		},
		Cadence: CadenceConfig{
			TelemetryInterval: DefaultTelemetryInterval,
			HeartbeatInterval: DefaultHeartbeatInterval,
			BatchSize:         DefaultBatchSize,
			BatchPause:        DefaultBatchPause,
		},
		API: APIConfig{
			ListenAddr: DefaultAPIListenAddr,
			RateLimit:  DefaultAPIRateLimit,
		},
		Archive: ArchiveConfig{Enabled: true},
	}
}

// LoadFileConfig loads a YAML config file without applying defaults or env overrides.
func LoadFileConfig(path string) (*FileConfig, error) {
	return loadFile(path)
}

// loadFile loads configuration from a YAML file with STRICT parsing.
func loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return &fileCfg, nil
}

// mergeFileConfig overlays the set keys of src onto dst.
func mergeFileConfig(dst *AppConfig, src *FileConfig) error {
	if src.DataDir != "" {
		dst.DataDir = os.ExpandEnv(src.DataDir)
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}

	if src.Fleet.DroneCount != nil {
		dst.Fleet.DroneCount = *src.Fleet.DroneCount
	}
	if src.Fleet.ProjectionMode != "" {
		dst.Fleet.ProjectionMode = src.Fleet.ProjectionMode
	}

	if src.Transport.ListenAddr != "" {
		dst.Transport.ListenAddr = src.Transport.ListenAddr
	}
	if src.Transport.PeerAddr != "" {
		dst.Transport.PeerAddr = src.Transport.PeerAddr
	}
	if src.Transport.MaxPerTick != nil {
		dst.Transport.MaxPerTick = *src.Transport.MaxPerTick
	}
	if src.Cadence.BatchSize != nil {
		dst.Cadence.BatchSize = *src.Cadence.BatchSize
	}

	durations := []struct {
		field string
		raw   string
		dst   *time.Duration
	}{
		{"transport.pollInterval", src.Transport.PollInterval, &dst.Transport.PollInterval},
		{"transport.pollTimeout", src.Transport.PollTimeout, &dst.Transport.PollTimeout},
		{"cadence.telemetryInterval", src.Cadence.TelemetryInterval, &dst.Cadence.TelemetryInterval},
		{"cadence.heartbeatInterval", src.Cadence.HeartbeatInterval, &dst.Cadence.HeartbeatInterval},
		{"cadence.batchPause", src.Cadence.BatchPause, &dst.Cadence.BatchPause},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.field, err)
		}
		*d.dst = v
	}

	if src.API.ListenAddr != nil {
		dst.API.ListenAddr = *src.API.ListenAddr
	}
	if src.API.RateLimit != nil {
		dst.API.RateLimit = *src.API.RateLimit
	}
	if src.Archive.Enabled != nil {
		dst.Archive.Enabled = *src.Archive.Enabled
	}
	return nil
}

// mergeEnvConfig applies environment overrides (highest priority).
func mergeEnvConfig(cfg *AppConfig) {
	cfg.DataDir = ParseString(EnvDataDir, cfg.DataDir)
	cfg.LogLevel = ParseString(EnvLogLevel, cfg.LogLevel)
	cfg.LogService = ParseString(EnvLogService, cfg.LogService)

	cfg.Fleet.DroneCount = ParseInt(EnvDroneCount, cfg.Fleet.DroneCount)
	cfg.Fleet.ProjectionMode = ParseString(EnvProjectionMode, cfg.Fleet.ProjectionMode)

	cfg.Transport.ListenAddr = ParseString(EnvListenAddr, cfg.Transport.ListenAddr)
	cfg.Transport.PeerAddr = ParseString(EnvPeerAddr, cfg.Transport.PeerAddr)
	cfg.Transport.PollInterval = ParseDuration(EnvPollInterval, cfg.Transport.PollInterval)
	cfg.Transport.PollTimeout = ParseDuration(EnvPollTimeout, cfg.Transport.PollTimeout)
	cfg.Transport.MaxPerTick = ParseInt(EnvMaxFramesPerTick, cfg.Transport.MaxPerTick)

	cfg.Cadence.TelemetryInterval = ParseDuration(EnvTelemetryInterval, cfg.Cadence.TelemetryInterval)
	cfg.Cadence.HeartbeatInterval = ParseDuration(EnvHeartbeatInterval, cfg.Cadence.HeartbeatInterval)
	cfg.Cadence.BatchSize = ParseInt(EnvBatchSize, cfg.Cadence.BatchSize)
	cfg.Cadence.BatchPause = ParseDuration(EnvBatchPause, cfg.Cadence.BatchPause)

	// An explicitly empty DRONESIM_API_LISTEN_ADDR disables the API.
	if v, ok := os.LookupEnv(EnvAPIListenAddr); ok {
		cfg.API.ListenAddr = strings.TrimSpace(v)
	}
	cfg.API.RateLimit = ParseInt(EnvAPIRateLimit, cfg.API.RateLimit)
	cfg.Archive.Enabled = ParseBool(EnvArchiveEnabled, cfg.Archive.Enabled)
}
