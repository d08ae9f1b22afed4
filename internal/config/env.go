// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/dronesim/internal/log"
)

// Environment keys understood by the loader.
const (
	EnvDataDir           = "DRONESIM_DATA"
	EnvLogLevel          = "LOG_LEVEL"
	EnvLogService        = "LOG_SERVICE"
	EnvDroneCount        = "DRONESIM_DRONE_COUNT"
	EnvProjectionMode    = "DRONESIM_PROJECTION_MODE"
	EnvListenAddr        = "DRONESIM_LISTEN_ADDR"
	EnvPeerAddr          = "DRONESIM_PEER_ADDR"
	EnvPollInterval      = "DRONESIM_POLL_INTERVAL"
	EnvPollTimeout       = "DRONESIM_POLL_TIMEOUT"
	EnvMaxFramesPerTick  = "DRONESIM_MAX_FRAMES_PER_TICK"
	EnvTelemetryInterval = "DRONESIM_TELEMETRY_INTERVAL"
	EnvHeartbeatInterval = "DRONESIM_HEARTBEAT_INTERVAL"
	EnvBatchSize         = "DRONESIM_BATCH_SIZE"
	EnvBatchPause        = "DRONESIM_BATCH_PAUSE"
	EnvAPIListenAddr     = "DRONESIM_API_LISTEN_ADDR"
	EnvAPIRateLimit      = "DRONESIM_API_RATE_LIMIT"
	EnvArchiveEnabled    = "DRONESIM_ARCHIVE_ENABLED"
)

// parseEnv reads key from the environment and converts it with parse.
// Unset, empty and unparsable values fall back to def; the chosen source is
// logged at debug level, parse failures at warn level.
func parseEnv[T any](key string, def T, parse func(string) (T, error)) T {
	logger := log.WithComponent("config")
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		logger.Debug().
			Str("key", key).
			Str("default", fmt.Sprint(def)).
			Str("source", "default").
			Msg("using default value")
		return def
	}
	v, err := parse(strings.TrimSpace(raw))
	if err != nil {
		logger.Warn().
			Err(err).
			Str("key", key).
			Str("value", raw).
			Str("default", fmt.Sprint(def)).
			Msg("invalid environment variable, using default")
		return def
	}
	logger.Debug().
		Str("key", key).
		Str("value", raw).
		Str("source", "environment").
		Msg("using environment variable")
	return v
}

// ParseString reads a string from environment variable or returns default value.
func ParseString(key, defaultValue string) string {
	return parseEnv(key, defaultValue, func(s string) (string, error) { return s, nil })
}

// ParseInt reads an integer from environment variable or returns default value.
func ParseInt(key string, defaultValue int) int {
	return parseEnv(key, defaultValue, strconv.Atoi)
}

// ParseDuration reads a Go duration string from environment variable or returns default value.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return parseEnv(key, defaultValue, time.ParseDuration)
}

// ParseBool reads a boolean from environment variable or returns default value.
// Accepts the strconv.ParseBool spellings plus "yes"/"no" and "on"/"off".
func ParseBool(key string, defaultValue bool) bool {
	return parseEnv(key, defaultValue, func(s string) (bool, error) {
		switch strings.ToLower(s) {
		case "yes", "on":
			return true, nil
		case "no", "off":
			return false, nil
		}
		return strconv.ParseBool(s)
	})
}
