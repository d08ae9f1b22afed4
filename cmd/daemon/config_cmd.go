// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/dronesim/internal/config"
)

func runConfigCLI(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage(stderr)
		return 0
	}

	switch args[0] {
	case "validate":
		return runConfigValidate(args[1:], stdout, stderr)
	case "dump":
		return runConfigDump(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage(stderr)
		return 2
	}
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  dronesim config validate [--file|-f config.yaml]")
	fmt.Fprintln(w, "  dronesim config dump [--file|-f config.yaml] [--format=yaml|json]")
}

// resolveDefaultConfigPath returns ${DRONESIM_DATA}/config.yaml when it exists.
func resolveDefaultConfigPath() string {
	dataDir := strings.TrimSpace(os.Getenv(config.EnvDataDir))
	if dataDir == "" {
		return ""
	}
	autoPath := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(autoPath); err == nil {
		return autoPath
	}
	return ""
}

func runConfigValidate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("dronesim config validate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var file string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	configPath := strings.TrimSpace(file)
	if configPath == "" {
		configPath = resolveDefaultConfigPath()
	}

	loader := config.NewLoader(configPath, version)
	if _, err := loader.Load(); err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", displayPath(configPath), err)
		return 1
	}

	fmt.Fprintf(stdout, "%s is valid\n", displayPath(configPath))
	return 0
}

func runConfigDump(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("dronesim config dump", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var file, format string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	fs.StringVar(&format, "format", "yaml", "output format: yaml or json")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	configPath := strings.TrimSpace(file)
	if configPath == "" {
		configPath = resolveDefaultConfigPath()
	}

	cfg, err := config.NewLoader(configPath, version).Load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", displayPath(configPath), err)
		return 1
	}
	fileCfg := fileConfigFromAppConfig(cfg)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(fileCfg); err != nil {
			fmt.Fprintf(stderr, "Failed to encode YAML: %v\n", err)
			return 1
		}
		_ = enc.Close()
		return 0
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(fileCfg); err != nil {
			fmt.Fprintf(stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	default:
		fmt.Fprintf(stderr, "Unsupported format: %s (use yaml or json)\n", format)
		return 2
	}
}

func displayPath(p string) string {
	if p == "" {
		return "<env+defaults>"
	}
	return p
}

// fileConfigFromAppConfig renders the effective configuration in the file
// schema so that the dump can be fed back through the loader.
func fileConfigFromAppConfig(cfg config.AppConfig) config.FileConfig {
	droneCount := cfg.Fleet.DroneCount
	maxPerTick := cfg.Transport.MaxPerTick
	batchSize := cfg.Cadence.BatchSize
	apiListen := cfg.API.ListenAddr
	rateLimit := cfg.API.RateLimit
	archive := cfg.Archive.Enabled

	return config.FileConfig{
		DataDir:  cfg.DataDir,
		LogLevel: cfg.LogLevel,
		Fleet: config.FleetFileConfig{
			DroneCount:     &droneCount,
			ProjectionMode: cfg.Fleet.ProjectionMode,
		},
		Transport: config.TransportFileConfig{
			ListenAddr:   cfg.Transport.ListenAddr,
			PeerAddr:     cfg.Transport.PeerAddr,
			PollInterval: cfg.Transport.PollInterval.String(),
			PollTimeout:  cfg.Transport.PollTimeout.String(),
			MaxPerTick:   &maxPerTick,
		},
		Cadence: config.CadenceFileConfig{
			TelemetryInterval: cfg.Cadence.TelemetryInterval.String(),
			HeartbeatInterval: cfg.Cadence.HeartbeatInterval.String(),
			BatchSize:         &batchSize,
			BatchPause:        cfg.Cadence.BatchPause.String(),
		},
		API: config.APIFileConfig{
			ListenAddr: &apiListen,
			RateLimit:  &rateLimit,
		},
		Archive: config.ArchiveFileConfig{Enabled: &archive},
	}
}
