// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/dronesim/internal/config"
	xglog "github.com/ManuGH/dronesim/internal/log"
	buildinfo "github.com/ManuGH/dronesim/internal/version"
)

var (
	version   = buildinfo.Version
	commit    = buildinfo.Commit
	buildDate = buildinfo.Date
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:], os.Stdout, os.Stderr))
		case "showgen":
			os.Exit(runShowgen(os.Args[2:], os.Stdout, os.Stderr))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Safe defaults until config is loaded.
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "dronesim",
		Version: version,
	})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	explicitConfigPath := strings.TrimSpace(*configPath)
	effectiveConfigPath := explicitConfigPath
	if effectiveConfigPath == "" {
		effectiveConfigPath = resolveDefaultConfigPath()
	}

	// Precedence: ENV > File > Defaults
	loader := config.NewLoader(effectiveConfigPath, version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", effectiveConfigPath).
			Msg("failed to load configuration")
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})
	logger = xglog.WithComponent("daemon")

	switch {
	case explicitConfigPath != "":
		logger.Info().Str("event", "config.loaded").Str("source", "file").Str("path", explicitConfigPath).Msg("loaded configuration from file")
	case effectiveConfigPath != "":
		logger.Info().Str("event", "config.loaded").Str("source", "file(auto)").Str("path", effectiveConfigPath).Msg("loaded configuration from file")
	default:
		logger.Info().Str("event", "config.loaded").Str("source", "env+defaults").Msg("loaded configuration from environment and defaults")
	}

	// Hot reload: file watcher plus SIGHUP.
	cfgHolder := config.NewConfigHolder(cfg, loader, effectiveConfigPath)
	defer cfgHolder.Stop()

	app, err := buildApp(cfg, logger, cfgHolder)
	if err != nil {
		logger.Fatal().Err(err).Str("event", "startup.failed").Msg("failed to build daemon")
	}
	if err := app.Run(ctx); err != nil {
		logger.Error().Err(err).Str("event", "daemon.failed").Msg("daemon exited with error")
		os.Exit(1)
	}
}
