// SPDX-License-Identifier: MIT

// Command tvgrid serves a browsable, searchable grid of IPTV channels from
// remote M3U playlists.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/time/rate"

	"github.com/ManuGH/tvgrid/internal/api"
	"github.com/ManuGH/tvgrid/internal/browser"
	"github.com/ManuGH/tvgrid/internal/channels"
	"github.com/ManuGH/tvgrid/internal/config"
	"github.com/ManuGH/tvgrid/internal/daemon"
	"github.com/ManuGH/tvgrid/internal/favorites"
	"github.com/ManuGH/tvgrid/internal/fetch"
	"github.com/ManuGH/tvgrid/internal/health"
	xglog "github.com/ManuGH/tvgrid/internal/log"
	"github.com/ManuGH/tvgrid/internal/playback"
	"github.com/ManuGH/tvgrid/internal/telemetry"
	"github.com/ManuGH/tvgrid/internal/version"
)

const serviceName = "tvgrid"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:]))
		case "healthcheck":
			os.Exit(runHealthcheckCLI(os.Args[2:]))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Runs after every other deferred cleanup.
	exitCode := 0
	defer func() {
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()

	// Safe defaults until config is loaded.
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: serviceName,
		Version: version.Version,
	})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	effectiveConfigPath := strings.TrimSpace(*configPath)
	if effectiveConfigPath == "" {
		effectiveConfigPath = resolveDefaultConfigPath()
	}

	// Precedence: ENV > File > Defaults
	loader := config.NewLoader(effectiveConfigPath, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "config.load_failed").
			Str("config_path", effectiveConfigPath).
			Msg("failed to load configuration")
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Service: serviceName,
		Version: cfg.Version,
	})
	logger = xglog.WithComponent("daemon")

	if effectiveConfigPath != "" {
		logger.Info().
			Str(xglog.FieldEvent, "config.loaded").
			Str("source", "file").
			Str("path", effectiveConfigPath).
			Msg("loaded configuration from file")
	} else {
		logger.Info().
			Str(xglog.FieldEvent, "config.loaded").
			Str("source", "env+defaults").
			Msg("loaded configuration from environment and defaults")
	}

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "startup.check_failed").
			Msg("startup checks failed, verify configuration and permissions")
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    serviceName,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.ExporterType,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		logger.Fatal().Err(err).Str(xglog.FieldEvent, "telemetry.init_failed").Msg("failed to initialize tracing")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("tracer provider shutdown failed")
		}
	}()

	backend, err := favorites.Open(favorites.Config{
		Backend: cfg.Favorites.Backend,
		DataDir: cfg.DataDir,
		Redis: favorites.RedisConfig{
			Addr:      cfg.Favorites.Redis.Addr,
			Password:  cfg.Favorites.Redis.Password,
			DB:        cfg.Favorites.Redis.DB,
			KeyPrefix: cfg.Favorites.Redis.KeyPrefix,
		},
	}, xglog.WithComponent("favorites"))
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "favorites.open_failed").
			Str(xglog.FieldBackend, cfg.Favorites.Backend).
			Msg("failed to open favorites backend")
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn().Err(err).Str(xglog.FieldBackend, backend.Name()).Msg("favorites backend close failed")
		}
	}()

	store := channels.NewStore(backend)
	if err := store.LoadFavorites(ctx); err != nil {
		// The store retries the read before its first write.
		logger.Warn().Err(err).Str(xglog.FieldEvent, "favorites.load_failed").Msg("favorites backend unreadable; toggles stay in memory until it recovers")
	}

	fetcher := fetch.NewHTTPFetcher(fetch.Options{
		Relay:          cfg.Fetch.Relay,
		Timeout:        cfg.Fetch.Timeout,
		MaxBodyBytes:   cfg.Fetch.MaxBodyBytes,
		UserAgent:      cfg.Fetch.UserAgent,
		RateLimit:      rate.Limit(cfg.Fetch.RateLimit),
		RateLimitBurst: cfg.Fetch.RateBurst,
	})

	app := browser.New(store, fetcher, playback.NewPlayer(), cfg.Sources)

	hm := health.NewManager(cfg.Version)
	daemon.RegisterHealthChecks(hm, app, backend)

	tracingService := ""
	if cfg.Telemetry.Enabled {
		tracingService = serviceName + "/http"
	}
	srv, err := api.New(api.Config{
		ListenAddr:      cfg.Server.ListenAddr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RateLimit:       cfg.Server.RateLimit,
		RateWindow:      cfg.Server.RateWindow,
		TracingService:  tracingService,
		Version:         cfg.Version,
	}, app, hm)
	if err != nil {
		logger.Fatal().Err(err).Str(xglog.FieldEvent, "server.init_failed").Msg("failed to create http server")
	}

	logger.Info().
		Str(xglog.FieldEvent, "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Str("addr", cfg.Server.ListenAddr).
		Int("sources", len(cfg.Sources)).
		Str(xglog.FieldBackend, backend.Name()).
		Bool("relay", cfg.Fetch.Relay != "").
		Msg("starting tvgrid")

	holder := config.NewConfigHolder(cfg, loader)
	if err := daemon.NewApp(logger, srv, app, holder).Run(ctx); err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "daemon.failed").
			Msg("daemon app failed")
		exitCode = 1
		return
	}

	logger.Info().Msg("server exiting")
}

// resolveDefaultConfigPath returns $TVGRID_DATA_DIR/config.yaml when it exists.
func resolveDefaultConfigPath() string {
	dataDir := strings.TrimSpace(config.ParseString("TVGRID_DATA_DIR", "data"))
	if dataDir == "" {
		return ""
	}
	autoPath := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(autoPath); err == nil {
		return autoPath
	}
	return ""
}
