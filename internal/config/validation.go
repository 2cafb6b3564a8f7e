// SPDX-License-Identifier: MIT

package config

import (
	"strings"

	"github.com/ManuGH/tvgrid/internal/validate"
)

var (
	favoriteBackends = []string{"memory", "file", "badger", "sqlite", "redis"}
	exporterTypes    = []string{"grpc", "http"}
	languages        = []string{"bn", "en"}
)

// Validate validates an AppConfig using the centralized validation package
func Validate(cfg AppConfig) error {
	v := validate.New()

	if _, err := validate.ParseLogLevel(cfg.LogLevel); err != nil {
		v.AddError("LogLevel", "must be one of debug, info, warn, error", cfg.LogLevel)
	}
	v.OneOf("Language", cfg.Language, languages)

	if len(cfg.Sources) == 0 {
		v.AddError("Sources", "at least one playlist source is required", cfg.Sources)
	}
	for _, src := range cfg.Sources {
		v.URL("Sources", src, []string{"http", "https"})
	}

	v.ListenAddr("Server.ListenAddr", cfg.Server.ListenAddr)
	v.NonNegative("Server.ReadTimeout", int64(cfg.Server.ReadTimeout))
	v.NonNegative("Server.WriteTimeout", int64(cfg.Server.WriteTimeout))
	v.NonNegative("Server.IdleTimeout", int64(cfg.Server.IdleTimeout))
	v.NonNegative("Server.ShutdownTimeout", int64(cfg.Server.ShutdownTimeout))
	v.NonNegative("Server.RateLimit", int64(cfg.Server.RateLimit))
	if cfg.Server.RateLimit > 0 && cfg.Server.RateWindow <= 0 {
		v.AddError("Server.RateWindow", "must be positive when rate limiting is enabled", cfg.Server.RateWindow)
	}

	if strings.TrimSpace(cfg.Fetch.Relay) != "" {
		v.URL("Fetch.Relay", cfg.Fetch.Relay, []string{"http", "https"})
	}
	v.NonNegative("Fetch.Timeout", int64(cfg.Fetch.Timeout))
	v.NonNegative("Fetch.MaxBodyBytes", cfg.Fetch.MaxBodyBytes)
	if cfg.Fetch.RateLimit <= 0 {
		v.AddError("Fetch.RateLimit", "must be positive", cfg.Fetch.RateLimit)
	}
	v.Positive("Fetch.RateBurst", cfg.Fetch.RateBurst)

	v.OneOf("Favorites.Backend", cfg.Favorites.Backend, favoriteBackends)
	switch cfg.Favorites.Backend {
	case "file", "badger", "sqlite":
		v.Directory("DataDir", cfg.DataDir, false)
	case "redis":
		v.NotEmpty("Favorites.Redis.Addr", cfg.Favorites.Redis.Addr)
		v.Range("Favorites.Redis.DB", cfg.Favorites.Redis.DB, 0, 15)
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("Telemetry.ExporterType", cfg.Telemetry.ExporterType, exporterTypes)
		v.NotEmpty("Telemetry.Endpoint", cfg.Telemetry.Endpoint)
		v.FloatRange("Telemetry.SamplingRate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	return v.Err()
}
