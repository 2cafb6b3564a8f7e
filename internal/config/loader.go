// SPDX-License-Identifier: MIT

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

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the config file path, empty when configuration is env-only.
func (l *Loader) Path() string { return l.configPath }

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envInt64(key string, defaultVal int64) int64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt64(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envList(key string, defaultVal []string) []string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseList(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults, then
// validates the result.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)

	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		LogLevel: "info",
		DataDir:  "data",
		Language: "bn",
		Sources:  append([]string(nil), DefaultSources...),
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       120,
			RateWindow:      time.Minute,
		},
		Fetch: FetchConfig{
			Relay:        DefaultRelay,
			MaxBodyBytes: 64 << 20,
			UserAgent:    "tvgrid",
			RateLimit:    2,
			RateBurst:    4,
		},
		Favorites: FavoritesConfig{
			Backend: "file",
			Redis:   RedisConfig{Addr: "localhost:6379", KeyPrefix: "tvgrid:"},
		},
		Telemetry: TelemetryConfig{
			ExporterType: "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "production",
		},
	}
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
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
	return ParseFile(data)
}

// ParseFile decodes a YAML document strictly: unknown keys and trailing
// documents are errors. An empty document yields an empty FileConfig.
func ParseFile(data []byte) (*FileConfig, error) {
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

func mergeFileConfig(cfg *AppConfig, f *FileConfig) error {
	setString(&cfg.LogLevel, f.LogLevel)
	setString(&cfg.DataDir, f.DataDir)
	setString(&cfg.Language, f.Language)
	if len(f.Sources) > 0 {
		cfg.Sources = append([]string(nil), f.Sources...)
	}

	s := f.Server
	setString(&cfg.Server.ListenAddr, s.ListenAddr)
	for _, d := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"server.readTimeout", s.ReadTimeout, &cfg.Server.ReadTimeout},
		{"server.writeTimeout", s.WriteTimeout, &cfg.Server.WriteTimeout},
		{"server.idleTimeout", s.IdleTimeout, &cfg.Server.IdleTimeout},
		{"server.shutdownTimeout", s.ShutdownTimeout, &cfg.Server.ShutdownTimeout},
		{"server.rateWindow", s.RateWindow, &cfg.Server.RateWindow},
		{"fetch.timeout", f.Fetch.Timeout, &cfg.Fetch.Timeout},
	} {
		if err := setDuration(d.dst, d.raw, d.name); err != nil {
			return err
		}
	}
	setPtr(&cfg.Server.RateLimit, s.RateLimit)

	setPtr(&cfg.Fetch.Relay, f.Fetch.Relay)
	setPtr(&cfg.Fetch.MaxBodyBytes, f.Fetch.MaxBodyBytes)
	setString(&cfg.Fetch.UserAgent, f.Fetch.UserAgent)
	setPtr(&cfg.Fetch.RateLimit, f.Fetch.RateLimit)
	setPtr(&cfg.Fetch.RateBurst, f.Fetch.RateBurst)

	setString(&cfg.Favorites.Backend, f.Favorites.Backend)
	setString(&cfg.Favorites.Redis.Addr, f.Favorites.Redis.Addr)
	setString(&cfg.Favorites.Redis.Password, f.Favorites.Redis.Password)
	setPtr(&cfg.Favorites.Redis.DB, f.Favorites.Redis.DB)
	setString(&cfg.Favorites.Redis.KeyPrefix, f.Favorites.Redis.KeyPrefix)

	setPtr(&cfg.Telemetry.Enabled, f.Telemetry.Enabled)
	setString(&cfg.Telemetry.ExporterType, f.Telemetry.ExporterType)
	setString(&cfg.Telemetry.Endpoint, f.Telemetry.Endpoint)
	setPtr(&cfg.Telemetry.SamplingRate, f.Telemetry.SamplingRate)
	setString(&cfg.Telemetry.Environment, f.Telemetry.Environment)
	return nil
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.LogLevel = l.envString("TVGRID_LOG_LEVEL", cfg.LogLevel)
	cfg.DataDir = l.envString("TVGRID_DATA_DIR", cfg.DataDir)
	cfg.Language = l.envString("TVGRID_LANGUAGE", cfg.Language)
	cfg.Sources = l.envList("TVGRID_SOURCES", cfg.Sources)

	cfg.Server.ListenAddr = l.envString("TVGRID_LISTEN", cfg.Server.ListenAddr)
	cfg.Server.ReadTimeout = l.envDuration("TVGRID_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = l.envDuration("TVGRID_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = l.envDuration("TVGRID_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.ShutdownTimeout = l.envDuration("TVGRID_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)
	cfg.Server.RateLimit = l.envInt("TVGRID_RATE_LIMIT", cfg.Server.RateLimit)
	cfg.Server.RateWindow = l.envDuration("TVGRID_RATE_WINDOW", cfg.Server.RateWindow)

	// An explicitly empty relay disables relaying, so it bypasses ParseString.
	l.ConsumedEnvKeys["TVGRID_RELAY"] = struct{}{}
	if v, ok := os.LookupEnv("TVGRID_RELAY"); ok {
		cfg.Fetch.Relay = strings.TrimSpace(v)
	}
	cfg.Fetch.Timeout = l.envDuration("TVGRID_FETCH_TIMEOUT", cfg.Fetch.Timeout)
	cfg.Fetch.MaxBodyBytes = l.envInt64("TVGRID_FETCH_MAX_BYTES", cfg.Fetch.MaxBodyBytes)
	cfg.Fetch.UserAgent = l.envString("TVGRID_FETCH_USER_AGENT", cfg.Fetch.UserAgent)
	cfg.Fetch.RateLimit = l.envFloat("TVGRID_FETCH_RATE", cfg.Fetch.RateLimit)
	cfg.Fetch.RateBurst = l.envInt("TVGRID_FETCH_BURST", cfg.Fetch.RateBurst)

	cfg.Favorites.Backend = l.envString("TVGRID_FAVORITES_BACKEND", cfg.Favorites.Backend)
	cfg.Favorites.Redis.Addr = l.envString("TVGRID_REDIS_ADDR", cfg.Favorites.Redis.Addr)
	cfg.Favorites.Redis.Password = l.envString("TVGRID_REDIS_PASSWORD", cfg.Favorites.Redis.Password)
	cfg.Favorites.Redis.DB = l.envInt("TVGRID_REDIS_DB", cfg.Favorites.Redis.DB)
	cfg.Favorites.Redis.KeyPrefix = l.envString("TVGRID_REDIS_KEY_PREFIX", cfg.Favorites.Redis.KeyPrefix)

	cfg.Telemetry.Enabled = l.envBool("TVGRID_TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.ExporterType = l.envString("TVGRID_TELEMETRY_EXPORTER", cfg.Telemetry.ExporterType)
	cfg.Telemetry.Endpoint = l.envString("TVGRID_TELEMETRY_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat("TVGRID_TELEMETRY_SAMPLING_RATE", cfg.Telemetry.SamplingRate)
	cfg.Telemetry.Environment = l.envString("TVGRID_TELEMETRY_ENVIRONMENT", cfg.Telemetry.Environment)
}

func setString(dst *string, v string) {
	if strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setPtr[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, raw, field string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q: %w", field, raw, err)
	}
	*dst = d
	return nil
}
