// SPDX-License-Identifier: MIT

// Package config provides configuration management for tvgrid.
package config

import "time"

// DefaultSources are the playlists offered when none are configured.
var DefaultSources = []string{
	"https://shz.al/6C2A",
	"https://shz.al/zCAG",
	"https://linkchur.top/playlist.m3u",
	"https://byte-capsule.vercel.app/api/aynaott/hybrid.m3u",
	"https://raw.githubusercontent.com/FunctionError/PiratesTv/main/combined_playlist.m3u",
}

// DefaultRelay routes fetches through a CORS relay as the browser build did.
const DefaultRelay = "https://api.allorigins.win/raw?url="

// AppConfig is the effective runtime configuration.
type AppConfig struct {
	Version  string
	LogLevel string
	DataDir  string
	Language string

	Sources []string

	Server    ServerConfig
	Fetch     FetchConfig
	Favorites FavoritesConfig
	Telemetry TelemetryConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	// RateLimit is requests per RateWindow per client IP; 0 disables it.
	RateLimit  int
	RateWindow time.Duration
}

// FetchConfig configures playlist fetching.
type FetchConfig struct {
	Relay        string
	Timeout      time.Duration // 0 means no timeout
	MaxBodyBytes int64
	UserAgent    string
	RateLimit    float64 // outbound requests per second
	RateBurst    int
}

// FavoritesConfig selects the favorites backend.
type FavoritesConfig struct {
	Backend string // memory, file, badger, sqlite, redis
	Redis   RedisConfig
}

// RedisConfig configures the redis favorites backend.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool
	ExporterType string
	Endpoint     string
	SamplingRate float64
	Environment  string
}

// FileConfig is the on-disk YAML shape. Pointers distinguish "unset" from
// zero values that are meaningful (fetch timeout 0, telemetry disabled).
type FileConfig struct {
	LogLevel  string              `yaml:"logLevel,omitempty"`
	DataDir   string              `yaml:"dataDir,omitempty"`
	Language  string              `yaml:"language,omitempty"`
	Sources   []string            `yaml:"sources,omitempty"`
	Server    FileServerConfig    `yaml:"server,omitempty"`
	Fetch     FileFetchConfig     `yaml:"fetch,omitempty"`
	Favorites FileFavoritesConfig `yaml:"favorites,omitempty"`
	Telemetry FileTelemetryConfig `yaml:"telemetry,omitempty"`
}

// FileServerConfig is the server section of the YAML file.
type FileServerConfig struct {
	ListenAddr      string `yaml:"listenAddr,omitempty"`
	ReadTimeout     string `yaml:"readTimeout,omitempty"`
	WriteTimeout    string `yaml:"writeTimeout,omitempty"`
	IdleTimeout     string `yaml:"idleTimeout,omitempty"`
	ShutdownTimeout string `yaml:"shutdownTimeout,omitempty"`
	RateLimit       *int   `yaml:"rateLimit,omitempty"`
	RateWindow      string `yaml:"rateWindow,omitempty"`
}

// FileFetchConfig is the fetch section of the YAML file.
type FileFetchConfig struct {
	Relay        *string  `yaml:"relay,omitempty"`
	Timeout      string   `yaml:"timeout,omitempty"`
	MaxBodyBytes *int64   `yaml:"maxBodyBytes,omitempty"`
	UserAgent    string   `yaml:"userAgent,omitempty"`
	RateLimit    *float64 `yaml:"rateLimit,omitempty"`
	RateBurst    *int     `yaml:"rateBurst,omitempty"`
}

// FileFavoritesConfig is the favorites section of the YAML file.
type FileFavoritesConfig struct {
	Backend string          `yaml:"backend,omitempty"`
	Redis   FileRedisConfig `yaml:"redis,omitempty"`
}

// FileRedisConfig is the favorites.redis section of the YAML file.
type FileRedisConfig struct {
	Addr      string `yaml:"addr,omitempty"`
	Password  string `yaml:"password,omitempty"`
	DB        *int   `yaml:"db,omitempty"`
	KeyPrefix string `yaml:"keyPrefix,omitempty"`
}

// FileTelemetryConfig is the telemetry section of the YAML file.
type FileTelemetryConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	ExporterType string   `yaml:"exporterType,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
	Environment  string   `yaml:"environment,omitempty"`
}

// Clone returns a deep copy of cfg.
func (cfg AppConfig) Clone() AppConfig {
	out := cfg
	out.Sources = append([]string(nil), cfg.Sources...)
	return out
}
