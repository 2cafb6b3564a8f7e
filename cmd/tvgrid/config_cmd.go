// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/tvgrid/internal/config"
	"github.com/ManuGH/tvgrid/internal/version"
)

func runConfigCLI(args []string) int {
	return runConfigCLIWith(args, os.Stdout, os.Stderr)
}

func runConfigCLIWith(args []string, stdout, stderr io.Writer) int {
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
	fmt.Fprintln(w, "  tvgrid config validate [--file|-f config.yaml]")
	fmt.Fprintln(w, "  tvgrid config dump [--file|-f config.yaml] [--format=yaml|json]")
}

func configFlagSet(name string, stderr io.Writer, file *string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(file, "file", "", "path to YAML configuration file")
	fs.StringVar(file, "f", "", "path to YAML configuration file (shorthand)")
	return fs
}

func runConfigValidate(args []string, stdout, stderr io.Writer) int {
	var file string
	fs := configFlagSet("tvgrid config validate", stderr, &file)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	configPath := strings.TrimSpace(file)
	if configPath == "" {
		configPath = resolveDefaultConfigPath()
	}
	if configPath == "" {
		fmt.Fprintln(stderr, "Error: --file is required (no config.yaml found in $TVGRID_DATA_DIR)")
		return 2
	}

	if _, err := config.NewLoader(configPath, version.Version).Load(); err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", configPath, err)
		return 1
	}

	fmt.Fprintf(stdout, "%s is valid\n", configPath)
	return 0
}

// runConfigDump prints the effective configuration (defaults + file + env)
// with secrets redacted. Without a file it dumps defaults + env.
func runConfigDump(args []string, stdout, stderr io.Writer) int {
	var file, format string
	fs := configFlagSet("tvgrid config dump", stderr, &file)
	fs.StringVar(&format, "format", "yaml", "output format: yaml or json")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	configPath := strings.TrimSpace(file)
	if configPath == "" {
		configPath = resolveDefaultConfigPath()
	}

	cfg, err := config.NewLoader(configPath, version.Version).Load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error:\n  %v\n", err)
		return 1
	}

	fileCfg := fileConfigFromAppConfig(cfg)
	if fileCfg.Favorites.Redis.Password != "" {
		fileCfg.Favorites.Redis.Password = "***"
	}

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

func durationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

func fileConfigFromAppConfig(cfg config.AppConfig) config.FileConfig {
	rateLimit := cfg.Server.RateLimit
	relay := cfg.Fetch.Relay
	maxBody := cfg.Fetch.MaxBodyBytes
	fetchRate := cfg.Fetch.RateLimit
	fetchBurst := cfg.Fetch.RateBurst
	redisDB := cfg.Favorites.Redis.DB
	telemetryEnabled := cfg.Telemetry.Enabled
	samplingRate := cfg.Telemetry.SamplingRate

	return config.FileConfig{
		LogLevel: cfg.LogLevel,
		DataDir:  cfg.DataDir,
		Language: cfg.Language,
		Sources:  cfg.Sources,
		Server: config.FileServerConfig{
			ListenAddr:      cfg.Server.ListenAddr,
			ReadTimeout:     durationString(cfg.Server.ReadTimeout),
			WriteTimeout:    durationString(cfg.Server.WriteTimeout),
			IdleTimeout:     durationString(cfg.Server.IdleTimeout),
			ShutdownTimeout: durationString(cfg.Server.ShutdownTimeout),
			RateLimit:       &rateLimit,
			RateWindow:      durationString(cfg.Server.RateWindow),
		},
		Fetch: config.FileFetchConfig{
			Relay:        &relay,
			Timeout:      durationString(cfg.Fetch.Timeout),
			MaxBodyBytes: &maxBody,
			UserAgent:    cfg.Fetch.UserAgent,
			RateLimit:    &fetchRate,
			RateBurst:    &fetchBurst,
		},
		Favorites: config.FileFavoritesConfig{
			Backend: cfg.Favorites.Backend,
			Redis: config.FileRedisConfig{
				Addr:      cfg.Favorites.Redis.Addr,
				Password:  cfg.Favorites.Redis.Password,
				DB:        &redisDB,
				KeyPrefix: cfg.Favorites.Redis.KeyPrefix,
			},
		},
		Telemetry: config.FileTelemetryConfig{
			Enabled:      &telemetryEnabled,
			ExporterType: cfg.Telemetry.ExporterType,
			Endpoint:     cfg.Telemetry.Endpoint,
			SamplingRate: &samplingRate,
			Environment:  cfg.Telemetry.Environment,
		},
	}
}
