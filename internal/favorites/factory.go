// SPDX-License-Identifier: MIT

package favorites

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Config selects and configures a favorites backend.
type Config struct {
	Backend string // memory, file, badger, redis, sqlite
	DataDir string
	Redis   RedisConfig
}

// Open creates a Backend based on the backend configuration.
func Open(cfg Config, logger zerolog.Logger) (Backend, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryBackend(), nil
	case "", "file":
		return NewFileBackend(cfg.DataDir)
	case "badger":
		return OpenBadgerBackend(filepath.Join(cfg.DataDir, "favorites.badger"))
	case "sqlite":
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create favorites dir: %w", err)
		}
		return OpenSQLiteBackend(filepath.Join(cfg.DataDir, "favorites.sqlite"))
	case "redis":
		return NewRedisBackend(cfg.Redis, logger)
	default:
		return nil, fmt.Errorf("unknown favorites backend: %s", cfg.Backend)
	}
}
