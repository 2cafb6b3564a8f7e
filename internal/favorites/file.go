// SPDX-License-Identifier: MIT

package favorites

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	xglog "github.com/ManuGH/tvgrid/internal/log"
	"github.com/google/renameio/v2"
)

// FileBackend stores favorites in a JSON file inside the data directory.
type FileBackend struct {
	path string
}

// NewFileBackend stores favorites at <dataDir>/favorites.json.
func NewFileBackend(dataDir string) (*FileBackend, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create favorites dir: %w", err)
	}
	return &FileBackend{path: filepath.Join(dataDir, Key+".json")}, nil
}

func (f *FileBackend) Name() string { return "file" }

// Path returns the favorites file location.
func (f *FileBackend) Path() string { return f.path }

func (f *FileBackend) Read(_ context.Context) ([]byte, bool, error) {
	// #nosec G304 -- path is derived from the operator-configured data dir
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read favorites file: %w", err)
	}
	return data, true, nil
}

// Write replaces the file atomically: fsync before rename so a crash never
// leaves a truncated favorites file behind.
func (f *FileBackend) Write(ctx context.Context, data []byte) error {
	logger := xglog.FromContext(ctx)

	pendingFile, err := renameio.NewPendingFile(f.path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending favorites file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending favorites file")
		}
	}()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write favorites data: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace favorites file: %w", err)
	}
	return nil
}

func (f *FileBackend) Ping(context.Context) error {
	_, err := os.Stat(filepath.Dir(f.path))
	return err
}

func (f *FileBackend) Close() error { return nil }
