// SPDX-License-Identifier: MIT

// Package daemon owns the long-lived runtime of the tvgrid process.
package daemon

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/tvgrid/internal/browser"
	"github.com/ManuGH/tvgrid/internal/config"
	"github.com/ManuGH/tvgrid/internal/health"
	xglog "github.com/ManuGH/tvgrid/internal/log"
)

// Server is the HTTP server lifecycle the daemon drives.
type Server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// App owns the runtime lifecycle: initial load, config watcher, reload
// wiring and the HTTP server.
type App struct {
	logger       zerolog.Logger
	server       Server
	browser      *browser.App
	cfgHolder    *config.ConfigHolder
	reloadSignal os.Signal
	initialLoad  bool
}

// NewApp creates a new App orchestrator. cfgHolder may be nil to disable
// reloading.
func NewApp(logger zerolog.Logger, server Server, b *browser.App, cfgHolder *config.ConfigHolder) *App {
	return &App{
		logger:       logger,
		server:       server,
		browser:      b,
		cfgHolder:    cfgHolder,
		reloadSignal: syscall.SIGHUP,
		initialLoad:  true,
	}
}

// Run starts all owned background subsystems and blocks until ctx is
// cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	if a.server == nil {
		return ErrMissingServer
	}
	if a.browser == nil {
		return ErrMissingBrowser
	}

	g, ctx := errgroup.WithContext(ctx)

	// Config watcher is best-effort: startup should not fail if watcher cannot be started.
	if a.cfgHolder != nil {
		if err := a.cfgHolder.StartWatcher(ctx); err != nil {
			a.logger.Warn().Err(err).Str(xglog.FieldEvent, "config.watcher_start_failed").Msg("failed to start config watcher")
		}

		applyCh := make(chan config.AppConfig, 1)
		a.cfgHolder.RegisterListener(applyCh)
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case cfg := <-applyCh:
					a.applyConfig(ctx, cfg)
				}
			}
		})
	}

	// SIGHUP trigger for manual reload.
	if a.cfgHolder != nil && a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str(xglog.FieldEvent, "config.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading config")
					if err := a.cfgHolder.Reload(ctx); err != nil {
						a.logger.Warn().Err(err).Str(xglog.FieldEvent, "config.reload_failed").Msg("config reload failed")
					}
				}
			}
		})
	}

	// Initial load of the first source; the grid shows the loading state until it lands.
	if a.initialLoad {
		g.Go(func() error {
			a.load(ctx, 0)
			return nil
		})
	}

	// Main server lifecycle.
	g.Go(func() error {
		return a.server.ListenAndServe()
	})
	g.Go(func() error {
		<-ctx.Done()
		a.browser.Close()
		return a.server.Shutdown(context.WithoutCancel(ctx))
	})

	return g.Wait()
}

// applyConfig pushes a reloaded source list into the browser and reloads
// when the active source changed.
func (a *App) applyConfig(ctx context.Context, cfg config.AppConfig) {
	if !a.browser.SetSources(cfg.Sources) {
		return
	}
	index, source := a.browser.CurrentSource()
	a.logger.Info().
		Str(xglog.FieldEvent, "config.sources_changed").
		Int(xglog.FieldSourceIndex, index).
		Str(xglog.FieldSource, source).
		Msg("active source changed, reloading playlist")
	a.load(ctx, index)
}

func (a *App) load(ctx context.Context, index int) {
	err := a.browser.LoadSource(ctx, index)
	switch {
	case err == nil, errors.Is(err, browser.ErrSuperseded), errors.Is(err, context.Canceled):
	default:
		// Already logged by the browser; the grid shows the failure state.
		a.logger.Debug().Err(err).Str(xglog.FieldEvent, "daemon.load_failed").Msg("playlist load failed")
	}
}

// RegisterHealthChecks wires the favorites backend and the playlist state
// into hm.
func RegisterHealthChecks(hm *health.Manager, b *browser.App, backend health.Pinger) {
	if backend != nil {
		hm.RegisterChecker(health.NewBackendChecker(backend))
	}
	hm.RegisterChecker(health.NewPlaylistChecker(func() health.PlaylistState {
		st := b.State()
		ps := health.PlaylistState{
			Loaded:   b.Store().Loaded(),
			Failed:   st.Status == browser.StatusFailed,
			Channels: st.Channels,
		}
		if st.Err != nil {
			ps.Error = st.Err.Error()
		}
		return ps
	}))
}
