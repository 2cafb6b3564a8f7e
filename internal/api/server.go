// SPDX-License-Identifier: MIT

// Package api serves the channel grid as HTML and as a small JSON API.
package api

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/tvgrid/internal/api/middleware"
	"github.com/ManuGH/tvgrid/internal/browser"
	"github.com/ManuGH/tvgrid/internal/health"
	tvlog "github.com/ManuGH/tvgrid/internal/log"
)

// Config configures the HTTP server.
type Config struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// RateLimit requests per RateWindow per client IP; zero disables.
	RateLimit  int
	RateWindow time.Duration

	// TracingService names the server tracer; empty disables request spans.
	TracingService string
	Version        string
}

// Server wires the browser app and health manager to HTTP.
type Server struct {
	cfg     Config
	app     *browser.App
	health  *health.Manager
	pages   *template.Template
	logger  zerolog.Logger
	httpSrv *http.Server
}

// New creates a Server. It fails only if the embedded templates do not parse.
func New(cfg Config, app *browser.App, hm *health.Manager) (*Server, error) {
	pages, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if hm == nil {
		hm = health.NewManager(cfg.Version)
	}
	s := &Server{
		cfg:    cfg,
		app:    app,
		health: hm,
		pages:  pages,
		logger: tvlog.WithComponent("api"),
	}
	s.httpSrv = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
	return s, nil
}

// Handler returns the router with all routes and middleware applied.
func (s *Server) Handler() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        s.cfg.TracingService,
		EnableLogging:         true,
		RateLimit:             s.cfg.RateLimit,
		RateWindow:            s.cfg.RateWindow,
		EnableCSRF:            true,
	})

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", s.handleGrid)
	r.Get("/static/*", s.handleStatic)
	r.Get("/playlist.m3u", s.handlePlaylist)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/channels", s.handleChannels)
		r.Get("/categories", s.handleCategories)
		r.Get("/favorites", s.handleFavorites)
		r.Post("/favorites/toggle", s.handleToggleFavorite)
		r.Get("/sources", s.handleSources)
		r.Post("/sources/next", s.handleNextSource)
		r.Post("/sources/{index}", s.handleSelectSource)
		r.Post("/play", s.handlePlay)
	})

	return r
}

// ListenAndServe serves until Shutdown is called. It returns nil after a
// graceful shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info().
		Str(tvlog.FieldEvent, "server.listen").
		Str("addr", s.cfg.ListenAddr).
		Msg("http server listening")
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Serve serves on an existing listener; used by tests.
func (s *Server) Serve(l net.Listener) error {
	if err := s.httpSrv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests up
// to the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("shutdown context is nil")
	}
	if s.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
	}
	s.logger.Info().Str(tvlog.FieldEvent, "server.shutdown").Msg("shutting down server")
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
