// SPDX-License-Identifier: MIT

// Package health answers the liveness and readiness probes. Readiness is
// driven by the playlist state and the favorites backend.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	xglog "github.com/ManuGH/tvgrid/internal/log"
	"golang.org/x/sync/errgroup"
)

// Status is the outcome of one check or of the whole report.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// rank orders statuses so the worst one wins.
func (s Status) rank() int {
	switch s {
	case StatusUnhealthy:
		return 2
	case StatusDegraded:
		return 1
	default:
		return 0
	}
}

// CheckResult is the outcome of one Checker.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Report is the body of /healthz and /readyz.
//
// Ready is false while any check is unhealthy, which for tvgrid means no
// playlist has loaded yet. A degraded check (favorites backend down, reload
// failed over a loaded list) keeps the instance ready. Reason names the
// checks responsible for a non-healthy status.
type Report struct {
	Status    Status                 `json:"status"`
	Ready     bool                   `json:"ready"`
	Reason    string                 `json:"reason,omitempty"`
	Version   string                 `json:"version,omitempty"`
	Uptime    string                 `json:"uptime"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Checker is one component contributing to readiness.
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Manager runs the registered checks for the probe endpoints.
type Manager struct {
	version string
	started time.Time
	now     func() time.Time

	mu       sync.RWMutex
	checkers []Checker
}

// NewManager creates a manager reporting version.
func NewManager(version string) *Manager {
	return &Manager{
		version: version,
		started: time.Now(),
		now:     time.Now,
	}
}

// RegisterChecker adds a check to readiness.
func (m *Manager) RegisterChecker(checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, checker)
}

// Live answers the liveness probe. The process is alive whenever it can
// answer, so checks only run when verbose is set and never fail the probe.
func (m *Manager) Live(ctx context.Context, verbose bool) Report {
	if !verbose {
		return m.report(StatusHealthy, nil)
	}
	return m.evaluate(ctx)
}

// Ready answers the readiness probe.
func (m *Manager) Ready(ctx context.Context) Report {
	return m.evaluate(ctx)
}

// evaluate runs every check concurrently; a slow backend ping does not
// delay the playlist check.
func (m *Manager) evaluate(ctx context.Context) Report {
	m.mu.RLock()
	checkers := append([]Checker(nil), m.checkers...)
	m.mu.RUnlock()

	results := make([]CheckResult, len(checkers))
	var g errgroup.Group
	for i, c := range checkers {
		g.Go(func() error {
			results[i] = c.Check(ctx)
			return nil
		})
	}
	_ = g.Wait()

	checks := make(map[string]CheckResult, len(checkers))
	overall := StatusHealthy
	for i, c := range checkers {
		checks[c.Name()] = results[i]
		if results[i].Status.rank() > overall.rank() {
			overall = results[i].Status
		}
	}
	return m.report(overall, checks)
}

func (m *Manager) report(status Status, checks map[string]CheckResult) Report {
	now := m.now()
	rep := Report{
		Status:    status,
		Ready:     status != StatusUnhealthy,
		Version:   m.version,
		Uptime:    now.Sub(m.started).Truncate(time.Second).String(),
		Timestamp: now,
		Checks:    checks,
	}
	if status != StatusHealthy {
		rep.Reason = reason(checks)
	}
	return rep
}

// reason joins "name: message" for every check that is not healthy, in
// name order.
func reason(checks map[string]CheckResult) string {
	names := make([]string, 0, len(checks))
	for name, res := range checks {
		if res.Status != StatusHealthy {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+checks[name].Message)
	}
	return strings.Join(parts, "; ")
}

// ServeHealth handles /healthz. It always answers 200.
func (m *Manager) ServeHealth(w http.ResponseWriter, r *http.Request) {
	rep := m.Live(r.Context(), r.URL.Query().Get("verbose") == "true")
	writeReport(w, r, "health", http.StatusOK, rep)
}

// ServeReady handles /readyz: 200 when ready, 503 otherwise.
func (m *Manager) ServeReady(w http.ResponseWriter, r *http.Request) {
	rep := m.Ready(r.Context())
	code := http.StatusOK
	if !rep.Ready {
		code = http.StatusServiceUnavailable
	}
	writeReport(w, r, "readiness", code, rep)
}

func writeReport(w http.ResponseWriter, r *http.Request, probe string, code int, rep Report) {
	logger := xglog.WithComponentFromContext(r.Context(), probe)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(rep); err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, probe+".encode_error").Msg("failed to encode probe response")
		return
	}

	logger.Debug().
		Str(xglog.FieldEvent, probe+".checked").
		Str("health", string(rep.Status)).
		Str("reason", rep.Reason).
		Msg("probe answered")
}
