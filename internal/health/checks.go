// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
	"time"
)

// Pinger is implemented by the favorites backends.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

// BackendChecker reports whether the favorites backend answers. A failing
// backend degrades the service: toggles still work in memory.
type BackendChecker struct {
	backend Pinger
	timeout time.Duration
}

// NewBackendChecker creates a checker that pings backend.
func NewBackendChecker(backend Pinger) *BackendChecker {
	return &BackendChecker{backend: backend, timeout: 2 * time.Second}
}

func (c *BackendChecker) Name() string {
	return "favorites_backend"
}

func (c *BackendChecker) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.backend.Ping(ctx); err != nil {
		return CheckResult{
			Status:  StatusDegraded,
			Error:   err.Error(),
			Message: fmt.Sprintf("%s backend unreachable, favorites are not persisted", c.backend.Name()),
		}
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: c.backend.Name() + " backend reachable",
	}
}

// PlaylistState is what PlaylistChecker needs to know about the last load.
type PlaylistState struct {
	Loaded   bool
	Failed   bool
	Channels int
	Error    string
}

// PlaylistChecker reports whether a playlist is available to browse.
type PlaylistChecker struct {
	state func() PlaylistState
}

// NewPlaylistChecker creates a checker reading the playlist state from state.
func NewPlaylistChecker(state func() PlaylistState) *PlaylistChecker {
	return &PlaylistChecker{state: state}
}

func (c *PlaylistChecker) Name() string {
	return "playlist"
}

// Check is unhealthy until a playlist has loaded once. A failed reload on
// top of a loaded playlist only degrades, since the old list is still served.
func (c *PlaylistChecker) Check(_ context.Context) CheckResult {
	st := c.state()
	switch {
	case !st.Loaded && st.Failed:
		return CheckResult{Status: StatusUnhealthy, Error: st.Error, Message: "playlist load failed"}
	case !st.Loaded:
		return CheckResult{Status: StatusUnhealthy, Message: "no playlist loaded yet"}
	case st.Failed:
		return CheckResult{Status: StatusDegraded, Error: st.Error, Message: "last reload failed, serving previous playlist"}
	default:
		return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("%d channels loaded", st.Channels)}
	}
}
