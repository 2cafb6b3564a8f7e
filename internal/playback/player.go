// SPDX-License-Identifier: MIT

// Package playback hands a selected channel to the media player.
package playback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	xglog "github.com/ManuGH/tvgrid/internal/log"
	"github.com/ManuGH/tvgrid/internal/metrics"
	"github.com/ManuGH/tvgrid/internal/playlist"
	"github.com/rs/zerolog"
)

// TypeHLS is the only stream type the grid declares.
const TypeHLS = "hls"

// ErrInvalidStream is returned for stream URLs that are not absolute http(s) URLs.
var ErrInvalidStream = errors.New("invalid stream url")

// Request asks the player to start a stream.
type Request struct {
	StreamURL string
	Type      string
}

// Setup is the configuration handed to the embedded player.
type Setup struct {
	File                 string `json:"file"`
	Type                 string `json:"type"`
	Width                string `json:"width"`
	Height               string `json:"height"`
	Autostart            bool   `json:"autostart"`
	Mute                 bool   `json:"mute"`
	PlaybackRateControls bool   `json:"playbackRateControls"`
	AllowFullscreen      bool   `json:"allowfullscreen"`
}

// Dispatcher starts playback of a stream.
type Dispatcher interface {
	Dispatch(ctx context.Context, req Request) (Setup, error)
}

// Player is the default Dispatcher. It builds the player setup and remembers
// the stream currently playing; a new dispatch replaces the previous one.
type Player struct {
	mu         sync.RWMutex
	nowPlaying string
	logger     zerolog.Logger
}

// NewPlayer creates a Player with nothing playing.
func NewPlayer() *Player {
	return &Player{logger: xglog.WithComponent("playback")}
}

// Dispatch validates req and returns the setup for it.
func (p *Player) Dispatch(ctx context.Context, req Request) (Setup, error) {
	streamURL := strings.TrimSpace(req.StreamURL)
	if !playlist.IsStreamURL(streamURL) {
		metrics.RecordPlaybackDispatch(false)
		return Setup{}, fmt.Errorf("%w: %q", ErrInvalidStream, req.StreamURL)
	}
	typ := req.Type
	if typ == "" {
		typ = TypeHLS
	}

	p.mu.Lock()
	p.nowPlaying = streamURL
	p.mu.Unlock()

	metrics.RecordPlaybackDispatch(true)
	logger := xglog.WithContext(ctx, p.logger)
	logger.Debug().
		Str(xglog.FieldEvent, "playback.dispatch").
		Str(xglog.FieldStreamURL, streamURL).
		Msg("dispatching stream to player")

	return Setup{
		File:                 streamURL,
		Type:                 typ,
		Width:                "100%",
		Height:               "100%",
		Autostart:            true,
		Mute:                 false,
		PlaybackRateControls: true,
		AllowFullscreen:      true,
	}, nil
}

// NowPlaying returns the last dispatched stream URL, or "" if none.
func (p *Player) NowPlaying() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.nowPlaying
}
