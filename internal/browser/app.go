// SPDX-License-Identifier: MIT

// Package browser holds the state of one channel browser: the source list,
// the load lifecycle and the intents the UI dispatches.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/tvgrid/internal/channels"
	"github.com/ManuGH/tvgrid/internal/fetch"
	"github.com/ManuGH/tvgrid/internal/i18n"
	xglog "github.com/ManuGH/tvgrid/internal/log"
	"github.com/ManuGH/tvgrid/internal/metrics"
	"github.com/ManuGH/tvgrid/internal/playback"
	"github.com/ManuGH/tvgrid/internal/playlist"
	"github.com/ManuGH/tvgrid/internal/telemetry"
	"github.com/ManuGH/tvgrid/internal/view"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
)

// Status is the load lifecycle of the active source.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

var (
	// ErrNoSources is returned when a load is requested with an empty source list.
	ErrNoSources = errors.New("no playlist sources configured")
	// ErrSourceIndex is returned for a source index outside the list.
	ErrSourceIndex = errors.New("source index out of range")
	// ErrSuperseded is returned by a load that a newer load replaced. Its
	// result was discarded.
	ErrSuperseded = errors.New("load superseded by a newer request")
)

// State is a point-in-time description of the browser for the UI.
//
// SourceIndex and Source name the selected source, which is the one last
// asked for even when its load failed. LoadedIndex and LoadedSource name the
// source the channel list actually came from; LoadedIndex is -1 when nothing
// was loaded or that source is no longer configured.
type State struct {
	Status       Status    `json:"status"`
	SourceIndex  int       `json:"sourceIndex"`
	Source       string    `json:"source"`
	LoadedIndex  int       `json:"loadedIndex"`
	LoadedSource string    `json:"loadedSource,omitempty"`
	SourceCount  int       `json:"sourceCount"`
	Channels     int       `json:"channels"`
	Revision     uint64    `json:"revision"`
	LoadID       uint64    `json:"loadId"`
	UpdatedAt    time.Time `json:"updatedAt"`
	// MessageKey is the i18n key to show for the status, empty when none.
	MessageKey string `json:"-"`
	Err        error  `json:"-"`
}

// App owns the source list and coordinates loads into the channel store.
// It is safe for concurrent use.
type App struct {
	store   *channels.Store
	fetcher fetch.Fetcher
	player  playback.Dispatcher
	logger  zerolog.Logger

	mu        sync.Mutex
	sources   []string
	index     int
	loadedSrc string
	status    Status
	lastErr   error
	loadID    uint64
	cancel    context.CancelFunc
	updatedAt time.Time
}

// New creates an App over sources. The store should already hold the
// persisted favorites.
func New(store *channels.Store, fetcher fetch.Fetcher, player playback.Dispatcher, sources []string) *App {
	if player == nil {
		player = playback.NewPlayer()
	}
	return &App{
		store:     store,
		fetcher:   fetcher,
		player:    player,
		logger:    xglog.WithComponent("browser"),
		sources:   append([]string(nil), sources...),
		status:    StatusIdle,
		updatedAt: time.Now(),
	}
}

// Store returns the channel store the app loads into.
func (a *App) Store() *channels.Store { return a.store }

// Sources returns a copy of the configured source list.
func (a *App) Sources() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.sources...)
}

// CurrentSource returns the active index and its URL. The URL is empty when
// no sources are configured.
func (a *App) CurrentSource() (int, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.sources) == 0 {
		return 0, ""
	}
	return a.index, a.sources[a.index]
}

// SetSources replaces the source list. The active index is kept when still
// valid and reset to 0 otherwise. It reports whether the active source URL
// changed, in which case the caller may want to reload.
func (a *App) SetSources(sources []string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	before := ""
	if len(a.sources) > 0 {
		before = a.sources[a.index]
	}
	a.sources = append([]string(nil), sources...)
	if a.index >= len(a.sources) {
		a.index = 0
	}
	after := ""
	if len(a.sources) > 0 {
		after = a.sources[a.index]
	}
	return before != after
}

// State returns the current browser state.
func (a *App) State() State {
	a.mu.Lock()
	st := State{
		Status:      a.status,
		SourceIndex: a.index,
		SourceCount: len(a.sources),
		LoadID:      a.loadID,
		UpdatedAt:   a.updatedAt,
		Err:         a.lastErr,
		LoadedIndex: -1,
	}
	if len(a.sources) > 0 {
		st.Source = a.sources[a.index]
	}
	if a.loadedSrc != "" {
		st.LoadedSource = a.loadedSrc
		for i, src := range a.sources {
			if src == a.loadedSrc {
				st.LoadedIndex = i
				break
			}
		}
	}
	a.mu.Unlock()

	snap := a.store.Snapshot()
	st.Channels = len(snap.Channels())
	st.Revision = snap.Revision()
	switch st.Status {
	case StatusLoading:
		st.MessageKey = i18n.KeyLoading
	case StatusFailed:
		st.MessageKey = i18n.KeyLoadFailed
	}
	return st
}

// NextSource advances to the next source, wrapping around, and loads it.
func (a *App) NextSource(ctx context.Context) error {
	a.mu.Lock()
	n := len(a.sources)
	next := 0
	if n > 0 {
		next = (a.index + 1) % n
	}
	a.mu.Unlock()
	if n == 0 {
		return ErrNoSources
	}
	return a.LoadSource(ctx, next)
}

// LoadSource fetches and parses source index and replaces the channel list.
// Starting a load cancels any load still in flight; only the newest load
// may apply its result. A failed load leaves the current list untouched.
func (a *App) LoadSource(ctx context.Context, index int) error {
	a.mu.Lock()
	if len(a.sources) == 0 {
		a.mu.Unlock()
		return ErrNoSources
	}
	if index < 0 || index >= len(a.sources) {
		a.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrSourceIndex, index)
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.loadID++
	loadID := a.loadID
	loadCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.index = index
	a.status = StatusLoading
	a.lastErr = nil
	a.updatedAt = time.Now()
	source := a.sources[index]
	a.mu.Unlock()
	defer cancel()

	loadCtx = xglog.ContextWithLoadID(loadCtx, loadID)
	loadCtx, span := telemetry.Tracer("tvgrid/browser").Start(loadCtx, "playlist.load")
	span.SetAttributes(telemetry.LoadAttributes(source, index, loadID)...)
	defer span.End()

	logger := xglog.WithContext(loadCtx, a.logger).With().
		Str(xglog.FieldSource, source).
		Int(xglog.FieldSourceIndex, index).
		Logger()
	logger.Info().Str(xglog.FieldEvent, "playlist.load.start").Msg("loading playlist")

	start := time.Now()
	list, stats, err := a.fetchAndParse(loadCtx, source)
	elapsed := time.Since(start).Seconds()

	a.mu.Lock()
	defer a.mu.Unlock()

	if loadID != a.loadID {
		metrics.RecordPlaylistFetch("stale", elapsed)
		span.SetStatus(codes.Error, "superseded")
		logger.Debug().Str(xglog.FieldEvent, "playlist.load.stale").Msg("discarding superseded playlist load")
		return ErrSuperseded
	}
	a.cancel = nil
	a.updatedAt = time.Now()

	if err != nil {
		outcome := "failure"
		if errors.Is(err, context.Canceled) {
			outcome = "canceled"
		}
		metrics.RecordPlaylistFetch(outcome, elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		span.SetAttributes(telemetry.ErrorAttributes("fetch")...)
		a.status = StatusFailed
		a.lastErr = err
		logger.Warn().Err(err).Str(xglog.FieldEvent, "playlist.load.failed").Msg("playlist load failed, keeping previous channels")
		return err
	}

	revision := a.store.Load(list)
	categories := len(a.store.Categories())
	a.status = StatusReady
	a.loadedSrc = source

	metrics.RecordPlaylistFetch("success", elapsed)
	metrics.RecordPlaylistLoaded(len(list), categories, index)
	metrics.RecordParseDrops(stats.Dropped, stats.Orphans)
	span.SetAttributes(telemetry.ParseAttributes(len(list), stats.Dropped+stats.Orphans)...)
	logger.Info().
		Str(xglog.FieldEvent, "playlist.load.done").
		Int(xglog.FieldChannels, len(list)).
		Int(xglog.FieldCategories, categories).
		Int(xglog.FieldDropped, stats.Dropped+stats.Orphans).
		Uint64("revision", revision).
		Msg("playlist loaded")
	return nil
}

func (a *App) fetchAndParse(ctx context.Context, source string) ([]playlist.Channel, playlist.Stats, error) {
	body, err := a.fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, playlist.Stats{}, err
	}
	defer body.Close()

	list, stats, err := playlist.ParseReader(body)
	if err != nil {
		var fe *fetch.FetchError
		if errors.As(err, &fe) {
			return nil, stats, err
		}
		return nil, stats, &fetch.FetchError{Source: source, Err: err}
	}
	return list, stats, nil
}

// Close cancels any load in flight.
func (a *App) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

// View filters the current channels for q.
func (a *App) View(q view.Query) view.Result {
	return view.Filter(a.store.Snapshot(), q)
}

// ToggleFavorite flips the favorite state of streamURL. See
// channels.Store.ToggleFavorite for the error contract.
func (a *App) ToggleFavorite(ctx context.Context, streamURL string) (bool, error) {
	return a.store.ToggleFavorite(ctx, streamURL)
}

// Play hands streamURL to the player as an HLS stream.
func (a *App) Play(ctx context.Context, streamURL string) (playback.Setup, error) {
	return a.player.Dispatch(ctx, playback.Request{StreamURL: streamURL, Type: playback.TypeHLS})
}
