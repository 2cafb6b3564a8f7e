// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/tvgrid/internal/browser"
	"github.com/ManuGH/tvgrid/internal/channels"
	"github.com/ManuGH/tvgrid/internal/fetch"
	"github.com/ManuGH/tvgrid/internal/i18n"
	tvlog "github.com/ManuGH/tvgrid/internal/log"
	"github.com/ManuGH/tvgrid/internal/playback"
	"github.com/ManuGH/tvgrid/internal/playlist"
	"github.com/ManuGH/tvgrid/internal/view"
)

// StatusResponse is the body of GET /api/status and of the source
// switching endpoints.
type StatusResponse struct {
	browser.State
	Message string `json:"message,omitempty"`
}

// ChannelsResponse is the body of GET /api/channels.
type ChannelsResponse struct {
	Mode       view.Mode            `json:"mode"`
	Category   string               `json:"category,omitempty"`
	Search     string               `json:"search,omitempty"`
	Cards      []view.Card          `json:"cards"`
	Categories []view.CategoryCount `json:"categories,omitempty"`
	Empty      view.EmptyState      `json:"empty,omitempty"`
	Message    string               `json:"message,omitempty"`
	Revision   uint64               `json:"revision"`
}

// SourcesResponse is the body of GET /api/sources.
type SourcesResponse struct {
	Sources []string `json:"sources"`
	Index   int      `json:"index"`
}

// FavoritesResponse is the body of GET /api/favorites.
type FavoritesResponse struct {
	StreamURLs []string    `json:"streamUrls"`
	Cards      []view.Card `json:"cards"`
}

type streamRequest struct {
	StreamURL string `json:"streamUrl"`
}

// ToggleResponse is the body of POST /api/favorites/toggle. Warning is set
// when the new state could not be persisted.
type ToggleResponse struct {
	StreamURL string `json:"streamUrl"`
	Favorite  bool   `json:"favorite"`
	Warning   string `json:"warning,omitempty"`
}

func (s *Server) statusResponse(r *http.Request) StatusResponse {
	st := s.app.State()
	resp := StatusResponse{State: st}
	if st.MessageKey != "" {
		resp.Message = i18n.Text(languageFor(r), st.MessageKey)
	}
	return resp
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.statusResponse(r))
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	q, err := queryFor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}
	snap := s.app.Store().Snapshot()
	res := view.Filter(snap, q)

	resp := ChannelsResponse{
		Mode:       q.Mode,
		Category:   q.Category,
		Search:     q.Search,
		Cards:      view.Cards(res.Channels, snap),
		Categories: res.Categories,
		Empty:      res.Empty,
		Revision:   snap.Revision(),
	}
	if key := s.emptyMessage(res.Empty); key != "" {
		resp.Message = i18n.Text(languageFor(r), key)
	}
	writeJSON(w, http.StatusOK, resp)
}

// emptyMessage picks the message for an empty result. A list that never
// loaded because the fetch failed reads as a failure, not as loading.
func (s *Server) emptyMessage(e view.EmptyState) string {
	if e == view.EmptyNotLoaded {
		if key := s.app.State().MessageKey; key != "" {
			return key
		}
	}
	return emptyMessageKey(e)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	res := s.app.View(view.Query{Mode: view.ModeCategories, Search: r.URL.Query().Get("q")})
	cats := res.Categories
	if cats == nil {
		cats = []view.CategoryCount{}
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleFavorites(w http.ResponseWriter, _ *http.Request) {
	snap := s.app.Store().Snapshot()
	res := view.Filter(snap, view.Query{Mode: view.ModeFavorites})
	urls := s.app.Store().Favorites()
	if urls == nil {
		urls = []string{}
	}
	writeJSON(w, http.StatusOK, FavoritesResponse{
		StreamURLs: urls,
		Cards:      view.Cards(res.Channels, snap),
	})
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var req streamRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	streamURL := strings.TrimSpace(req.StreamURL)
	if streamURL == "" {
		writeError(w, http.StatusBadRequest, "missing_stream_url", "streamUrl is required")
		return
	}

	fav, err := s.app.ToggleFavorite(r.Context(), streamURL)
	resp := ToggleResponse{StreamURL: streamURL, Favorite: fav}
	if err != nil {
		if !errors.Is(err, channels.ErrPersistence) {
			writeError(w, http.StatusInternalServerError, "toggle_failed", err.Error())
			return
		}
		resp.Warning = i18n.Text(languageFor(r), i18n.KeyNotPersisted)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSources(w http.ResponseWriter, _ *http.Request) {
	index, _ := s.app.CurrentSource()
	writeJSON(w, http.StatusOK, SourcesResponse{Sources: s.app.Sources(), Index: index})
}

func (s *Server) handleNextSource(w http.ResponseWriter, r *http.Request) {
	s.runLoad(w, r, s.app.NextSource)
}

func (s *Server) handleSelectSource(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_index", "source index must be an integer")
		return
	}
	s.runLoad(w, r, func(ctx context.Context) error {
		return s.app.LoadSource(ctx, index)
	})
}

// runLoad performs a load on behalf of a request. The load outlives a client
// disconnect; only a newer load cancels it.
func (s *Server) runLoad(w http.ResponseWriter, r *http.Request, load func(context.Context) error) {
	err := load(context.WithoutCancel(r.Context()))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, s.statusResponse(r))
	case errors.Is(err, browser.ErrSuperseded):
		writeJSON(w, http.StatusAccepted, s.statusResponse(r))
	case errors.Is(err, browser.ErrSourceIndex):
		writeError(w, http.StatusNotFound, "unknown_source", err.Error())
	case errors.Is(err, browser.ErrNoSources):
		writeError(w, http.StatusServiceUnavailable, "no_sources", err.Error())
	case errors.Is(err, fetch.ErrFetch):
		logger := tvlog.WithContext(r.Context(), s.logger)
		logger.Debug().Err(err).Str(tvlog.FieldEvent, "api.load_failed").Msg("source load failed")
		writeJSON(w, http.StatusBadGateway, s.statusResponse(r))
	default:
		writeError(w, http.StatusInternalServerError, "load_failed", err.Error())
	}
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req streamRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	setup, err := s.app.Play(r.Context(), req.StreamURL)
	if err != nil {
		if errors.Is(err, playback.ErrInvalidStream) {
			writeError(w, http.StatusBadRequest, "invalid_stream", i18n.Text(languageFor(r), i18n.KeyInvalidStream))
			return
		}
		writeError(w, http.StatusInternalServerError, "play_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, setup)
}

// handlePlaylist re-serializes the loaded list as an extended M3U playlist.
func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	snap := s.app.Store().Snapshot()
	if !snap.Loaded() {
		writeError(w, http.StatusServiceUnavailable, "not_loaded", i18n.Text(languageFor(r), i18n.KeyLoading))
		return
	}
	w.Header().Set("Content-Type", "audio/x-mpegurl")
	w.Header().Set("Content-Disposition", `inline; filename="playlist.m3u"`)
	w.Header().Set("Last-Modified", s.app.State().UpdatedAt.UTC().Format(http.TimeFormat))
	if err := playlist.WriteM3U(w, snap.Channels()); err != nil {
		logger := tvlog.WithContext(r.Context(), s.logger)
		logger.Warn().Err(err).Str(tvlog.FieldEvent, "api.playlist_write_failed").Msg("failed to write playlist")
	}
}
