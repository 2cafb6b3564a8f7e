// SPDX-License-Identifier: MIT

// Package channels holds the loaded channel list, its derived categories and
// the persisted favorites set.
package channels

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ManuGH/tvgrid/internal/favorites"
	xglog "github.com/ManuGH/tvgrid/internal/log"
	"github.com/ManuGH/tvgrid/internal/metrics"
	"github.com/ManuGH/tvgrid/internal/playlist"
	"github.com/rs/zerolog"
)

// ErrPersistence marks a favorites write that did not reach durable storage.
// The in-memory favorites state is still updated when it is returned.
var ErrPersistence = errors.New("favorites not persisted")

// PersistenceError wraps the backend failure behind ErrPersistence.
type PersistenceError struct {
	Backend string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s (backend %s): %v", ErrPersistence, e.Backend, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// Store owns the channel list and favorites. It is safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	channels   []playlist.Channel
	categories []string
	loaded     bool
	revision   uint64
	favorites  map[string]struct{}
	// readErr is the last failed backend read. While set, the in-memory
	// favorites may be missing stored entries and are never written back.
	readErr error

	// persistMu serializes favorites writes so the backend sees them in
	// the same order as the in-memory mutations.
	persistMu sync.Mutex
	backend   favorites.Backend
	logger    zerolog.Logger
}

// NewStore creates an empty store persisting favorites to backend.
func NewStore(backend favorites.Backend) *Store {
	if backend == nil {
		backend = favorites.NewMemoryBackend()
	}
	return &Store{
		favorites: make(map[string]struct{}),
		backend:   backend,
		logger:    xglog.WithComponent("channels"),
	}
}

// LoadFavorites reads the persisted favorites once at startup. A missing or
// unparseable value leaves the set empty; only the latter is logged. A read
// error leaves the store unsynced: toggles apply in memory only until a later
// read succeeds, so the stored set is never overwritten by a partial one.
func (s *Store) LoadFavorites(ctx context.Context) error {
	urls, err := s.readFavorites(ctx)
	if err != nil {
		s.mu.Lock()
		s.readErr = err
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.favorites = make(map[string]struct{}, len(urls))
	for _, u := range urls {
		s.favorites[u] = struct{}{}
	}
	s.readErr = nil
	s.mu.Unlock()

	metrics.RecordFavoritesLoaded(len(urls))
	s.logger.Info().
		Str(xglog.FieldEvent, "favorites.loaded").
		Str(xglog.FieldBackend, s.backend.Name()).
		Int(xglog.FieldFavorites, len(urls)).
		Msg("loaded favorites")
	return nil
}

func (s *Store) readFavorites(ctx context.Context) ([]string, error) {
	data, found, err := s.backend.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read favorites: %w", err)
	}
	if !found {
		return []string{}, nil
	}
	urls, err := favorites.Decode(data)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "favorites.corrupt").
			Str(xglog.FieldBackend, s.backend.Name()).
			Msg("stored favorites unreadable, starting with an empty set")
		return []string{}, nil
	}
	return urls, nil
}

// resync retries a failed startup read. Stored entries are merged into the
// session's set. Callers hold persistMu.
func (s *Store) resync(ctx context.Context) error {
	s.mu.RLock()
	pending := s.readErr != nil
	s.mu.RUnlock()
	if !pending {
		return nil
	}

	urls, err := s.readFavorites(ctx)
	if err != nil {
		s.mu.Lock()
		s.readErr = err
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	for _, u := range urls {
		s.favorites[u] = struct{}{}
	}
	s.readErr = nil
	s.mu.Unlock()

	s.logger.Info().
		Str(xglog.FieldEvent, "favorites.resynced").
		Str(xglog.FieldBackend, s.backend.Name()).
		Int(xglog.FieldFavorites, len(urls)).
		Msg("stored favorites read after earlier failure")
	return nil
}

// Load replaces the channel list and recomputes the category set. It returns
// the new revision.
func (s *Store) Load(list []playlist.Channel) uint64 {
	channels := make([]playlist.Channel, len(list))
	copy(channels, list)
	categories := deriveCategories(channels)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels = channels
	s.categories = categories
	s.loaded = true
	s.revision++
	return s.revision
}

func deriveCategories(list []playlist.Channel) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, ch := range list {
		if _, ok := seen[ch.Category]; ok {
			continue
		}
		seen[ch.Category] = struct{}{}
		out = append(out, ch.Category)
	}
	sort.Strings(out)
	return out
}

// Channels returns a copy of the current channel list.
func (s *Store) Channels() []playlist.Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]playlist.Channel, len(s.channels))
	copy(out, s.channels)
	return out
}

// Categories returns the sorted distinct categories of the current list.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.categories))
	copy(out, s.categories)
	return out
}

// Loaded reports whether any playlist has been loaded yet.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Revision returns the number of completed loads.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// IsFavorite reports whether streamURL is in the favorites set.
func (s *Store) IsFavorite(streamURL string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.favorites[streamURL]
	return ok
}

// Favorites returns the favorited stream URLs in sorted order.
func (s *Store) Favorites() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.favoriteListLocked()
}

func (s *Store) favoriteListLocked() []string {
	out := make([]string, 0, len(s.favorites))
	for u := range s.favorites {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// ToggleFavorite flips membership of streamURL, persists the set and returns
// the new membership. The URL need not belong to the loaded playlist. When
// the write fails the toggle still stands and a *PersistenceError is returned.
// If the stored set could not be read yet, it is read again first; when that
// fails too nothing is written.
func (s *Store) ToggleFavorite(ctx context.Context, streamURL string) (bool, error) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	_, was := s.favorites[streamURL]
	now := !was
	s.setFavoriteLocked(streamURL, now)
	s.mu.Unlock()

	var snapshot []string
	err := s.resync(ctx)
	if err == nil {
		s.mu.Lock()
		// The merged stored set must not undo the requested membership.
		s.setFavoriteLocked(streamURL, now)
		snapshot = s.favoriteListLocked()
		s.mu.Unlock()

		var data []byte
		data, err = favorites.Encode(snapshot)
		if err == nil {
			err = s.backend.Write(ctx, data)
		}
	} else {
		snapshot = s.Favorites()
	}

	metrics.RecordFavoriteToggle(now, len(snapshot))
	if err != nil {
		metrics.IncFavoritesPersistFailure()
		logger := xglog.WithContext(ctx, s.logger)
		logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "favorites.persist_failed").
			Str(xglog.FieldBackend, s.backend.Name()).
			Str(xglog.FieldStreamURL, streamURL).
			Msg("favorite toggled in memory but not persisted")
		return now, &PersistenceError{Backend: s.backend.Name(), Err: err}
	}
	return now, nil
}

func (s *Store) setFavoriteLocked(streamURL string, on bool) {
	if on {
		s.favorites[streamURL] = struct{}{}
	} else {
		delete(s.favorites, streamURL)
	}
}

// Snapshot is a consistent read-only view of the store at one instant.
type Snapshot struct {
	list       []playlist.Channel
	categories []string
	favorites  map[string]struct{}
	loaded     bool
	revision   uint64
}

// Snapshot captures the channel list and favorites together.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	favs := make(map[string]struct{}, len(s.favorites))
	for u := range s.favorites {
		favs[u] = struct{}{}
	}
	return Snapshot{
		list:       s.channels,
		categories: s.categories,
		favorites:  favs,
		loaded:     s.loaded,
		revision:   s.revision,
	}
}

// Channels returns the snapshot's channel list. Callers must not modify it.
func (s Snapshot) Channels() []playlist.Channel { return s.list }

// Categories returns the snapshot's sorted categories. Callers must not modify it.
func (s Snapshot) Categories() []string { return s.categories }

// IsFavorite reports whether streamURL was a favorite when the snapshot was taken.
func (s Snapshot) IsFavorite(streamURL string) bool {
	_, ok := s.favorites[streamURL]
	return ok
}

// Loaded reports whether a playlist had been loaded when the snapshot was taken.
func (s Snapshot) Loaded() bool { return s.loaded }

// Revision returns the load revision the snapshot reflects.
func (s Snapshot) Revision() uint64 { return s.revision }

// Backend returns the favorites backend in use.
func (s *Store) Backend() favorites.Backend { return s.backend }
