// SPDX-License-Identifier: MIT

// Package metrics exposes the Prometheus collectors tvgrid records into.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Playlist metrics
	playlistFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tvgrid_playlist_fetch_total",
		Help: "Playlist fetches by outcome",
	}, []string{"outcome"}) // outcome=success|failure|stale|canceled

	playlistFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tvgrid_playlist_fetch_duration_seconds",
		Help:    "Time spent fetching and parsing a playlist",
		Buckets: prometheus.DefBuckets,
	})

	playlistChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tvgrid_playlist_channels",
		Help: "Number of channels in the currently loaded playlist",
	})

	playlistCategories = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tvgrid_playlist_categories",
		Help: "Number of distinct categories in the currently loaded playlist",
	})

	playlistEntriesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tvgrid_playlist_entries_dropped_total",
		Help: "Playlist entries dropped while parsing",
	}, []string{"reason"}) // reason=incomplete|orphan_url

	sourceIndex = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tvgrid_source_index",
		Help: "Index of the active playlist source",
	})

	// Favorites metrics
	favoriteTogglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tvgrid_favorite_toggles_total",
		Help: "Favorite toggles by resulting state",
	}, []string{"state"}) // state=added|removed

	favoritesPersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tvgrid_favorites_persist_failures_total",
		Help: "Favorites writes that did not reach durable storage",
	})

	favoritesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tvgrid_favorites",
		Help: "Number of favorited stream URLs",
	})

	// Playback metrics
	playbackDispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tvgrid_playback_dispatch_total",
		Help: "Playback dispatches by outcome",
	}, []string{"outcome"}) // outcome=success|rejected

	// Operational metrics
	configReloadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tvgrid_config_reload_total",
		Help: "Configuration reloads by outcome",
	}, []string{"outcome"})
)

// RecordPlaylistFetch records one playlist fetch outcome and its duration.
func RecordPlaylistFetch(outcome string, seconds float64) {
	playlistFetchTotal.WithLabelValues(outcome).Inc()
	if seconds >= 0 {
		playlistFetchDuration.Observe(seconds)
	}
}

// RecordPlaylistLoaded updates the gauges describing the loaded playlist.
func RecordPlaylistLoaded(channels, categories, index int) {
	playlistChannels.Set(float64(channels))
	playlistCategories.Set(float64(categories))
	sourceIndex.Set(float64(index))
}

// RecordParseDrops counts entries the parser discarded.
func RecordParseDrops(incomplete, orphans int) {
	if incomplete > 0 {
		playlistEntriesDropped.WithLabelValues("incomplete").Add(float64(incomplete))
	}
	if orphans > 0 {
		playlistEntriesDropped.WithLabelValues("orphan_url").Add(float64(orphans))
	}
}

// RecordFavoriteToggle records a favorite toggle and the resulting set size.
func RecordFavoriteToggle(added bool, total int) {
	state := "removed"
	if added {
		state = "added"
	}
	favoriteTogglesTotal.WithLabelValues(state).Inc()
	favoritesTotal.Set(float64(total))
}

// RecordFavoritesLoaded sets the favorites gauge after startup.
func RecordFavoritesLoaded(total int) {
	favoritesTotal.Set(float64(total))
}

// IncFavoritesPersistFailure counts a failed favorites write.
func IncFavoritesPersistFailure() {
	favoritesPersistFailures.Inc()
}

// RecordPlaybackDispatch records a playback dispatch outcome.
func RecordPlaybackDispatch(ok bool) {
	outcome := "rejected"
	if ok {
		outcome = "success"
	}
	playbackDispatchTotal.WithLabelValues(outcome).Inc()
}

// RecordConfigReload records a configuration reload outcome.
func RecordConfigReload(ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	configReloadTotal.WithLabelValues(outcome).Inc()
}
