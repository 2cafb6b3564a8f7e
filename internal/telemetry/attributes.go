// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"

	// Playlist attributes
	PlaylistSourceKey      = "playlist.source"
	PlaylistSourceIndexKey = "playlist.source_index"
	PlaylistLoadIDKey      = "playlist.load_id"
	PlaylistChannelsKey    = "playlist.channels"
	PlaylistDroppedKey     = "playlist.dropped"

	// Favorites attributes
	FavoritesBackendKey = "favorites.backend"
	FavoritesStateKey   = "favorites.state"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// LoadAttributes describes a playlist load before it runs.
func LoadAttributes(source string, index int, loadID uint64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(PlaylistSourceKey, source),
		attribute.Int(PlaylistSourceIndexKey, index),
		attribute.Int64(PlaylistLoadIDKey, int64(loadID)), // #nosec G115 -- load ids stay far below MaxInt64
	}
}

// ParseAttributes describes the outcome of parsing a playlist.
func ParseAttributes(channels, dropped int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(PlaylistChannelsKey, channels),
		attribute.Int(PlaylistDroppedKey, dropped),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
