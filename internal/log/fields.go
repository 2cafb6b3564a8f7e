// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldLoadID    = "load_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Playlist fields
	FieldSource      = "source"
	FieldSourceIndex = "source_index"
	FieldChannels    = "channels"
	FieldCategories  = "categories"
	FieldDropped     = "dropped"
	FieldStreamURL   = "stream_url"

	// Favorites fields
	FieldBackend   = "backend"
	FieldFavorites = "favorites"

	// HTTP fields
	FieldMethod   = "method"
	FieldPath     = "path"
	FieldStatus   = "status"
	FieldDuration = "duration_ms"
	FieldRemote   = "remote_addr"
)
