// SPDX-License-Identifier: MIT

// Package playlist parses and writes extended M3U playlists.
package playlist

const (
	// DefaultCategory is used when an entry carries no group-title attribute.
	DefaultCategory = "Others"
	// PlaceholderLogo is used when an entry carries no tvg-logo attribute.
	PlaceholderLogo = "https://via.placeholder.com/250x250"
)

// Channel is one playable stream entry. StreamURL is its identity.
type Channel struct {
	Title     string `json:"title"`
	Category  string `json:"category"`
	LogoURL   string `json:"logoUrl"`
	StreamURL string `json:"streamUrl"`
}

// Stats describes what a parse pass kept and what it dropped.
type Stats struct {
	Entries int // channels emitted
	Dropped int // metadata lines never completed by a URL line, plus skipped oversized lines
	Orphans int // URL lines without a pending metadata line
}
