// SPDX-License-Identifier: MIT

// Package view projects the channel store into what the grid displays.
package view

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ManuGH/tvgrid/internal/playlist"
	"golang.org/x/text/cases"
)

// Mode selects which channels a view shows.
type Mode string

const (
	ModeAll        Mode = "all"
	ModeCategories Mode = "categories" // category listing, or one category when Query.Category is set
	ModeFavorites  Mode = "favorites"
)

// ParseMode accepts the tab names used by the UI and API.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ModeAll, nil
	case "categories", "category", "by-category":
		return ModeCategories, nil
	case "favorites", "favourites":
		return ModeFavorites, nil
	default:
		return "", fmt.Errorf("unknown view mode %q", s)
	}
}

// EmptyState explains why a result has no rows.
type EmptyState string

const (
	EmptyNone        EmptyState = ""
	EmptyNotLoaded   EmptyState = "not_loaded"
	EmptyNoChannels  EmptyState = "no_channels"
	EmptyNoFavorites EmptyState = "no_favorites"
	EmptyNoMatches   EmptyState = "no_matches"
)

// Source is what filtering reads from; channels.Snapshot implements it.
type Source interface {
	Channels() []playlist.Channel
	IsFavorite(streamURL string) bool
	Loaded() bool
}

// Query is the active tab, selected category and search term.
type Query struct {
	Mode     Mode
	Category string
	Search   string
}

// Listing reports whether q shows the category list instead of channels.
func (q Query) Listing() bool {
	return q.Mode == ModeCategories && q.Category == ""
}

// CategoryCount is one row of the category listing.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Result is the ordered subsequence of channels to display, or the category
// listing when the query asks for it.
type Result struct {
	Channels   []playlist.Channel
	Categories []CategoryCount
	Empty      EmptyState
}

// Filter applies q to src. The base set comes from the mode; the search
// term narrows it further and never changes order.
func Filter(src Source, q Query) Result {
	if !src.Loaded() {
		return Result{Channels: []playlist.Channel{}, Empty: EmptyNotLoaded}
	}
	all := src.Channels()
	term := normalize(q.Search)

	if q.Listing() {
		counts := Categories(all)
		if term != "" {
			kept := counts[:0:0]
			for _, c := range counts {
				if strings.Contains(fold(c.Category), term) {
					kept = append(kept, c)
				}
			}
			counts = kept
		}
		res := Result{Channels: []playlist.Channel{}, Categories: counts}
		if len(counts) == 0 {
			res.Empty = EmptyNoChannels
			if term != "" && len(all) > 0 {
				res.Empty = EmptyNoMatches
			}
		}
		return res
	}

	base := make([]playlist.Channel, 0, len(all))
	for _, ch := range all {
		switch q.Mode {
		case ModeCategories:
			if ch.Category != q.Category {
				continue
			}
		case ModeFavorites:
			if !src.IsFavorite(ch.StreamURL) {
				continue
			}
		}
		base = append(base, ch)
	}

	if len(base) == 0 {
		if q.Mode == ModeFavorites {
			return Result{Channels: base, Empty: EmptyNoFavorites}
		}
		return Result{Channels: base, Empty: EmptyNoChannels}
	}

	out := Search(base, term)
	if len(out) == 0 {
		return Result{Channels: out, Empty: EmptyNoMatches}
	}
	return Result{Channels: out}
}

// Search keeps channels whose title or category contains term, ignoring
// case. An empty term keeps everything.
func Search(list []playlist.Channel, term string) []playlist.Channel {
	term = normalize(term)
	if term == "" {
		return list
	}
	out := make([]playlist.Channel, 0, len(list))
	for _, ch := range list {
		if strings.Contains(fold(ch.Title), term) || strings.Contains(fold(ch.Category), term) {
			out = append(out, ch)
		}
	}
	return out
}

// Categories counts channels per category, sorted by category name.
func Categories(list []playlist.Channel) []CategoryCount {
	counts := make(map[string]int)
	for _, ch := range list {
		counts[ch.Category]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, CategoryCount{Category: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

func normalize(term string) string {
	return fold(strings.TrimSpace(term))
}

// fold applies Unicode case folding; a new Caser per call because Casers
// are stateful and not safe for concurrent use.
func fold(s string) string {
	return cases.Fold().String(s)
}
