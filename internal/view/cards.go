// SPDX-License-Identifier: MIT

package view

import "github.com/ManuGH/tvgrid/internal/playlist"

// Card is the display descriptor for one channel tile.
type Card struct {
	Title     string `json:"title"`
	Category  string `json:"category"`
	LogoURL   string `json:"logoUrl"`
	StreamURL string `json:"streamUrl"`
	Favorite  bool   `json:"favorite"`
}

// Cards builds card descriptors carrying the per-channel favorite state.
func Cards(list []playlist.Channel, favs interface{ IsFavorite(string) bool }) []Card {
	out := make([]Card, 0, len(list))
	for _, ch := range list {
		out = append(out, Card{
			Title:     ch.Title,
			Category:  ch.Category,
			LogoURL:   ch.LogoURL,
			StreamURL: ch.StreamURL,
			Favorite:  favs != nil && favs.IsFavorite(ch.StreamURL),
		})
	}
	return out
}
