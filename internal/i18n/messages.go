// SPDX-License-Identifier: MIT

// Package i18n holds the user-facing strings of the grid in Bengali and English.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. The English text doubles as the key.
const (
	KeyLoadFailed    = "Error loading channels. Please try again later."
	KeyNoFavorites   = "No favorite channels yet."
	KeyNoChannels    = "No channels."
	KeyNoMatches     = "No channels match your search."
	KeyLoading       = "Loading channels…"
	KeyChannelCount  = "%d Channels"
	KeyInvalidStream = "This channel cannot be played."
	KeyNotPersisted  = "Favorite saved for this session only."
	KeyTabAll        = "All Channels"
	KeyTabCategories = "Categories"
	KeyTabFavorites  = "Favorites"
	KeySearchHint    = "Search channels…"
	KeyServer        = "Server %d"
	KeyNextServer    = "Change server"
	KeyAllCategories = "All categories"
)

// Default is the language used when the request expresses no usable preference.
var Default = language.Bengali

var (
	cat     = catalog.NewBuilder(catalog.Fallback(Default))
	matcher = language.NewMatcher([]language.Tag{language.Bengali, language.English})
)

func init() {
	set := func(tag language.Tag, pairs map[string]string) {
		for key, msg := range pairs {
			if err := cat.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}

	set(language.English, map[string]string{
		KeyLoadFailed:    KeyLoadFailed,
		KeyNoFavorites:   KeyNoFavorites,
		KeyNoChannels:    KeyNoChannels,
		KeyNoMatches:     KeyNoMatches,
		KeyLoading:       KeyLoading,
		KeyChannelCount:  KeyChannelCount,
		KeyInvalidStream: KeyInvalidStream,
		KeyNotPersisted:  KeyNotPersisted,
		KeyTabAll:        KeyTabAll,
		KeyTabCategories: KeyTabCategories,
		KeyTabFavorites:  KeyTabFavorites,
		KeySearchHint:    KeySearchHint,
		KeyServer:        KeyServer,
		KeyNextServer:    KeyNextServer,
		KeyAllCategories: KeyAllCategories,
	})

	set(language.Bengali, map[string]string{
		KeyLoadFailed:    "চ্যানেল লোড করার সময় ত্রুটি হয়েছে৷ পরে আবার চেষ্টা করুন।",
		KeyNoFavorites:   "এখনো কোনো প্রিয় চ্যানেল নেই।",
		KeyNoChannels:    "কোনো চ্যানেল নেই।",
		KeyNoMatches:     "আপনার অনুসন্ধানের সাথে কোনো চ্যানেল মেলেনি।",
		KeyLoading:       "চ্যানেল লোড হচ্ছে…",
		KeyChannelCount:  "%d Channels",
		KeyInvalidStream: "এই চ্যানেলটি চালানো যাচ্ছে না।",
		KeyNotPersisted:  "প্রিয় চ্যানেলটি শুধু এই সেশনের জন্য সংরক্ষিত হয়েছে।",
		KeyTabAll:        "সব চ্যানেল",
		KeyTabCategories: "বিভাগ",
		KeyTabFavorites:  "প্রিয়",
		KeySearchHint:    "চ্যানেল খুঁজুন…",
		KeyServer:        "সার্ভার %d",
		KeyNextServer:    "সার্ভার পরিবর্তন",
		KeyAllCategories: "সব বিভাগ",
	})
}

// Match picks the supported language for an Accept-Language header value.
// An empty or unparseable header yields Default.
func Match(acceptLanguage string) language.Tag {
	if acceptLanguage == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	return []language.Tag{language.Bengali, language.English}[idx]
}

// Printer returns a printer for tag backed by the grid's catalog.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(cat))
}

// Text formats key for tag.
func Text(tag language.Tag, key string, args ...any) string {
	return Printer(tag).Sprintf(key, args...)
}
