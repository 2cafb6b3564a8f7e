// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"github.com/ManuGH/tvgrid/internal/i18n"
	"github.com/ManuGH/tvgrid/internal/view"
)

const maxRequestBody = 64 << 10

// errorBody is the JSON shape of every non-2xx API response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	writeJSON(w, code, errorBody{Error: errCode, Message: message})
}

// decodeJSON reads a single JSON object from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("decode request body: trailing data")
	}
	return nil
}

// languageFor resolves the display language: an explicit ?lang= wins over
// Accept-Language.
func languageFor(r *http.Request) language.Tag {
	if lang := strings.TrimSpace(r.URL.Query().Get("lang")); lang != "" {
		return i18n.Match(lang)
	}
	return i18n.Match(r.Header.Get("Accept-Language"))
}

// queryFor parses the tab, category and search parameters shared by the
// grid page and the channels endpoint.
func queryFor(r *http.Request) (view.Query, error) {
	q := r.URL.Query()
	mode, err := view.ParseMode(q.Get("tab"))
	if err != nil {
		return view.Query{}, err
	}
	return view.Query{
		Mode:     mode,
		Category: q.Get("category"),
		Search:   q.Get("q"),
	}, nil
}

// emptyMessageKey maps an empty state to the message shown in its place.
func emptyMessageKey(e view.EmptyState) string {
	switch e {
	case view.EmptyNotLoaded:
		return i18n.KeyLoading
	case view.EmptyNoFavorites:
		return i18n.KeyNoFavorites
	case view.EmptyNoChannels:
		return i18n.KeyNoChannels
	case view.EmptyNoMatches:
		return i18n.KeyNoMatches
	default:
		return ""
	}
}
