// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"

	"golang.org/x/text/language"

	"github.com/ManuGH/tvgrid/internal/browser"
	"github.com/ManuGH/tvgrid/internal/i18n"
	tvlog "github.com/ManuGH/tvgrid/internal/log"
	"github.com/ManuGH/tvgrid/internal/playlist"
	"github.com/ManuGH/tvgrid/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

func parseTemplates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

type tabLink struct {
	Label  string
	Href   string
	Active bool
}

type categoryRow struct {
	Name  string
	Count string
	Href  string
}

// gridPage is the data behind templates/grid.html. Every string in it is
// untrusted playlist or request text and is escaped by html/template.
type gridPage struct {
	Lang            string
	Tabs            []tabLink
	Mode            view.Mode
	Category        string
	Search          string
	SearchHint      string
	AllLabel        string
	AllHref         string
	ServerLabel     string
	NextServer      string
	Status          browser.Status
	Message         string
	Cards           []view.Card
	Categories      []categoryRow
	PlaceholderLogo string
}

func gridHref(mode view.Mode, category, search string) string {
	v := url.Values{}
	if mode != view.ModeAll {
		v.Set("tab", string(mode))
	}
	if category != "" {
		v.Set("category", category)
	}
	if search != "" {
		v.Set("q", search)
	}
	if len(v) == 0 {
		return "/"
	}
	return "/?" + v.Encode()
}

func (s *Server) buildGridPage(tag language.Tag, q view.Query) gridPage {
	p := i18n.Printer(tag)
	snap := s.app.Store().Snapshot()
	res := view.Filter(snap, q)
	st := s.app.State()

	page := gridPage{
		Lang:            tag.String(),
		Mode:            q.Mode,
		Category:        q.Category,
		Search:          q.Search,
		SearchHint:      p.Sprintf(i18n.KeySearchHint),
		AllLabel:        p.Sprintf(i18n.KeyAllCategories),
		AllHref:         gridHref(view.ModeCategories, "", ""),
		ServerLabel:     p.Sprintf(i18n.KeyServer, st.SourceIndex+1),
		NextServer:      p.Sprintf(i18n.KeyNextServer),
		Status:          st.Status,
		Cards:           view.Cards(res.Channels, snap),
		PlaceholderLogo: playlist.PlaceholderLogo,
	}
	for _, t := range []struct {
		mode view.Mode
		key  string
	}{
		{view.ModeAll, i18n.KeyTabAll},
		{view.ModeCategories, i18n.KeyTabCategories},
		{view.ModeFavorites, i18n.KeyTabFavorites},
	} {
		page.Tabs = append(page.Tabs, tabLink{
			Label:  p.Sprintf(t.key),
			Href:   gridHref(t.mode, "", q.Search),
			Active: q.Mode == t.mode,
		})
	}
	for _, c := range res.Categories {
		page.Categories = append(page.Categories, categoryRow{
			Name:  c.Category,
			Count: p.Sprintf(i18n.KeyChannelCount, c.Count),
			Href:  gridHref(view.ModeCategories, c.Category, ""),
		})
	}
	if key := s.emptyMessage(res.Empty); key != "" {
		page.Message = p.Sprintf(key)
	}
	return page
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	q, err := queryFor(r)
	if err != nil {
		q = view.Query{Mode: view.ModeAll, Search: r.URL.Query().Get("q")}
	}
	page := s.buildGridPage(languageFor(r), q)

	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, "grid.html", page); err != nil {
		logger := tvlog.WithContext(r.Context(), s.logger)
		logger.Error().Err(err).Str(tvlog.FieldEvent, "api.render_failed").Msg("grid template execution failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		http.Error(w, "static assets not available", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.StripPrefix("/static/", http.FileServer(http.FS(sub))).ServeHTTP(w, r)
}
