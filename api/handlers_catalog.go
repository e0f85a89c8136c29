package api

import (
	"net/http"

	"aniverse/catalog"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type browseItem struct {
	catalog.Title
	InList bool `json:"in_list"`
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog is not configured")
		return
	}

	titles, err := s.catalog.ListTitles(r.Context())
	if err != nil {
		s.logger.Warn("Catalog listing failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to query catalog")
		return
	}

	titles = catalog.Search(titles, catalog.Query{
		Text:  r.URL.Query().Get("q"),
		Genre: r.URL.Query().Get("genre"),
	})

	s.writeBrowseItems(w, titles)
}

// handleRecommended serves the recommended carousel, annotated like /browse
func (s *Server) handleRecommended(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog is not configured")
		return
	}

	titles, err := s.catalog.Recommended(r.Context())
	if err != nil {
		s.logger.Warn("Catalog recommendations failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to query catalog")
		return
	}

	s.writeBrowseItems(w, titles)
}

func (s *Server) handleCatalogGenres(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog is not configured")
		return
	}

	genres, err := s.catalog.ListGenres(r.Context())
	if err != nil {
		s.logger.Warn("Catalog genre listing failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to query catalog")
		return
	}
	if genres == nil {
		genres = []catalog.Genre{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"genres": genres,
		"count":  len(genres),
	})
}

func (s *Server) writeBrowseItems(w http.ResponseWriter, titles []catalog.Title) {
	items := make([]browseItem, 0, len(titles))
	for _, t := range titles {
		items = append(items, browseItem{Title: t, InList: s.store.Contains(t.ID)})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}

// handleWatch resolves the trailer for a title, looking in the list first and then the catalog
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	title, ok := s.store.Get(id)
	if !ok && s.catalog != nil {
		titles, err := s.catalog.ListTitles(r.Context())
		if err != nil {
			s.logger.Warn("Catalog listing failed", zap.Error(err))
			writeError(w, http.StatusBadGateway, "failed to query catalog")
			return
		}
		for _, t := range titles {
			if t.ID == id {
				title, ok = t, true
				break
			}
		}
	}

	if !ok {
		writeError(w, http.StatusNotFound, "title not found")
		return
	}
	if !title.HasVideo() {
		writeError(w, http.StatusNotFound, "video not available")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":         title.ID,
		"title":      title.Title,
		"youtube_id": title.YouTubeID,
	})
}
