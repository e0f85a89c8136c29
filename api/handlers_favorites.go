package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"aniverse/catalog"
	"aniverse/favorites"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxTitleBytes caps the body of a single title posted to the list
const maxTitleBytes = 1 << 20

type listResponse struct {
	Items []catalog.Title `json:"items"`
	Count int             `json:"count"`
}

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	items := catalog.Search(s.store.List(), catalog.Query{
		Text:  r.URL.Query().Get("q"),
		Genre: r.URL.Query().Get("genre"),
	})
	writeJSON(w, http.StatusOK, listResponse{Items: items, Count: len(items)})
}

func (s *Server) handleTopFavorites(w http.ResponseWriter, r *http.Request) {
	items := catalog.TopRated(s.store.List(), queryLimit(r, 10, 50))
	writeJSON(w, http.StatusOK, listResponse{Items: items, Count: len(items)})
}

func (s *Server) handleFavoriteGenres(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"genres": catalog.Genres(s.store.List()),
	})
}

func (s *Server) handleIsFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       id,
		"favorite": s.store.Contains(id),
	})
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTitleBytes)

	var title catalog.Title
	if err := json.NewDecoder(r.Body).Decode(&title); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	title.ID = strings.TrimSpace(title.ID)

	added, err := s.store.Add(r.Context(), title)
	if errors.Is(err, favorites.ErrMissingID) {
		writeError(w, http.StatusBadRequest, "imdb_id is required")
		return
	}
	if err != nil {
		s.logger.Warn("Add to favorites failed", zap.String("id", title.ID), zap.Error(err))
		writeStorageError(w, err)
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{
		"id":    title.ID,
		"added": added,
		"count": s.store.Len(),
	})
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	removed, err := s.store.Remove(r.Context(), id)
	if err != nil {
		s.logger.Warn("Remove from favorites failed", zap.String("id", id), zap.Error(err))
		writeStorageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":      id,
		"removed": removed,
		"count":   s.store.Len(),
	})
}
