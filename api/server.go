package api

import (
	"net/http"
	"time"

	"aniverse/catalog"
	"aniverse/favorites"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server exposes the favorites store and the catalog to the presentation layer
type Server struct {
	store   *favorites.Store
	catalog catalog.Source
	logger  *zap.Logger
}

// NewServer creates the HTTP server. src may be nil when no catalog is configured.
func NewServer(store *favorites.Store, src catalog.Source, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:   store,
		catalog: src,
		logger:  logger,
	}
}

// Router wires the routes behind the standard middleware stack
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/health", s.handleHealth)

	r.Route("/favorites", func(r chi.Router) {
		r.Get("/", s.handleListFavorites)
		r.Post("/", s.handleAddFavorite)
		r.Get("/top", s.handleTopFavorites)
		r.Get("/genres", s.handleFavoriteGenres)
		r.Get("/{id}", s.handleIsFavorite)
		r.Delete("/{id}", s.handleRemoveFavorite)
	})

	r.Get("/browse", s.handleBrowse)
	r.Get("/browse/recommended", s.handleRecommended)
	r.Get("/genres", s.handleCatalogGenres)
	r.Get("/titles/{id}/watch", s.handleWatch)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "aniverse",
	})
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
