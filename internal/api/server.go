// Package api serves a loaded dataset over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"sjsage522/propertyscraper/internal/export"
	"sjsage522/propertyscraper/logger"
)

type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
}

// NewServer creates a server on addr exposing data
func NewServer(addr string, data *export.Dataset) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(NewHandler(data)),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger.ForAPI(),
	}
}

// NewRouter mounts the handler routes
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, LoggerMiddleware(logger.ForAPI()), middleware.Recoverer)

	r.Get("/health", h.Health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/properties", h.Properties)
		r.Get("/report", h.Report)
		r.Get("/summary", h.Summary)
	})
	return r
}

func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("starting REST server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("stopping REST server")
	return s.httpServer.Shutdown(ctx)
}
