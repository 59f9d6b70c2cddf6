package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) routes() error {
	s.mux.Use(middleware.RequestID)
	s.mux.Use(middleware.Recoverer)
	s.mux.Use(s.requestLogger)

	s.mux.Get("/healthz", s.handleHealth)
	s.mux.Get("/health", s.handleHealth)

	if s.opts.Metrics != nil {
		s.mux.Method(http.MethodGet, "/metrics", s.opts.Metrics.Handler())
	}

	limit, err := s.rateLimiter()
	if err != nil {
		return fmt.Errorf("configuring rate limiter: %w", err)
	}

	s.mux.Group(func(r chi.Router) {
		r.Use(s.bearerAuth)
		r.With(limit).Get("/", s.handlePage)
		r.Get("/diagnostics", s.handleDiagnostics)
	})
	return nil
}
