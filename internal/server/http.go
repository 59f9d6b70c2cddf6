package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/renix-codex/postboard/internal/api"
	"github.com/renix-codex/postboard/internal/logger"
	"github.com/renix-codex/postboard/internal/metrics"
)

type Opts struct {
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// RateLimit is the number of page requests allowed per client per
	// minute. Zero disables limiting.
	RateLimit int
	RateBurst int

	// SecretToken, when set, is required as a bearer token on the page
	// and diagnostics routes.
	SecretToken string
}

type Server struct {
	api  *api.API
	opts Opts
	mux  chi.Router
}

func New(a *api.API, opts Opts) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = logger.Void()
	}
	s := &Server{api: a, opts: opts, mux: chi.NewRouter()}
	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe blocks until ctx is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return logger.With(ctx, s.opts.Logger) },
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
