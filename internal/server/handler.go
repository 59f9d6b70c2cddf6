package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/renix-codex/postboard/internal/api"
	"github.com/renix-codex/postboard/internal/logger"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(s.api.Health())
}

// handlePage mounts one post list per request. The request context is the
// mount's lifetime: a client that goes away tears the view down.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ctx := logger.With(r.Context(), s.opts.Logger)

	buf := &bytes.Buffer{}
	if err := s.api.RenderPage(ctx, buf); err != nil {
		s.opts.Logger.ErrorContext(ctx, "error rendering page", "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	items, err := s.api.RecentFailures(r.Context(), limit)
	if errors.Is(err, api.ErrNoJournal) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "query error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"items": items,
	})
}
