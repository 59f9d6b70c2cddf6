package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/renix-codex/postboard/internal/api"
	"github.com/renix-codex/postboard/internal/metrics"
	"github.com/renix-codex/postboard/internal/models"
)

type fakeFetcher struct {
	posts []models.Post
	err   error
}

func (f fakeFetcher) Fetch(context.Context) ([]models.Post, error) { return f.posts, f.err }

type fakeFailures struct{ err error }

func (f fakeFailures) Recent(_ context.Context, limit int) ([]models.FetchFailure, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []models.FetchFailure{{MountID: "m-1", Error: "down"}}[:min(limit, 1)], nil
}

func newServer(t *testing.T, o api.Opts, so Opts) *Server {
	t.Helper()
	s, err := New(api.New(o), so)
	require.NoError(t, err)
	return s
}

func get(s *Server, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestServer_Page(t *testing.T) {
	s := newServer(t, api.Opts{Fetcher: fakeFetcher{posts: []models.Post{{ID: 1, Title: "T1", Body: "B1"}}}}, Opts{})

	rec := get(s, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), `data-key="1"`)
	require.Contains(t, rec.Body.String(), `<div id="root">`)
}

func TestServer_PageFailureStillOK(t *testing.T) {
	s := newServer(t, api.Opts{Fetcher: fakeFetcher{err: errors.New("down")}}, Opts{})

	rec := get(s, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "data-key")
}

func TestServer_Health(t *testing.T) {
	s := newServer(t, api.Opts{Fetcher: fakeFetcher{}}, Opts{})

	for _, path := range []string{"/healthz", "/health"} {
		rec := get(s, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "ok", body["status"])
	}
}

func TestServer_NotFound(t *testing.T) {
	s := newServer(t, api.Opts{Fetcher: fakeFetcher{}}, Opts{})
	require.Equal(t, http.StatusNotFound, get(s, "/nope", nil).Code)
}

func TestServer_Metrics(t *testing.T) {
	m := metrics.New()
	s := newServer(t, api.Opts{Fetcher: fakeFetcher{posts: []models.Post{{ID: 1}}}, Metrics: m}, Opts{Metrics: m})

	require.Equal(t, http.StatusOK, get(s, "/", nil).Code)

	rec := get(s, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "postboard_mounts_total 1")
	require.Contains(t, rec.Body.String(), `postboard_fetch_total{outcome="ok"} 1`)
}

func TestServer_BearerAuth(t *testing.T) {
	s := newServer(t, api.Opts{Fetcher: fakeFetcher{}}, Opts{SecretToken: "s3cret"})

	require.Equal(t, http.StatusUnauthorized, get(s, "/", nil).Code)
	require.Equal(t, http.StatusUnauthorized, get(s, "/", http.Header{"Authorization": {"Basic s3cret"}}).Code)
	require.Equal(t, http.StatusUnauthorized, get(s, "/", http.Header{"Authorization": {"Bearer wrong"}}).Code)
	require.Equal(t, http.StatusOK, get(s, "/", http.Header{"Authorization": {"Bearer s3cret"}}).Code)

	// health stays open
	require.Equal(t, http.StatusOK, get(s, "/healthz", nil).Code)
}

func TestServer_RateLimit(t *testing.T) {
	s := newServer(t, api.Opts{Fetcher: fakeFetcher{}}, Opts{RateLimit: 1})

	require.Equal(t, http.StatusOK, get(s, "/", nil).Code)
	require.Equal(t, http.StatusTooManyRequests, get(s, "/", nil).Code)
	// other routes are not limited
	require.Equal(t, http.StatusOK, get(s, "/healthz", nil).Code)
}

func TestServer_Diagnostics(t *testing.T) {
	t.Run("no journal", func(t *testing.T) {
		s := newServer(t, api.Opts{Fetcher: fakeFetcher{}}, Opts{})
		require.Equal(t, http.StatusNotFound, get(s, "/diagnostics", nil).Code)
	})

	t.Run("bad limit", func(t *testing.T) {
		s := newServer(t, api.Opts{Fetcher: fakeFetcher{}, Failures: fakeFailures{}}, Opts{})
		require.Equal(t, http.StatusBadRequest, get(s, "/diagnostics?limit=x", nil).Code)
	})

	t.Run("query error", func(t *testing.T) {
		s := newServer(t, api.Opts{Fetcher: fakeFetcher{}, Failures: fakeFailures{err: errors.New("db read failed")}}, Opts{})
		rec := get(s, "/diagnostics", nil)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.True(t, strings.Contains(rec.Body.String(), "db read failed"))
	})

	t.Run("ok", func(t *testing.T) {
		s := newServer(t, api.Opts{Fetcher: fakeFetcher{}, Failures: fakeFailures{}}, Opts{})
		rec := get(s, "/diagnostics?limit=5", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Items []models.FetchFailure `json:"items"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Items, 1)
		require.Equal(t, "m-1", body.Items[0].MountID)
	})
}
