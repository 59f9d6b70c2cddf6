package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/renix-codex/postboard/internal/models"
)

// Fetcher reads the posts collection from the upstream source.
type Fetcher interface {
	Fetch(ctx context.Context) ([]models.Post, error)
}

// FetchError is the single failure kind of a fetch. Connection errors,
// non-2xx responses and undecodable bodies are all reported as one.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching posts from %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type HTTPFetcher struct {
	Client    *http.Client
	SourceURL string
}

// NewHTTPFetcher returns a fetcher bound to sourceURL. A zero timeout
// leaves the request bounded only by its context.
func NewHTTPFetcher(sourceURL string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		SourceURL: sourceURL,
		Client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context) ([]models.Post, error) {
	posts, err := f.fetch(ctx)
	if err != nil {
		return nil, &FetchError{URL: f.SourceURL, Err: err}
	}
	return posts, nil
}

func (f *HTTPFetcher) fetch(ctx context.Context) ([]models.Post, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.SourceURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("upstream returned %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var posts []models.Post
	if err := json.Unmarshal(body, &posts); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	// a JSON null decodes without error; only an array is a valid body
	if posts == nil {
		return nil, errors.New("decoding response: expected a JSON array")
	}
	return posts, nil
}
