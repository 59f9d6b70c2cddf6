package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/renix-codex/postboard/internal/diag"
	"github.com/renix-codex/postboard/internal/fetch"
	"github.com/renix-codex/postboard/internal/logger"
	"github.com/renix-codex/postboard/internal/metrics"
	"github.com/renix-codex/postboard/internal/models"
	"github.com/renix-codex/postboard/internal/view"
)

// ErrNoJournal is returned when failures are queried without a journal.
var ErrNoJournal = errors.New("no failure journal configured")

// FailureLog is the read side of the failure journal.
type FailureLog interface {
	Recent(ctx context.Context, limit int) ([]models.FetchFailure, error)
}

type Opts struct {
	Fetcher fetch.Fetcher
	Sink    diag.Sink
	// Failures is optional.
	Failures FailureLog
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Source   string
	Limit    int
	Now      func() time.Time
}

// API is the application-facing facade. All callers (HTTP, CLI) go through this.
type API struct {
	opts      Opts
	startedAt time.Time
}

func New(opts Opts) *API {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sink == nil {
		l := opts.Logger
		if l == nil {
			l = logger.Void()
		}
		opts.Sink = diag.NewLogSink(l)
	}
	return &API{opts: opts, startedAt: opts.Now()}
}

// Mount creates and activates a post list view. The caller owns the view
// and must tear it down. Without a configured logger the one carried by
// ctx is used.
func (a *API) Mount(ctx context.Context) *view.View {
	l := a.opts.Logger
	if l == nil {
		l = logger.From(ctx)
	}
	v := view.New(a.opts.Fetcher, a.opts.Sink,
		view.WithLimit(a.opts.Limit),
		view.WithLogger(l),
		view.WithMetrics(a.opts.Metrics),
		view.WithSource(a.opts.Source),
		view.WithClock(a.opts.Now),
	)
	v.Activate(ctx)
	return v
}

// RenderPage mounts a view, waits for its fetch to settle and writes the
// projection the view computed for its last state. If ctx ends first the
// view is torn down and its empty projection is written.
func (a *API) RenderPage(ctx context.Context, w io.Writer) error {
	v := a.Mount(ctx)
	defer v.Teardown()

	select {
	case <-v.Done():
	case <-ctx.Done():
		v.Teardown()
	}
	if snap := v.Snapshot(); snap != nil {
		_, err := w.Write(snap)
		return err
	}
	return v.Render(w)
}

// RecentFailures returns the newest journaled fetch failures.
func (a *API) RecentFailures(ctx context.Context, limit int) ([]models.FetchFailure, error) {
	if a.opts.Failures == nil {
		return nil, ErrNoJournal
	}
	return a.opts.Failures.Recent(ctx, limit)
}

// Health responds with the health status of the app.
func (a *API) Health() map[string]any {
	return map[string]any{
		"app":       "postboard",
		"startedAt": a.startedAt.UTC().Format(time.RFC3339),
		"source":    a.opts.Source,
		"status":    "ok",
	}
}
