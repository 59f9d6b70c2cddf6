// Package view implements the post list: a view that fetches posts once
// when activated and renders the first few of them as HTML.
package view

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"github.com/renix-codex/postboard/internal/diag"
	"github.com/renix-codex/postboard/internal/fetch"
	"github.com/renix-codex/postboard/internal/logger"
	"github.com/renix-codex/postboard/internal/metrics"
	"github.com/renix-codex/postboard/internal/models"
	"github.com/renix-codex/postboard/internal/state"
)

const DefaultLimit = 10

type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseLoaded
	PhaseFailed
	PhaseDetached
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseLoaded:
		return "loaded"
	case PhaseFailed:
		return "failed"
	case PhaseDetached:
		return "detached"
	}
	return "unknown"
}

type Option func(v *View)

// WithLimit caps the number of posts held. Non-positive values are ignored.
func WithLimit(n int) Option {
	return func(v *View) {
		if n > 0 {
			v.limit = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(v *View) {
		v.log = l
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(v *View) {
		v.metrics = m
	}
}

func WithSource(source string) Option {
	return func(v *View) {
		v.source = source
	}
}

func WithClock(now func() time.Time) Option {
	return func(v *View) {
		v.now = now
	}
}

// View is one mount of the post list. It starts empty, fetches exactly
// once on Activate and never refetches.
type View struct {
	id      string
	fetcher fetch.Fetcher
	sink    diag.Sink
	limit   int
	source  string
	log     *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	posts *state.Cell[[]models.Post]

	// apply serialises the fetch continuation against Teardown so that a
	// cancelled task can never write state.
	apply sync.Mutex

	mu       sync.Mutex
	phase    Phase
	snapshot []byte
	cancel   context.CancelFunc

	activateOnce sync.Once
	teardownOnce sync.Once
	settleOnce   sync.Once
	done         chan struct{}
	wg           conc.WaitGroup
}

func New(f fetch.Fetcher, sink diag.Sink, opts ...Option) *View {
	v := &View{
		id:      uuid.NewString(),
		fetcher: f,
		sink:    sink,
		limit:   DefaultLimit,
		log:     logger.Void(),
		now:     time.Now,
		posts:   state.NewCell([]models.Post{}),
		done:    make(chan struct{}),
	}
	for _, apply := range opts {
		apply(v)
	}
	v.log = v.log.With("mount_id", v.id)
	if v.sink == nil {
		v.sink = diag.NewLogSink(v.log)
	}
	v.snapshot = v.project(nil)
	v.posts.Subscribe(v.onChange)
	return v
}

func (v *View) ID() string { return v.id }

// Activate schedules the single fetch task. Only the first call has any
// effect, and none at all once the view has been torn down. The task is
// cancelled when ctx is done or on Teardown.
func (v *View) Activate(ctx context.Context) {
	v.activateOnce.Do(func() {
		v.mu.Lock()
		if v.phase == PhaseDetached {
			v.mu.Unlock()
			return
		}
		ctx, v.cancel = context.WithCancel(ctx)
		v.mu.Unlock()

		v.metrics.Mounted()
		v.log.DebugContext(ctx, "view activated")
		v.wg.Go(func() {
			defer v.settle()
			v.run(ctx)
		})
	})
}

func (v *View) run(ctx context.Context) {
	posts, err := v.fetcher.Fetch(ctx)

	v.apply.Lock()
	defer v.apply.Unlock()

	if ctx.Err() != nil {
		v.log.DebugContext(ctx, "discarding fetch result of torn down view")
		v.metrics.FetchSettled(metrics.OutcomeCancelled)
		return
	}

	if err != nil {
		v.setPhase(PhaseFailed)
		v.metrics.FetchSettled(metrics.OutcomeFailed)
		f := models.FetchFailure{
			MountID:    v.id,
			Source:     v.source,
			Error:      err.Error(),
			OccurredAt: v.now().UTC(),
		}
		if rerr := v.sink.Record(ctx, f); rerr != nil {
			v.log.WarnContext(ctx, "error recording fetch failure", "error", rerr)
		}
		return
	}

	if len(posts) > v.limit {
		posts = posts[:v.limit]
	}
	held := make([]models.Post, len(posts))
	copy(held, posts)

	v.setPhase(PhaseLoaded)
	v.metrics.FetchSettled(metrics.OutcomeOK)
	v.posts.Set(held)
}

// Teardown cancels a pending fetch, waits for it to settle and detaches the
// view from its state. It is safe to call more than once.
func (v *View) Teardown() {
	v.teardownOnce.Do(func() {
		v.apply.Lock()
		v.mu.Lock()
		if v.cancel != nil {
			v.cancel()
		}
		v.phase = PhaseDetached
		v.mu.Unlock()
		v.posts.Subscribe(nil)
		v.apply.Unlock()

		v.wg.Wait()
		// Done must close even if Activate never ran.
		v.settle()
	})
}

// Done is closed once the fetch task has settled, or on Teardown.
func (v *View) Done() <-chan struct{} { return v.done }

func (v *View) settle() {
	v.settleOnce.Do(func() { close(v.done) })
}

func (v *View) Phase() Phase {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.phase
}

func (v *View) setPhase(p Phase) {
	v.mu.Lock()
	v.phase = p
	v.mu.Unlock()
}

// Posts returns a copy of the held posts.
func (v *View) Posts() []models.Post {
	held := v.posts.Get()
	out := make([]models.Post, len(held))
	copy(out, held)
	return out
}

// Render writes the page for the current state. It has no side effects.
func (v *View) Render(w io.Writer) error {
	return renderPage(w, v.posts.Get())
}

// Snapshot returns the projection computed at the last state change.
func (v *View) Snapshot() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot
}

func (v *View) onChange(posts []models.Post) {
	out := v.project(posts)
	v.mu.Lock()
	v.snapshot = out
	v.mu.Unlock()
}

func (v *View) project(posts []models.Post) []byte {
	buf := &bytes.Buffer{}
	if err := renderPage(buf, posts); err != nil {
		v.log.Error("error rendering posts", "error", err)
		return nil
	}
	return buf.Bytes()
}
