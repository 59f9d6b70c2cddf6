// Package diag is the diagnostic sink that fetch failures are reported to.
package diag

import (
	"context"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/renix-codex/postboard/internal/models"
)

type Sink interface {
	Record(ctx context.Context, f models.FetchFailure) error
}

// LogSink writes one human readable log line per failure.
type LogSink struct {
	Logger *slog.Logger
}

func NewLogSink(l *slog.Logger) *LogSink {
	return &LogSink{Logger: l}
}

func (s *LogSink) Record(ctx context.Context, f models.FetchFailure) error {
	s.Logger.ErrorContext(ctx, "error fetching posts",
		"error", f.Error,
		"source", f.Source,
		"mount_id", f.MountID,
	)
	return nil
}

type multi []Sink

// Multi fans a failure out to every sink. All sinks are tried; their
// errors are combined.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multi) Record(ctx context.Context, f models.FetchFailure) error {
	var result *multierror.Error
	for _, s := range m {
		if err := s.Record(ctx, f); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
