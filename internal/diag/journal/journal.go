package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/renix-codex/postboard/internal/diag"
	"github.com/renix-codex/postboard/internal/logger"
	"github.com/renix-codex/postboard/internal/models"
)

const (
	DefaultRecent = 50
	MaxRecent     = 500
)

// DB is the subset of *pgxpool.Pool the journal uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PGJournal keeps fetch failures in Postgres. It records diagnostics only;
// posts themselves are never written.
type PGJournal struct {
	db  DB
	log *slog.Logger
}

var _ diag.Sink = (*PGJournal)(nil)

func New(ctx context.Context, dsn string, l *slog.Logger) (*PGJournal, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: connecting: %w", err)
	}
	j := NewWithDB(pool, l)
	if err := j.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return j, nil
}

// NewWithDB wraps an existing connection. The schema is not created.
func NewWithDB(db DB, l *slog.Logger) *PGJournal {
	if l == nil {
		l = logger.Void()
	}
	return &PGJournal{db: db, log: l}
}

func (j *PGJournal) migrate(ctx context.Context) error {
	_, err := j.db.Exec(ctx, `
CREATE TABLE IF NOT EXISTS fetch_failures (
  seq BIGSERIAL PRIMARY KEY,
  mount_id TEXT NOT NULL,
  source TEXT NOT NULL,
  error TEXT NOT NULL,
  occurred_at TIMESTAMPTZ NOT NULL,
  doc JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fetch_failures_occurred_at ON fetch_failures(occurred_at);
`)
	if err != nil {
		return fmt.Errorf("journal: creating schema: %w", err)
	}
	return nil
}

func (j *PGJournal) Record(ctx context.Context, f models.FetchFailure) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return err
	}
	_, err = j.db.Exec(ctx, `
INSERT INTO fetch_failures (mount_id, source, error, occurred_at, doc)
VALUES ($1,$2,$3,$4,$5)`,
		f.MountID, f.Source, f.Error, f.OccurredAt, raw)
	if err != nil {
		return fmt.Errorf("journal: recording failure: %w", err)
	}
	return nil
}

// Recent returns the newest failures first. limit is clamped to
// (0, MaxRecent]; non-positive values mean DefaultRecent.
func (j *PGJournal) Recent(ctx context.Context, limit int) ([]models.FetchFailure, error) {
	if limit <= 0 {
		limit = DefaultRecent
	}
	if limit > MaxRecent {
		limit = MaxRecent
	}

	rows, err := j.db.Query(ctx, `
SELECT seq, doc
FROM fetch_failures
ORDER BY occurred_at DESC, seq DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: querying failures: %w", err)
	}
	defer rows.Close()

	out := []models.FetchFailure{}
	for rows.Next() {
		var (
			seq int64
			raw []byte
		)
		if err := rows.Scan(&seq, &raw); err != nil {
			return nil, err
		}
		var f models.FetchFailure
		if err := json.Unmarshal(raw, &f); err != nil {
			j.log.WarnContext(ctx, "skipping undecodable journal row", "seq", seq, "error", err)
			continue
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (j *PGJournal) Close() {
	j.db.Close()
}
