package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 5
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: func() {}}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS job_offsets (
	job_key    TEXT PRIMARY KEY,
	offset_n   INTEGER NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	operation   TEXT NOT NULL,
	summary     JSONB,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS webhook_outbox (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL,
	first_name TEXT NOT NULL DEFAULT '',
	last_name  TEXT NOT NULL DEFAULT '',
	ptin       TEXT NOT NULL DEFAULT '',
	attempts   INT NOT NULL DEFAULT 0,
	last_error TEXT,
	sent_at    TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_operation ON runs(operation);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON webhook_outbox(sent_at) WHERE sent_at IS NULL;
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.closeFn()
	return nil
}

func (s *PostgresStore) GetOffset(ctx context.Context, jobKey string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT offset_n FROM job_offsets WHERE job_key = $1`, jobKey,
	).Scan(&n)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: get offset %s", jobKey)
	}
	return n, nil
}

func (s *PostgresStore) SaveOffset(ctx context.Context, jobKey string, offset int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO job_offsets (job_key, offset_n, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (job_key) DO UPDATE SET offset_n = EXCLUDED.offset_n, updated_at = now()`,
		jobKey, offset,
	)
	return eris.Wrapf(err, "postgres: save offset %s", jobKey)
}

func (s *PostgresStore) ClearOffset(ctx context.Context, jobKey string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM job_offsets WHERE job_key = $1`, jobKey)
	return eris.Wrapf(err, "postgres: clear offset %s", jobKey)
}

func (s *PostgresStore) StartRun(ctx context.Context, operation string) (string, error) {
	id := uuid.New().String()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, operation, started_at) VALUES ($1, $2, now())`,
		id, operation,
	)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: start run %s", operation)
	}
	return id, nil
}

func (s *PostgresStore) FinishRun(ctx context.Context, runID string, summary RunSummary) error {
	summaryJSON, err := marshalSummary(summary)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET summary = $1, finished_at = now() WHERE id = $2`,
		summaryJSON, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) EnqueueNotification(ctx context.Context, n Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO webhook_outbox (id, email, first_name, last_name, ptin) VALUES ($1, $2, $3, $4, $5)`,
		n.ID, n.Email, n.FirstName, n.LastName, n.PTIN,
	)
	return eris.Wrapf(err, "postgres: enqueue notification %s", n.Email)
}

func (s *PostgresStore) PendingNotifications(ctx context.Context, limit int) ([]Notification, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, email, first_name, last_name, ptin, attempts, COALESCE(last_error, ''), created_at
		 FROM webhook_outbox WHERE sent_at IS NULL ORDER BY created_at LIMIT $1`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: pending notifications")
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Email, &n.FirstName, &n.LastName, &n.PTIN, &n.Attempts, &n.LastError, &n.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan notification")
		}
		out = append(out, n)
	}
	return out, eris.Wrap(rows.Err(), "postgres: pending notifications rows")
}

func (s *PostgresStore) MarkNotified(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE webhook_outbox SET sent_at = now(), attempts = attempts + 1 WHERE id = $1`, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark notified %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: notification %s not found", id)
	}
	return nil
}

func (s *PostgresStore) MarkNotifyFailed(ctx context.Context, id string, lastError string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE webhook_outbox SET attempts = attempts + 1, last_error = $1 WHERE id = $2`,
		lastError, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark notify failed %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: notification %s not found", id)
	}
	return nil
}
