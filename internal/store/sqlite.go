package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS job_offsets (
	job_key    TEXT PRIMARY KEY,
	offset_n   INTEGER NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	operation   TEXT NOT NULL,
	summary     TEXT,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS webhook_outbox (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL,
	first_name TEXT NOT NULL DEFAULT '',
	last_name  TEXT NOT NULL DEFAULT '',
	ptin       TEXT NOT NULL DEFAULT '',
	attempts   INTEGER NOT NULL DEFAULT 0,
	last_error TEXT,
	sent_at    DATETIME,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_operation ON runs(operation);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON webhook_outbox(sent_at) WHERE sent_at IS NULL;
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetOffset(ctx context.Context, jobKey string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT offset_n FROM job_offsets WHERE job_key = ?`, jobKey,
	).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: get offset %s", jobKey)
	}
	return n, nil
}

func (s *SQLiteStore) SaveOffset(ctx context.Context, jobKey string, offset int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO job_offsets (job_key, offset_n, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(job_key) DO UPDATE SET offset_n = excluded.offset_n, updated_at = excluded.updated_at`,
		jobKey, offset, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save offset %s", jobKey)
}

func (s *SQLiteStore) ClearOffset(ctx context.Context, jobKey string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM job_offsets WHERE job_key = ?`, jobKey)
	return eris.Wrapf(err, "sqlite: clear offset %s", jobKey)
}

func (s *SQLiteStore) StartRun(ctx context.Context, operation string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, operation, started_at) VALUES (?, ?, ?)`,
		id, operation, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: start run %s", operation)
	}
	return id, nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, summary RunSummary) error {
	summaryJSON, err := marshalSummary(summary)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET summary = ?, finished_at = ? WHERE id = ?`,
		summaryJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) EnqueueNotification(ctx context.Context, n Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO webhook_outbox (id, email, first_name, last_name, ptin, attempts, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?)`,
		n.ID, n.Email, n.FirstName, n.LastName, n.PTIN, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: enqueue notification %s", n.Email)
}

func (s *SQLiteStore) PendingNotifications(ctx context.Context, limit int) ([]Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, first_name, last_name, ptin, attempts, COALESCE(last_error, ''), created_at
		 FROM webhook_outbox WHERE sent_at IS NULL ORDER BY created_at LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: pending notifications")
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Email, &n.FirstName, &n.LastName, &n.PTIN, &n.Attempts, &n.LastError, &n.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan notification")
		}
		out = append(out, n)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: pending notifications rows")
}

func (s *SQLiteStore) MarkNotified(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE webhook_outbox SET sent_at = ?, attempts = attempts + 1 WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark notified %s", id)
	}
	return checkRowsAffected(res, "notification", id)
}

func (s *SQLiteStore) MarkNotifyFailed(ctx context.Context, id string, lastError string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE webhook_outbox SET attempts = attempts + 1, last_error = ? WHERE id = ?`,
		lastError, id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark notify failed %s", id)
	}
	return checkRowsAffected(res, "notification", id)
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", kind, id)
	}
	if n == 0 {
		return eris.Errorf("sqlite: %s %s not found", kind, id)
	}
	return nil
}
