// Package postgres stores session snapshots and job records in PostgreSQL
// as JSONB documents.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/refine-cli/internal/adapters/records/recordjson"
	"github.com/bnema/refine-cli/internal/domain"
	"github.com/bnema/refine-cli/internal/ports"
	_ "github.com/lib/pq"
	"goa.design/clue/health"
)

const storeName = "records-postgres"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS rfn_sessions (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS rfn_jobs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

type Store struct {
	db *sql.DB
}

var (
	_ ports.RecordStore = (*Store)(nil)
	_ health.Pinger     = (*Store)(nil)
)

// Open connects to dsn, pings it and creates the tables when missing.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &Store{db: db}
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate postgres records: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Name() string {
	return storeName
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertJob leaves terminal rows untouched; the conflict branch only fires
// for non-terminal statuses, so zero affected rows means the job is final.
func (s *Store) UpsertJob(ctx context.Context, record domain.JobRecord) error {
	data, err := recordjson.EncodeJob(record)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO rfn_jobs (id, status, data, updated_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
		ON CONFLICT (id) DO UPDATE
		   SET status     = EXCLUDED.status,
		       data       = EXCLUDED.data,
		       updated_at = EXCLUDED.updated_at
		 WHERE rfn_jobs.status NOT IN ('completed', 'failed', 'cancelled', 'timed_out')
	`, string(record.ID), string(record.Status), string(data), nullTime(record.UpdatedAt))
	if err != nil {
		return fmt.Errorf("postgres upsert job %q: %w", record.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("postgres upsert job %q: %w", record.ID, domain.ErrJobTerminal)
	}
	return nil
}

func (s *Store) GetJob(ctx context.Context, id domain.JobID) (domain.JobRecord, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM rfn_jobs WHERE id = $1`, string(id)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.JobRecord{}, domain.ErrJobNotFound
	}
	if err != nil {
		return domain.JobRecord{}, fmt.Errorf("postgres get job %q: %w", id, err)
	}
	return recordjson.DecodeJob(data)
}

func (s *Store) SaveSession(ctx context.Context, session domain.Session) error {
	data, err := recordjson.EncodeSession(session)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rfn_sessions (id, status, data, updated_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
		ON CONFLICT (id) DO UPDATE
		   SET status     = EXCLUDED.status,
		       data       = EXCLUDED.data,
		       updated_at = EXCLUDED.updated_at
	`, string(session.ID), string(session.Status), string(data), nullTime(session.UpdatedAt))
	if err != nil {
		return fmt.Errorf("postgres save session %q: %w", session.ID, err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM rfn_sessions WHERE id = $1`, string(id)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("postgres get session %q: %w", id, err)
	}
	return recordjson.DecodeSession(data)
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: !t.IsZero()}
}
