// Package redis keeps session snapshots and job records as JSON values in
// Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/refine-cli/internal/adapters/records/recordjson"
	"github.com/bnema/refine-cli/internal/domain"
	"github.com/bnema/refine-cli/internal/ports"
	"github.com/redis/go-redis/v9"
	"goa.design/clue/health"
)

const (
	DefaultKeyPrefix = "rfn:"
	storeName        = "records-redis"
)

// upsertJobScript writes ARGV[1] unless the stored job status is one of
// ARGV[2..]. It returns 1 on write and 0 when the stored job is terminal.
var upsertJobScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current then
  local status = cjson.decode(current)['status']
  for i = 2, #ARGV do
    if status == ARGV[i] then
      return 0
    end
  end
end
redis.call('SET', KEYS[1], ARGV[1])
return 1
`)

type client interface {
	redis.Scripter
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

type Store struct {
	rdb    client
	prefix string
}

var (
	_ ports.RecordStore = (*Store)(nil)
	_ health.Pinger     = (*Store)(nil)
)

// New wraps rdb. An empty prefix uses DefaultKeyPrefix.
func New(rdb *redis.Client, prefix string) (*Store, error) {
	if rdb == nil {
		return nil, errors.New("redis client is required")
	}
	return newStore(rdb, prefix), nil
}

func newStore(rdb client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) Name() string {
	return storeName
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) UpsertJob(ctx context.Context, record domain.JobRecord) error {
	data, err := recordjson.EncodeJob(record)
	if err != nil {
		return err
	}

	args := []any{string(data)}
	for _, status := range []domain.JobStatus{domain.JobCompleted, domain.JobFailed, domain.JobCancelled, domain.JobTimedOut} {
		args = append(args, string(status))
	}
	written, err := upsertJobScript.Run(ctx, s.rdb, []string{s.jobKey(record.ID)}, args...).Int()
	if err != nil {
		return fmt.Errorf("redis upsert job %q: %w", record.ID, err)
	}
	if written == 0 {
		return fmt.Errorf("redis upsert job %q: %w", record.ID, domain.ErrJobTerminal)
	}
	return nil
}

func (s *Store) GetJob(ctx context.Context, id domain.JobID) (domain.JobRecord, error) {
	data, err := s.rdb.Get(ctx, s.jobKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.JobRecord{}, domain.ErrJobNotFound
	}
	if err != nil {
		return domain.JobRecord{}, fmt.Errorf("redis get job %q: %w", id, err)
	}
	return recordjson.DecodeJob(data)
}

func (s *Store) SaveSession(ctx context.Context, session domain.Session) error {
	data, err := recordjson.EncodeSession(session)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.sessionKey(session.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis save session %q: %w", session.ID, err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	data, err := s.rdb.Get(ctx, s.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("redis get session %q: %w", id, err)
	}
	return recordjson.DecodeSession(data)
}

func (s *Store) jobKey(id domain.JobID) string {
	return s.prefix + "job:" + string(id)
}

func (s *Store) sessionKey(id domain.SessionID) string {
	return s.prefix + "session:" + string(id)
}
