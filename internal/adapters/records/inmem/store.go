// Package inmem keeps job records and session snapshots in process memory.
// It is meant for tests and single-process runs.
package inmem

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bnema/refine-cli/internal/domain"
)

// Store is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	jobs     map[domain.JobID]domain.JobRecord
	sessions map[domain.SessionID]domain.Session
}

func New() *Store {
	return &Store{
		jobs:     make(map[domain.JobID]domain.JobRecord),
		sessions: make(map[domain.SessionID]domain.Session),
	}
}

func (s *Store) UpsertJob(_ context.Context, record domain.JobRecord) error {
	if record.ID == "" {
		return errors.New("job id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.jobs[record.ID]; ok {
		if err := domain.CheckJobOverwrite(existing); err != nil {
			return err
		}
	}
	s.jobs[record.ID] = record
	return nil
}

func (s *Store) GetJob(_ context.Context, id domain.JobID) (domain.JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.jobs[id]
	if !ok {
		return domain.JobRecord{}, fmt.Errorf("job %s: %w", id, domain.ErrJobNotFound)
	}
	return record, nil
}

func (s *Store) SaveSession(_ context.Context, session domain.Session) error {
	if session.ID == "" {
		return errors.New("session id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *Store) GetSession(_ context.Context, id domain.SessionID) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
	}
	return session.Clone(), nil
}
