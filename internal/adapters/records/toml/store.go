// Package toml persists session snapshots and job records in a single TOML
// file, replaced atomically on every write.
package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/refine-cli/internal/domain"
	"github.com/bnema/refine-cli/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	recordsFileMode = 0o600
	recordsDirMode  = 0o700
	tempFilePattern = ".records-*.toml.tmp"
)

type Store struct {
	path string
	mu   *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.RecordStore = (*Store)(nil)

func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("records path is empty")
	}
	path, err := normalizePath(path)
	if err != nil {
		return nil, err
	}

	return &Store{path: path, mu: lockForPath(path)}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) UpsertJob(ctx context.Context, record domain.JobRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.readSchema()
	if err != nil {
		return err
	}

	encoded := toJobSchema(record)
	updated := false
	for i := range file.Jobs {
		if file.Jobs[i].ID != encoded.ID {
			continue
		}
		if err := domain.CheckJobOverwrite(fromJobSchema(file.Jobs[i])); err != nil {
			return err
		}
		file.Jobs[i] = encoded
		updated = true
		break
	}
	if !updated {
		file.Jobs = append(file.Jobs, encoded)
	}

	return s.writeSchema(file)
}

func (s *Store) GetJob(ctx context.Context, id domain.JobID) (domain.JobRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.JobRecord{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.readSchema()
	if err != nil {
		return domain.JobRecord{}, err
	}

	for _, entry := range file.Jobs {
		if entry.ID == string(id) {
			return fromJobSchema(entry), nil
		}
	}

	return domain.JobRecord{}, domain.ErrJobNotFound
}

func (s *Store) SaveSession(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.readSchema()
	if err != nil {
		return err
	}

	encoded := toSessionSchema(session)
	updated := false
	for i := range file.Sessions {
		if file.Sessions[i].ID == encoded.ID {
			file.Sessions[i] = encoded
			updated = true
			break
		}
	}
	if !updated {
		file.Sessions = append(file.Sessions, encoded)
	}

	return s.writeSchema(file)
}

func (s *Store) GetSession(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.readSchema()
	if err != nil {
		return domain.Session{}, err
	}

	for _, entry := range file.Sessions {
		if entry.ID == string(id) {
			return fromSessionSchema(entry), nil
		}
	}

	return domain.Session{}, domain.ErrSessionNotFound
}

func (s *Store) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{Version: currentSchemaVersion}, nil
		}
		return fileSchema{}, fmt.Errorf("read records file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode records file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (s *Store) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(s.path), recordsDirMode); err != nil {
		return fmt.Errorf("create records directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode records file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(s.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp records file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp records file: %w", err)
	}
	if err := tempFile.Chmod(recordsFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp records file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp records file: %w", err)
	}
	if err := os.Rename(tempName, s.path); err != nil {
		return fmt.Errorf("replace records file: %w", err)
	}
	cleanup = false

	return nil
}

func normalizePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve records path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

// lockForPath shares one lock between stores opened on the same file.
func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func toSessionSchema(session domain.Session) sessionSchema {
	out := sessionSchema{
		ID:                string(session.ID),
		TargetDescription: session.TargetDescription,
		Mode:              string(session.Mode),
		MaxIterations:     session.MaxIterations,
		Status:            string(session.Status),
		CurrentIteration:  session.CurrentIteration,
		ErrorMessage:      session.ErrorMessage,
		CreatedAt:         formatTime(session.CreatedAt),
		UpdatedAt:         formatTime(session.UpdatedAt),
	}
	if session.PendingUserFeedback != nil {
		feedback := *session.PendingUserFeedback
		out.PendingUserFeedback = &feedback
	}
	for _, record := range session.Iterations {
		entry := iterationSchema{
			Iteration:         record.Iteration,
			ArtifactReference: record.ArtifactReference,
			CreatedAt:         formatTime(record.CreatedAt),
		}
		if record.Evaluation != nil {
			eval := record.Evaluation.Clone()
			entry.Evaluation = &evaluationSchema{
				Scores:      eval.Scores,
				Issues:      eval.Issues,
				Suggestions: eval.Suggestions,
				Fallback:    eval.Fallback,
				RawText:     eval.RawText,
			}
		}
		out.Iterations = append(out.Iterations, entry)
	}
	return out
}

func fromSessionSchema(entry sessionSchema) domain.Session {
	session := domain.Session{
		ID:                  domain.SessionID(entry.ID),
		TargetDescription:   entry.TargetDescription,
		Mode:                domain.Mode(entry.Mode),
		MaxIterations:       entry.MaxIterations,
		Status:              domain.SessionStatus(entry.Status),
		CurrentIteration:    entry.CurrentIteration,
		PendingUserFeedback: entry.PendingUserFeedback,
		ErrorMessage:        entry.ErrorMessage,
		CreatedAt:           parseTime(entry.CreatedAt),
		UpdatedAt:           parseTime(entry.UpdatedAt),
	}
	for _, it := range entry.Iterations {
		record := domain.IterationRecord{
			Iteration:         it.Iteration,
			ArtifactReference: it.ArtifactReference,
			CreatedAt:         parseTime(it.CreatedAt),
		}
		if it.Evaluation != nil {
			record.Evaluation = &domain.EvaluationResult{
				Scores:      it.Evaluation.Scores,
				Issues:      it.Evaluation.Issues,
				Suggestions: it.Evaluation.Suggestions,
				Fallback:    it.Evaluation.Fallback,
				RawText:     it.Evaluation.RawText,
			}
		}
		session.Iterations = append(session.Iterations, record)
	}
	return session
}

func toJobSchema(record domain.JobRecord) jobSchema {
	return jobSchema{
		ID:             string(record.ID),
		ExternalTaskID: record.ExternalTaskID,
		Status:         string(record.Status),
		Progress:       record.Progress,
		Input: jobInputSchema{
			SessionID:         string(record.Input.SessionID),
			Iteration:         record.Input.Iteration,
			ArtifactReference: record.Input.ArtifactReference,
			TargetDescription: record.Input.TargetDescription,
		},
		ResultReference: record.ResultReference,
		ErrorMessage:    record.ErrorMessage,
		CreatedAt:       formatTime(record.CreatedAt),
		UpdatedAt:       formatTime(record.UpdatedAt),
	}
}

func fromJobSchema(entry jobSchema) domain.JobRecord {
	return domain.JobRecord{
		ID:             domain.JobID(entry.ID),
		ExternalTaskID: entry.ExternalTaskID,
		Status:         domain.JobStatus(entry.Status),
		Progress:       entry.Progress,
		Input: domain.JobInput{
			SessionID:         domain.SessionID(entry.Input.SessionID),
			Iteration:         entry.Input.Iteration,
			ArtifactReference: entry.Input.ArtifactReference,
			TargetDescription: entry.Input.TargetDescription,
		},
		ResultReference: entry.ResultReference,
		ErrorMessage:    entry.ErrorMessage,
		CreatedAt:       parseTime(entry.CreatedAt),
		UpdatedAt:       parseTime(entry.UpdatedAt),
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339Nano)
}
