package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bnema/refine-cli/internal/domain"
	"github.com/bnema/refine-cli/internal/ports"
	"github.com/google/uuid"
	"goa.design/clue/log"
)

// Service is the status surface over the controller and the job tracker.
// Lookup and validation errors are the only errors it returns; collaborator
// failures show up as session or job status.
type Service struct {
	controller *Controller
	tracker    *JobTracker
	records    ports.RecordStore
	newID      func() string

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewService(controller *Controller, tracker *JobTracker, records ports.RecordStore) *Service {
	base, cancel := context.WithCancel(context.Background())

	return &Service{
		controller: controller,
		tracker:    tracker,
		records:    records,
		newID:      uuid.NewString,
		base:       base,
		cancel:     cancel,
	}
}

// StartSession registers a session and runs it in the background. The
// returned snapshot is the freshly created Running session.
func (s *Service) StartSession(ctx context.Context, cmd StartSessionCommand) (domain.Session, error) {
	id := domain.SessionID(s.newID())
	session, err := s.controller.Register(ctx, id, cmd.TargetDescription, cmd.Mode)
	if err != nil {
		return domain.Session{}, fmt.Errorf("start session: %w", err)
	}

	s.background(ctx, func(bg context.Context) {
		s.controller.drive(bg, id, RunOptions{AwaitFeedback: cmd.AwaitFeedback})
	})
	return session, nil
}

// RunSession runs a session in the caller's goroutine until it is terminal.
func (s *Service) RunSession(ctx context.Context, cmd StartSessionCommand) (domain.Session, error) {
	id := domain.SessionID(s.newID())
	session, err := s.controller.Run(ctx, id, cmd.TargetDescription, cmd.Mode, RunOptions{AwaitFeedback: cmd.AwaitFeedback})
	if err != nil {
		return domain.Session{}, fmt.Errorf("run session: %w", err)
	}
	return session, nil
}

// GetSessionStatus reads the live registry first and falls back to the last
// persisted snapshot for sessions owned by another process.
func (s *Service) GetSessionStatus(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	session, err := s.controller.Registry().Get(id)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) || s.records == nil {
		return domain.Session{}, err
	}

	session, err = s.records.GetSession(ctx, id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session %s: %w", id, err)
	}
	return session, nil
}

func (s *Service) ListSessions(ctx context.Context) []SessionSummary {
	sessions := s.controller.Registry().List()
	summaries := make([]SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, summarize(session))
	}
	sortSummaries(summaries)
	return summaries
}

func (s *Service) SubmitFeedback(ctx context.Context, id domain.SessionID, text string) (domain.Session, error) {
	session, err := s.controller.Registry().SubmitFeedback(id, strings.TrimSpace(text))
	if err != nil {
		return session, err
	}
	log.Info(ctx, log.KV{K: "msg", V: "feedback submitted"}, log.KV{K: "session", V: string(id)})
	return session, nil
}

func (s *Service) StopSession(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	session, err := s.controller.Registry().Stop(id)
	if err != nil {
		return domain.Session{}, err
	}
	log.Info(ctx, log.KV{K: "msg", V: "stop requested"}, log.KV{K: "session", V: string(id)}, log.KV{K: "status", V: string(session.Status)})
	return session, nil
}

// CreateJob resolves the artifact of the requested iteration and persists a
// Pending job for it.
func (s *Service) CreateJob(ctx context.Context, cmd SubmitJobCommand) (domain.JobRecord, error) {
	session, err := s.GetSessionStatus(ctx, cmd.SessionID)
	if err != nil {
		return domain.JobRecord{}, err
	}

	var record domain.IterationRecord
	if cmd.Iteration == 0 {
		latest, ok := session.Latest()
		if !ok {
			return domain.JobRecord{}, fmt.Errorf("session %s: %w", session.ID, domain.ErrNoArtifact)
		}
		record = latest
	} else if record, err = session.Iteration(cmd.Iteration); err != nil {
		return domain.JobRecord{}, fmt.Errorf("session %s: %w", session.ID, err)
	}

	input := domain.JobInput{
		SessionID:         session.ID,
		Iteration:         record.Iteration,
		ArtifactReference: record.ArtifactReference,
		TargetDescription: session.TargetDescription,
	}
	return s.tracker.Create(ctx, domain.JobID(s.newID()), input)
}

// SubmitJob creates a job and tracks it in the background.
func (s *Service) SubmitJob(ctx context.Context, cmd SubmitJobCommand) (domain.JobRecord, error) {
	record, err := s.CreateJob(ctx, cmd)
	if err != nil {
		return domain.JobRecord{}, err
	}

	s.background(ctx, func(bg context.Context) {
		_, _ = s.tracker.Track(bg, record)
	})
	return record, nil
}

// TrackJob loads a stored job and blocks until it is terminal, resuming
// instead of resubmitting when the service already accepted it.
func (s *Service) TrackJob(ctx context.Context, id domain.JobID) (domain.JobRecord, error) {
	record, err := s.GetJobStatus(ctx, id)
	if err != nil {
		return domain.JobRecord{}, err
	}
	return s.tracker.Track(ctx, record)
}

// ResumeJob restarts polling in the background for a job that already has an
// external task id.
func (s *Service) ResumeJob(ctx context.Context, id domain.JobID) (domain.JobRecord, error) {
	record, err := s.GetJobStatus(ctx, id)
	if err != nil {
		return domain.JobRecord{}, err
	}
	if record.Status.Terminal() {
		return record, fmt.Errorf("resume job %s: %w", id, domain.ErrJobTerminal)
	}
	if record.ExternalTaskID == "" {
		return record, fmt.Errorf("resume job %s: no external task id", id)
	}

	s.background(ctx, func(bg context.Context) {
		_, _ = s.tracker.Resume(bg, record)
	})
	return record, nil
}

func (s *Service) GetJobStatus(ctx context.Context, id domain.JobID) (domain.JobRecord, error) {
	if s.records == nil {
		return domain.JobRecord{}, fmt.Errorf("job %s: %w", id, domain.ErrJobNotFound)
	}
	record, err := s.records.GetJob(ctx, id)
	if err != nil {
		return domain.JobRecord{}, fmt.Errorf("get job %s: %w", id, err)
	}
	return record, nil
}

// Close cancels background sessions and trackers and waits for them to
// return.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

// Wait blocks until every background session and tracker has returned.
func (s *Service) Wait() {
	s.wg.Wait()
}

// background runs fn detached from the caller's cancellation while keeping
// its logger.
func (s *Service) background(ctx context.Context, fn func(context.Context)) {
	bg := log.WithContext(s.base, ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(bg)
	}()
}
