package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/refine-cli/internal/domain"
	"github.com/bnema/refine-cli/internal/ports"
	"github.com/bnema/refine-cli/internal/telemetry"
	"goa.design/clue/log"
)

type JobTrackerConfig struct {
	PollInterval time.Duration
	MaxAttempts  int
}

func DefaultJobTrackerConfig() JobTrackerConfig {
	return JobTrackerConfig{
		PollInterval: 10 * time.Second,
		MaxAttempts:  60,
	}
}

// JobTracker supervises one reconstruction job at a time per call: submit
// once, poll on a fixed interval, stop at the first terminal state.
type JobTracker struct {
	service   ports.JobService
	store     ports.JobRecordStore
	clock     ports.Clock
	telemetry *telemetry.Recorder
	cfg       JobTrackerConfig
}

func NewJobTracker(service ports.JobService, store ports.JobRecordStore, clock ports.Clock, recorder *telemetry.Recorder, cfg JobTrackerConfig) *JobTracker {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	def := DefaultJobTrackerConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}

	return &JobTracker{service: service, store: store, clock: clock, telemetry: recorder, cfg: cfg}
}

// Create persists a Pending record for input.
func (t *JobTracker) Create(ctx context.Context, id domain.JobID, input domain.JobInput) (domain.JobRecord, error) {
	if strings.TrimSpace(input.ArtifactReference) == "" {
		return domain.JobRecord{}, fmt.Errorf("create job %s: %w", id, domain.ErrNoArtifact)
	}

	now := t.clock.Now()
	record := domain.JobRecord{
		ID:        id,
		Status:    domain.JobPending,
		Input:     input,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := record.Validate(); err != nil {
		return domain.JobRecord{}, err
	}
	if err := t.store.UpsertJob(ctx, record); err != nil {
		return domain.JobRecord{}, fmt.Errorf("save job %s: %w", id, err)
	}
	return record, nil
}

// Track submits a Pending job and polls it to a terminal state. A record that
// already carries an external task id is resumed instead of resubmitted. The
// returned error is only set for records that cannot be tracked at all.
func (t *JobTracker) Track(ctx context.Context, record domain.JobRecord) (domain.JobRecord, error) {
	if record.Status.Terminal() {
		return record, fmt.Errorf("track job %s: %w", record.ID, domain.ErrJobTerminal)
	}
	if record.ExternalTaskID != "" {
		return t.Resume(ctx, record)
	}

	ctx = log.With(ctx, log.KV{K: "job", V: string(record.ID)})
	ctx, span := t.telemetry.StartJob(ctx, string(record.ID))

	externalID, err := t.service.Submit(ctx, record.Input)
	if err == nil && strings.TrimSpace(externalID) == "" {
		err = errors.New("submission returned an empty task id")
	}
	if err != nil {
		log.Error(ctx, err, log.KV{K: "msg", V: "submit reconstruction job"})
		record = t.finish(ctx, record, domain.JobFailed, ClassifySubmitError(err))
		telemetry.EndSpan(span, err)
		return record, nil
	}
	log.Info(ctx, log.KV{K: "msg", V: "job submitted"}, log.KV{K: "external_task_id", V: externalID})

	record.ExternalTaskID = externalID
	record.Status = domain.JobRunning
	if record, err = t.save(ctx, record); err != nil {
		if stored, done := t.alreadyTerminal(ctx, record.ID, err); done {
			telemetry.EndSpan(span, nil)
			return stored, nil
		}
		log.Warn(ctx, log.KV{K: "msg", V: "persist running job"}, log.KV{K: "err", V: err.Error()})
	}

	record = t.poll(ctx, record)
	telemetry.EndSpan(span, nil)
	return record, nil
}

// Resume continues polling a job that was already accepted by the service.
// Only the attempt counter restarts; nothing is resubmitted.
func (t *JobTracker) Resume(ctx context.Context, record domain.JobRecord) (domain.JobRecord, error) {
	if record.Status.Terminal() {
		return record, fmt.Errorf("resume job %s: %w", record.ID, domain.ErrJobTerminal)
	}
	if record.ExternalTaskID == "" {
		return record, fmt.Errorf("resume job %s: no external task id", record.ID)
	}

	ctx = log.With(ctx, log.KV{K: "job", V: string(record.ID)})
	ctx, span := t.telemetry.StartJob(ctx, string(record.ID))
	log.Info(ctx, log.KV{K: "msg", V: "job resumed"}, log.KV{K: "external_task_id", V: record.ExternalTaskID})

	if record.Status == domain.JobPending {
		record.Status = domain.JobRunning
		var err error
		if record, err = t.save(ctx, record); err != nil {
			if stored, done := t.alreadyTerminal(ctx, record.ID, err); done {
				telemetry.EndSpan(span, nil)
				return stored, nil
			}
			log.Warn(ctx, log.KV{K: "msg", V: "persist running job"}, log.KV{K: "err", V: err.Error()})
		}
	}

	record = t.poll(ctx, record)
	telemetry.EndSpan(span, nil)
	return record, nil
}

// poll returns as soon as the job is terminal. When ctx is cancelled the
// record is returned still Running so a later Resume can pick it up.
func (t *JobTracker) poll(ctx context.Context, record domain.JobRecord) domain.JobRecord {
	for attempt := 1; attempt <= t.cfg.MaxAttempts; attempt++ {
		result, err := t.service.Poll(ctx, record.ExternalTaskID)
		if err != nil {
			if ctx.Err() != nil {
				return record
			}
			log.Warn(ctx,
				log.KV{K: "msg", V: "poll failed"},
				log.KV{K: "attempt", V: attempt},
				log.KV{K: "err", V: err.Error()},
			)
		} else {
			switch result.Status {
			case ports.PollQueued, ports.PollRunning:
				progress := clampProgress(result.Progress)
				if progress != record.Progress {
					record.Progress = progress
					var saveErr error
					if record, saveErr = t.save(ctx, record); saveErr != nil {
						if stored, done := t.alreadyTerminal(ctx, record.ID, saveErr); done {
							return stored
						}
						log.Warn(ctx, log.KV{K: "msg", V: "persist job progress"}, log.KV{K: "err", V: saveErr.Error()})
					}
				}
			case ports.PollSucceeded:
				return t.complete(ctx, record)
			case ports.PollFailed:
				log.Warn(ctx, log.KV{K: "msg", V: "job failed remotely"}, log.KV{K: "detail", V: result.Error})
				return t.finish(ctx, record, domain.JobFailed, domain.JobFailureRemote)
			case ports.PollCancelled:
				return t.finish(ctx, record, domain.JobCancelled, domain.JobFailureCancelled)
			default:
				log.Warn(ctx, log.KV{K: "msg", V: "unknown job status"}, log.KV{K: "status", V: string(result.Status)})
				return t.finish(ctx, record, domain.JobFailed, domain.JobFailureUnknownStatus)
			}
		}

		if attempt < t.cfg.MaxAttempts && !sleep(ctx, t.cfg.PollInterval) {
			return record
		}
	}

	log.Warn(ctx, log.KV{K: "msg", V: "poll attempts exhausted"}, log.KV{K: "attempts", V: t.cfg.MaxAttempts})
	return t.finish(ctx, record, domain.JobTimedOut, domain.JobFailureTimedOut)
}

func (t *JobTracker) complete(ctx context.Context, record domain.JobRecord) domain.JobRecord {
	reference, err := t.service.FetchResult(ctx, record.ExternalTaskID)
	if err == nil && strings.TrimSpace(reference) == "" {
		err = errors.New("empty result reference")
	}
	if err != nil {
		log.Error(ctx, err, log.KV{K: "msg", V: "fetch job result"})
		return t.finish(ctx, record, domain.JobFailed, domain.JobFailureResult)
	}

	completed := record
	completed.Status = domain.JobCompleted
	completed.Progress = 100
	completed.ResultReference = reference
	completed.ErrorMessage = ""
	saved, err := t.save(ctx, completed)
	if err != nil {
		if stored, done := t.alreadyTerminal(ctx, record.ID, err); done {
			return stored
		}
		log.Error(ctx, err, log.KV{K: "msg", V: "persist job result"})
		return t.finish(ctx, record, domain.JobFailed, domain.JobFailureResult)
	}

	t.telemetry.JobTerminal(ctx, string(saved.Status))
	log.Info(ctx, log.KV{K: "msg", V: "job completed"}, log.KV{K: "result", V: reference})
	return saved
}

// finish moves record to a non-Completed terminal status. Persistence
// failures are logged; the returned record is terminal either way.
func (t *JobTracker) finish(ctx context.Context, record domain.JobRecord, status domain.JobStatus, message string) domain.JobRecord {
	record.Status = status
	record.ErrorMessage = message
	record.ResultReference = ""

	saved, err := t.save(ctx, record)
	if err != nil {
		if stored, done := t.alreadyTerminal(ctx, record.ID, err); done {
			return stored
		}
		log.Error(ctx, err, log.KV{K: "msg", V: "persist terminal job"}, log.KV{K: "status", V: string(status)})
	}

	t.telemetry.JobTerminal(ctx, string(status))
	log.Info(ctx, log.KV{K: "msg", V: "job finished"}, log.KV{K: "status", V: string(status)}, log.KV{K: "reason", V: message})
	return saved
}

func (t *JobTracker) save(ctx context.Context, record domain.JobRecord) (domain.JobRecord, error) {
	record.UpdatedAt = t.clock.Now()
	if err := record.Validate(); err != nil {
		return record, err
	}
	if err := t.store.UpsertJob(context.WithoutCancel(ctx), record); err != nil {
		return record, fmt.Errorf("save job %s: %w", record.ID, err)
	}
	return record, nil
}

// alreadyTerminal reports whether a save was refused because another tracker
// already finished the job, returning the stored record in that case.
func (t *JobTracker) alreadyTerminal(ctx context.Context, id domain.JobID, err error) (domain.JobRecord, bool) {
	if !errors.Is(err, domain.ErrJobTerminal) {
		return domain.JobRecord{}, false
	}
	stored, getErr := t.store.GetJob(context.WithoutCancel(ctx), id)
	if getErr != nil {
		return domain.JobRecord{}, false
	}
	log.Info(ctx, log.KV{K: "msg", V: "job already terminal"}, log.KV{K: "status", V: string(stored.Status)})
	return stored, true
}

func clampProgress(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
