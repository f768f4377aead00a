package domain

import (
	"fmt"
	"time"
)

type JobID string

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
	JobTimedOut  JobStatus = "timed_out"
)

func (s JobStatus) Terminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobCancelled, JobTimedOut:
		return true
	default:
		return false
	}
}

// User-facing failure messages. Callers render guidance from these without
// seeing transport detail.
const (
	JobFailureInsufficientCredits = "Insufficient credits to start reconstruction. Top up and try again."
	JobFailureServiceUnavailable  = "Reconstruction service is temporarily unavailable. Please retry later."
	JobFailureGeneric             = "Reconstruction could not be started."
	JobFailureRemote              = "Reconstruction failed on the remote service."
	JobFailureUnknownStatus       = "Reconstruction returned an unexpected status."
	JobFailureResult              = "Reconstruction finished but the result could not be saved."
	JobFailureCancelled           = "Reconstruction was cancelled."
	JobFailureTimedOut            = "Reconstruction is taking longer than expected. Try again later."
)

type JobInput struct {
	SessionID         SessionID
	Iteration         int
	ArtifactReference string
	TargetDescription string
}

type JobRecord struct {
	ID             JobID
	ExternalTaskID string
	Status         JobStatus
	Progress       int
	Input          JobInput
	// ResultReference is set if and only if Status == JobCompleted.
	ResultReference string
	// ErrorMessage is set only for Failed, Cancelled and TimedOut.
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks the result/error invariants of the record.
func (r JobRecord) Validate() error {
	if r.ID == "" {
		return errRequired("job id")
	}
	if (r.ResultReference != "") != (r.Status == JobCompleted) {
		return errInvariant("result reference must be set exactly when completed")
	}
	if r.ErrorMessage != "" {
		switch r.Status {
		case JobFailed, JobCancelled, JobTimedOut:
		default:
			return errInvariant("error message only allowed for failed, cancelled or timed out jobs")
		}
	}
	return nil
}

// CheckJobOverwrite rejects replacing a terminal record. Stores call it before
// every upsert so a finished job is never mutated again.
func CheckJobOverwrite(existing JobRecord) error {
	if existing.Status.Terminal() {
		return fmt.Errorf("job %s is %s: %w", existing.ID, existing.Status, ErrJobTerminal)
	}
	return nil
}
