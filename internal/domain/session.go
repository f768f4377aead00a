package domain

import (
	"fmt"
	"strings"
	"time"
)

type SessionID string

type Mode string

const (
	ModeQuick Mode = "quick"
	ModeDeep  Mode = "deep"
)

func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeQuick:
		return ModeQuick, nil
	case ModeDeep:
		return ModeDeep, nil
	default:
		return "", fmt.Errorf("unsupported mode %q", raw)
	}
}

type SessionStatus string

const (
	SessionRunning            SessionStatus = "running"
	SessionWaitingForFeedback SessionStatus = "waiting_for_feedback"
	SessionCompleted          SessionStatus = "completed"
	SessionFailed             SessionStatus = "failed"
	SessionStopped            SessionStatus = "stopped"
)

// Terminal reports whether no further automatic transition can leave s.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionCompleted, SessionFailed, SessionStopped:
		return true
	default:
		return false
	}
}

type Session struct {
	ID                SessionID
	TargetDescription string
	Mode              Mode
	MaxIterations     int
	Status            SessionStatus
	CurrentIteration  int
	Iterations        []IterationRecord
	// PendingUserFeedback is nil when no feedback has been submitted since the
	// last iteration. An empty string is a valid "continue" answer.
	PendingUserFeedback *string
	ErrorMessage        string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Latest returns the most recent iteration record, if any.
func (s Session) Latest() (IterationRecord, bool) {
	if len(s.Iterations) == 0 {
		return IterationRecord{}, false
	}
	return s.Iterations[len(s.Iterations)-1], true
}

// Iteration returns the 1-based iteration n.
func (s Session) Iteration(n int) (IterationRecord, error) {
	if n < 1 || n > len(s.Iterations) {
		return IterationRecord{}, fmt.Errorf("%w: %d", ErrIterationNotFound, n)
	}
	return s.Iterations[n-1], nil
}

// Clone returns a deep copy safe to hand to readers.
func (s Session) Clone() Session {
	out := s
	if s.Iterations != nil {
		out.Iterations = make([]IterationRecord, len(s.Iterations))
		for i, rec := range s.Iterations {
			out.Iterations[i] = rec.Clone()
		}
	}
	if s.PendingUserFeedback != nil {
		text := *s.PendingUserFeedback
		out.PendingUserFeedback = &text
	}
	return out
}

type IterationRecord struct {
	Iteration         int
	ArtifactReference string
	// Evaluation is nil until the evaluation step (or its fallback) is recorded.
	Evaluation *EvaluationResult
	CreatedAt  time.Time
}

func (r IterationRecord) Clone() IterationRecord {
	out := r
	if r.Evaluation != nil {
		eval := r.Evaluation.Clone()
		out.Evaluation = &eval
	}
	return out
}
