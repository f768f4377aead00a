package mongo

import (
	"time"

	"github.com/bnema/refine-cli/internal/domain"
)

type sessionDocument struct {
	ID                  string              `bson:"_id"`
	TargetDescription   string              `bson:"target_description"`
	Mode                string              `bson:"mode"`
	MaxIterations       int                 `bson:"max_iterations"`
	Status              string              `bson:"status"`
	CurrentIteration    int                 `bson:"current_iteration"`
	Iterations          []iterationDocument `bson:"iterations"`
	PendingUserFeedback *string             `bson:"pending_user_feedback,omitempty"`
	ErrorMessage        string              `bson:"error_message,omitempty"`
	CreatedAt           time.Time           `bson:"created_at"`
	UpdatedAt           time.Time           `bson:"updated_at"`
}

type iterationDocument struct {
	Iteration         int                 `bson:"iteration"`
	ArtifactReference string              `bson:"artifact_reference"`
	Evaluation        *evaluationDocument `bson:"evaluation,omitempty"`
	CreatedAt         time.Time           `bson:"created_at"`
}

type evaluationDocument struct {
	Scores      map[string]float64 `bson:"scores"`
	Issues      []string           `bson:"issues,omitempty"`
	Suggestions []string           `bson:"suggestions,omitempty"`
	Fallback    bool               `bson:"fallback"`
	RawText     string             `bson:"raw_text,omitempty"`
}

type jobDocument struct {
	ID              string    `bson:"_id"`
	ExternalTaskID  string    `bson:"external_task_id,omitempty"`
	Status          string    `bson:"status"`
	Progress        int       `bson:"progress"`
	SessionID       string    `bson:"session_id"`
	Iteration       int       `bson:"iteration"`
	ArtifactRef     string    `bson:"artifact_reference"`
	Target          string    `bson:"target_description"`
	ResultReference string    `bson:"result_reference,omitempty"`
	ErrorMessage    string    `bson:"error_message,omitempty"`
	CreatedAt       time.Time `bson:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at"`
}

func toSessionDocument(session domain.Session) sessionDocument {
	doc := sessionDocument{
		ID:                string(session.ID),
		TargetDescription: session.TargetDescription,
		Mode:              string(session.Mode),
		MaxIterations:     session.MaxIterations,
		Status:            string(session.Status),
		CurrentIteration:  session.CurrentIteration,
		Iterations:        make([]iterationDocument, 0, len(session.Iterations)),
		ErrorMessage:      session.ErrorMessage,
		CreatedAt:         session.CreatedAt.UTC(),
		UpdatedAt:         session.UpdatedAt.UTC(),
	}
	if session.PendingUserFeedback != nil {
		feedback := *session.PendingUserFeedback
		doc.PendingUserFeedback = &feedback
	}
	for _, record := range session.Iterations {
		it := iterationDocument{
			Iteration:         record.Iteration,
			ArtifactReference: record.ArtifactReference,
			CreatedAt:         record.CreatedAt.UTC(),
		}
		if record.Evaluation != nil {
			eval := record.Evaluation.Clone()
			it.Evaluation = &evaluationDocument{
				Scores:      eval.Scores,
				Issues:      eval.Issues,
				Suggestions: eval.Suggestions,
				Fallback:    eval.Fallback,
				RawText:     eval.RawText,
			}
		}
		doc.Iterations = append(doc.Iterations, it)
	}
	return doc
}

func (d sessionDocument) toSession() domain.Session {
	session := domain.Session{
		ID:                  domain.SessionID(d.ID),
		TargetDescription:   d.TargetDescription,
		Mode:                domain.Mode(d.Mode),
		MaxIterations:       d.MaxIterations,
		Status:              domain.SessionStatus(d.Status),
		CurrentIteration:    d.CurrentIteration,
		PendingUserFeedback: d.PendingUserFeedback,
		ErrorMessage:        d.ErrorMessage,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
	for _, it := range d.Iterations {
		record := domain.IterationRecord{
			Iteration:         it.Iteration,
			ArtifactReference: it.ArtifactReference,
			CreatedAt:         it.CreatedAt,
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

func toJobDocument(record domain.JobRecord) jobDocument {
	return jobDocument{
		ID:              string(record.ID),
		ExternalTaskID:  record.ExternalTaskID,
		Status:          string(record.Status),
		Progress:        record.Progress,
		SessionID:       string(record.Input.SessionID),
		Iteration:       record.Input.Iteration,
		ArtifactRef:     record.Input.ArtifactReference,
		Target:          record.Input.TargetDescription,
		ResultReference: record.ResultReference,
		ErrorMessage:    record.ErrorMessage,
		CreatedAt:       record.CreatedAt.UTC(),
		UpdatedAt:       record.UpdatedAt.UTC(),
	}
}

func (d jobDocument) toRecord() domain.JobRecord {
	return domain.JobRecord{
		ID:             domain.JobID(d.ID),
		ExternalTaskID: d.ExternalTaskID,
		Status:         domain.JobStatus(d.Status),
		Progress:       d.Progress,
		Input: domain.JobInput{
			SessionID:         domain.SessionID(d.SessionID),
			Iteration:         d.Iteration,
			ArtifactReference: d.ArtifactRef,
			TargetDescription: d.Target,
		},
		ResultReference: d.ResultReference,
		ErrorMessage:    d.ErrorMessage,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}
