// Package recordjson is the JSON wire form shared by the key-value and SQL
// record stores.
package recordjson

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bnema/refine-cli/internal/domain"
)

type sessionJSON struct {
	ID                  string          `json:"id"`
	TargetDescription   string          `json:"target_description"`
	Mode                string          `json:"mode"`
	MaxIterations       int             `json:"max_iterations"`
	Status              string          `json:"status"`
	CurrentIteration    int             `json:"current_iteration"`
	Iterations          []iterationJSON `json:"iterations,omitempty"`
	PendingUserFeedback *string         `json:"pending_user_feedback,omitempty"`
	ErrorMessage        string          `json:"error_message,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

type iterationJSON struct {
	Iteration         int             `json:"iteration"`
	ArtifactReference string          `json:"artifact_reference"`
	Evaluation        *evaluationJSON `json:"evaluation,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

type evaluationJSON struct {
	Scores      map[string]float64 `json:"scores"`
	Issues      []string           `json:"issues,omitempty"`
	Suggestions []string           `json:"suggestions,omitempty"`
	Fallback    bool               `json:"fallback"`
	RawText     string             `json:"raw_text,omitempty"`
}

type jobJSON struct {
	ID              string       `json:"id"`
	ExternalTaskID  string       `json:"external_task_id,omitempty"`
	Status          string       `json:"status"`
	Progress        int          `json:"progress"`
	Input           jobInputJSON `json:"input"`
	ResultReference string       `json:"result_reference,omitempty"`
	ErrorMessage    string       `json:"error_message,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

type jobInputJSON struct {
	SessionID         string `json:"session_id"`
	Iteration         int    `json:"iteration"`
	ArtifactReference string `json:"artifact_reference"`
	TargetDescription string `json:"target_description"`
}

func EncodeSession(session domain.Session) ([]byte, error) {
	doc := sessionJSON{
		ID:                string(session.ID),
		TargetDescription: session.TargetDescription,
		Mode:              string(session.Mode),
		MaxIterations:     session.MaxIterations,
		Status:            string(session.Status),
		CurrentIteration:  session.CurrentIteration,
		ErrorMessage:      session.ErrorMessage,
		CreatedAt:         session.CreatedAt,
		UpdatedAt:         session.UpdatedAt,
	}
	if session.PendingUserFeedback != nil {
		feedback := *session.PendingUserFeedback
		doc.PendingUserFeedback = &feedback
	}
	for _, record := range session.Iterations {
		it := iterationJSON{
			Iteration:         record.Iteration,
			ArtifactReference: record.ArtifactReference,
			CreatedAt:         record.CreatedAt,
		}
		if record.Evaluation != nil {
			eval := record.Evaluation.Clone()
			it.Evaluation = &evaluationJSON{
				Scores:      eval.Scores,
				Issues:      eval.Issues,
				Suggestions: eval.Suggestions,
				Fallback:    eval.Fallback,
				RawText:     eval.RawText,
			}
		}
		doc.Iterations = append(doc.Iterations, it)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", session.ID, err)
	}
	return data, nil
}

func DecodeSession(data []byte) (domain.Session, error) {
	var doc sessionJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Session{}, fmt.Errorf("decode session: %w", err)
	}

	session := domain.Session{
		ID:                  domain.SessionID(doc.ID),
		TargetDescription:   doc.TargetDescription,
		Mode:                domain.Mode(doc.Mode),
		MaxIterations:       doc.MaxIterations,
		Status:              domain.SessionStatus(doc.Status),
		CurrentIteration:    doc.CurrentIteration,
		PendingUserFeedback: doc.PendingUserFeedback,
		ErrorMessage:        doc.ErrorMessage,
		CreatedAt:           doc.CreatedAt,
		UpdatedAt:           doc.UpdatedAt,
	}
	for _, it := range doc.Iterations {
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
	return session, nil
}

func EncodeJob(record domain.JobRecord) ([]byte, error) {
	data, err := json.Marshal(jobJSON{
		ID:             string(record.ID),
		ExternalTaskID: record.ExternalTaskID,
		Status:         string(record.Status),
		Progress:       record.Progress,
		Input: jobInputJSON{
			SessionID:         string(record.Input.SessionID),
			Iteration:         record.Input.Iteration,
			ArtifactReference: record.Input.ArtifactReference,
			TargetDescription: record.Input.TargetDescription,
		},
		ResultReference: record.ResultReference,
		ErrorMessage:    record.ErrorMessage,
		CreatedAt:       record.CreatedAt,
		UpdatedAt:       record.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("encode job %s: %w", record.ID, err)
	}
	return data, nil
}

func DecodeJob(data []byte) (domain.JobRecord, error) {
	var doc jobJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.JobRecord{}, fmt.Errorf("decode job: %w", err)
	}
	return domain.JobRecord{
		ID:             domain.JobID(doc.ID),
		ExternalTaskID: doc.ExternalTaskID,
		Status:         domain.JobStatus(doc.Status),
		Progress:       doc.Progress,
		Input: domain.JobInput{
			SessionID:         domain.SessionID(doc.Input.SessionID),
			Iteration:         doc.Input.Iteration,
			ArtifactReference: doc.Input.ArtifactReference,
			TargetDescription: doc.Input.TargetDescription,
		},
		ResultReference: doc.ResultReference,
		ErrorMessage:    doc.ErrorMessage,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}, nil
}
