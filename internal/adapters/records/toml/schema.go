package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Sessions []sessionSchema `toml:"sessions"`
	Jobs     []jobSchema     `toml:"jobs"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported records schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type sessionSchema struct {
	ID                  string            `toml:"id"`
	TargetDescription   string            `toml:"target_description"`
	Mode                string            `toml:"mode"`
	MaxIterations       int               `toml:"max_iterations"`
	Status              string            `toml:"status"`
	CurrentIteration    int               `toml:"current_iteration"`
	PendingUserFeedback *string           `toml:"pending_user_feedback,omitempty"`
	ErrorMessage        string            `toml:"error_message,omitempty"`
	CreatedAt           string            `toml:"created_at"`
	UpdatedAt           string            `toml:"updated_at"`
	Iterations          []iterationSchema `toml:"iterations,omitempty"`
}

type iterationSchema struct {
	Iteration         int               `toml:"iteration"`
	ArtifactReference string            `toml:"artifact_reference"`
	CreatedAt         string            `toml:"created_at"`
	Evaluation        *evaluationSchema `toml:"evaluation,omitempty"`
}

type evaluationSchema struct {
	Scores      map[string]float64 `toml:"scores"`
	Issues      []string           `toml:"issues,omitempty"`
	Suggestions []string           `toml:"suggestions,omitempty"`
	Fallback    bool               `toml:"fallback"`
	RawText     string             `toml:"raw_text,omitempty"`
}

type jobSchema struct {
	ID              string         `toml:"id"`
	ExternalTaskID  string         `toml:"external_task_id,omitempty"`
	Status          string         `toml:"status"`
	Progress        int            `toml:"progress"`
	Input           jobInputSchema `toml:"input"`
	ResultReference string         `toml:"result_reference,omitempty"`
	ErrorMessage    string         `toml:"error_message,omitempty"`
	CreatedAt       string         `toml:"created_at"`
	UpdatedAt       string         `toml:"updated_at"`
}

type jobInputSchema struct {
	SessionID         string `toml:"session_id"`
	Iteration         int    `toml:"iteration"`
	ArtifactReference string `toml:"artifact_reference"`
	TargetDescription string `toml:"target_description"`
}
