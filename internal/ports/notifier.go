package ports

import (
	"context"

	"github.com/bnema/refine-cli/internal/domain"
)

type FeedbackPrompt struct {
	SessionID         domain.SessionID
	Iteration         int
	MaxIterations     int
	ArtifactReference string
	Evaluation        domain.EvaluationResult
}

type FeedbackNotifier interface {
	Notify(ctx context.Context, prompt FeedbackPrompt) error
}
