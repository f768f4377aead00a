package ports

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/refine-cli/internal/domain"
)

// GenerationRequest carries everything a generator needs for one iteration.
type GenerationRequest struct {
	TargetDescription string
	Iteration         int
	Digest            domain.FeedbackDigest
	// UserFeedback outranks every AI-derived hint when present.
	UserFeedback        string
	PreviousArtifact    string
	PreviousSuggestions []string
}

// Prompt renders the request as generation instructions. User feedback comes
// first, then digest focus, then the latest evaluator suggestions.
func (r GenerationRequest) Prompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Target: %s\n", r.TargetDescription)
	if r.Iteration > 1 && r.PreviousArtifact != "" {
		fmt.Fprintf(&b, "Refine the previous attempt (iteration %d).\n", r.Iteration-1)
	}
	if feedback := strings.TrimSpace(r.UserFeedback); feedback != "" {
		fmt.Fprintf(&b, "User feedback (highest priority, overrides everything below): %s\n", feedback)
	}
	if instructions := r.Digest.Instructions(); instructions != "" {
		b.WriteString(instructions)
		b.WriteString("\n")
	}
	if len(r.PreviousSuggestions) > 0 {
		b.WriteString("Evaluator suggestions:\n")
		for _, s := range r.PreviousSuggestions {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

type Generator interface {
	// Generate returns an artifact reference. An empty reference with a nil
	// error is treated as a failed generation.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}
