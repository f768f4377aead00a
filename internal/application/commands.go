package application

import "github.com/bnema/refine-cli/internal/domain"

type StartSessionCommand struct {
	TargetDescription string
	Mode              domain.Mode
	AwaitFeedback     bool
}

type SubmitJobCommand struct {
	SessionID domain.SessionID
	// Iteration selects the artifact to reconstruct; 0 means the latest one.
	Iteration int
}
