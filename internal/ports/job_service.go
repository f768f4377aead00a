package ports

import (
	"context"

	"github.com/bnema/refine-cli/internal/domain"
)

// PollStatus is the status tag reported by the reconstruction service.
type PollStatus string

const (
	PollQueued    PollStatus = "queued"
	PollRunning   PollStatus = "running"
	PollSucceeded PollStatus = "success"
	PollFailed    PollStatus = "failed"
	PollCancelled PollStatus = "cancelled"
)

type PollResult struct {
	Status   PollStatus
	Progress int
	// Error carries the remote failure detail for PollFailed.
	Error string
}

type JobService interface {
	Submit(ctx context.Context, input domain.JobInput) (string, error)
	Poll(ctx context.Context, externalTaskID string) (PollResult, error)
	// FetchResult resolves the durable result reference of a succeeded task.
	FetchResult(ctx context.Context, externalTaskID string) (string, error)
}
