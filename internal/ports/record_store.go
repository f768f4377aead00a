package ports

import (
	"context"

	"github.com/bnema/refine-cli/internal/domain"
)

// JobRecordStore is last-write-wins per job id.
type JobRecordStore interface {
	UpsertJob(ctx context.Context, record domain.JobRecord) error
	GetJob(ctx context.Context, id domain.JobID) (domain.JobRecord, error)
}

type SessionSnapshotStore interface {
	SaveSession(ctx context.Context, session domain.Session) error
	GetSession(ctx context.Context, id domain.SessionID) (domain.Session, error)
}

type RecordStore interface {
	JobRecordStore
	SessionSnapshotStore
}
