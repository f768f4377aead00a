package inmem

import (
	"context"
	"testing"

	"github.com/bnema/refine-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreJobRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()

	_, err := store.GetJob(ctx, "job-1")
	require.ErrorIs(t, err, domain.ErrJobNotFound)

	record := domain.JobRecord{ID: "job-1", Status: domain.JobRunning, ExternalTaskID: "task-1", Progress: 20}
	require.NoError(t, store.UpsertJob(ctx, record))
	record.Progress = 60
	require.NoError(t, store.UpsertJob(ctx, record))

	got, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, 60, got.Progress)
}

func TestStoreRefusesTerminalOverwrite(t *testing.T) {
	store := New()
	ctx := context.Background()

	done := domain.JobRecord{ID: "job-1", Status: domain.JobCompleted, ResultReference: "s3://mesh.glb"}
	require.NoError(t, store.UpsertJob(ctx, done))

	err := store.UpsertJob(ctx, domain.JobRecord{ID: "job-1", Status: domain.JobRunning})
	require.ErrorIs(t, err, domain.ErrJobTerminal)

	got, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, done, got)
}

func TestStoreSessionSnapshotsAreCopies(t *testing.T) {
	store := New()
	ctx := context.Background()

	feedback := "brighter"
	session := domain.Session{
		ID:                  "s-1",
		Status:              domain.SessionRunning,
		Iterations:          []domain.IterationRecord{{Iteration: 1, ArtifactReference: "a"}},
		PendingUserFeedback: &feedback,
	}
	require.NoError(t, store.SaveSession(ctx, session))
	session.Iterations[0].ArtifactReference = "mutated"
	feedback = "mutated"

	got, err := store.GetSession(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Iterations[0].ArtifactReference)
	require.NotNil(t, got.PendingUserFeedback)
	assert.Equal(t, "brighter", *got.PendingUserFeedback)

	_, err = store.GetSession(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}
