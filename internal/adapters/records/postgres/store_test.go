package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/bnema/refine-cli/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Set RFN_TEST_POSTGRES_DSN to run against a live database.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("RFN_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("RFN_TEST_POSTGRES_DSN not set, skipping postgres integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreJobTerminalGuard(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	id := domain.JobID("job-" + uuid.NewString())

	_, err := store.GetJob(ctx, id)
	require.ErrorIs(t, err, domain.ErrJobNotFound)

	record := domain.JobRecord{ID: id, ExternalTaskID: "task-1", Status: domain.JobRunning, Progress: 10, UpdatedAt: time.Now()}
	require.NoError(t, store.UpsertJob(ctx, record))

	record.Status = domain.JobCompleted
	record.Progress = 100
	record.ResultReference = "https://cdn/mesh.glb"
	require.NoError(t, store.UpsertJob(ctx, record))

	stale := record
	stale.Status = domain.JobRunning
	stale.ResultReference = ""
	require.ErrorIs(t, store.UpsertJob(ctx, stale), domain.ErrJobTerminal)

	got, err := store.GetJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, got.Status)
	assert.Equal(t, "https://cdn/mesh.glb", got.ResultReference)
}

func TestStoreSessionUpsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	id := domain.SessionID("s-" + uuid.NewString())

	_, err := store.GetSession(ctx, id)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)

	session := domain.Session{ID: id, TargetDescription: "vase", Status: domain.SessionRunning}
	require.NoError(t, store.SaveSession(ctx, session))
	session.Status = domain.SessionStopped
	require.NoError(t, store.SaveSession(ctx, session))

	got, err := store.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStopped, got.Status)
	assert.Equal(t, "vase", got.TargetDescription)
}
