package toml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/refine-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var storeNow = time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.toml")
	store, err := NewStore(path)
	require.NoError(t, err)
	return store, path
}

func TestStoreSessionRoundTrip(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	feedback := ""
	eval := domain.EvaluationResult{
		Scores:      map[string]float64{domain.MetricOverall: 6.5, domain.MetricImageQuality: 7},
		Issues:      []string{"grid misaligned"},
		Suggestions: []string{"use a 2x2 grid"},
		RawText:     "Image Quality: 7/10",
	}
	session := domain.Session{
		ID:                  "s-1",
		TargetDescription:   "red mug",
		Mode:                domain.ModeDeep,
		MaxIterations:       6,
		Status:              domain.SessionWaitingForFeedback,
		CurrentIteration:    1,
		PendingUserFeedback: &feedback,
		Iterations: []domain.IterationRecord{
			{Iteration: 1, ArtifactReference: "https://img/1.png", Evaluation: &eval, CreatedAt: storeNow},
		},
		CreatedAt: storeNow,
		UpdatedAt: storeNow.Add(time.Minute),
	}

	require.NoError(t, store.SaveSession(context.Background(), session))

	got, err := store.GetSession(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, session, got)

	session.Status = domain.SessionStopped
	session.PendingUserFeedback = nil
	require.NoError(t, store.SaveSession(context.Background(), session))

	got, err = store.GetSession(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStopped, got.Status)
	assert.Nil(t, got.PendingUserFeedback)
}

func TestStoreJobRoundTripAndTerminalGuard(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	record := domain.JobRecord{
		ID:             "job-1",
		ExternalTaskID: "task-1",
		Status:         domain.JobRunning,
		Progress:       40,
		Input: domain.JobInput{
			SessionID:         "s-1",
			Iteration:         2,
			ArtifactReference: "https://img/2.png",
			TargetDescription: "red mug",
		},
		CreatedAt: storeNow,
		UpdatedAt: storeNow,
	}
	require.NoError(t, store.UpsertJob(context.Background(), record))

	record.Status = domain.JobCompleted
	record.Progress = 100
	record.ResultReference = "https://cdn/mesh.glb"
	require.NoError(t, store.UpsertJob(context.Background(), record))

	got, err := store.GetJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, record, got)

	stale := record
	stale.Status = domain.JobRunning
	stale.ResultReference = ""
	err = store.UpsertJob(context.Background(), stale)
	require.ErrorIs(t, err, domain.ErrJobTerminal)
}

func TestStoreMissingFileBehaviors(t *testing.T) {
	t.Parallel()

	store, err := NewStore(filepath.Join(t.TempDir(), "missing", "records.toml"))
	require.NoError(t, err)

	_, err = store.GetJob(context.Background(), "job-1")
	require.ErrorIs(t, err, domain.ErrJobNotFound)

	_, err = store.GetSession(context.Background(), "s-1")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStoreWriteEnforcesPermissionsAndVersion(t *testing.T) {
	t.Parallel()

	store, path := newTestStore(t)
	require.NoError(t, store.UpsertJob(context.Background(), domain.JobRecord{ID: "job-1", Status: domain.JobPending}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
}

func TestStoreMalformedAndFutureFiles(t *testing.T) {
	t.Parallel()

	store, path := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte("jobs = ["), 0o600))

	_, err := store.GetJob(context.Background(), "job-1")
	assert.ErrorContains(t, err, "decode records file")

	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{"version = 999", "jobs = []", ""}, "\n")), 0o600))
	_, err = store.GetSession(context.Background(), "s-1")
	assert.ErrorContains(t, err, "unsupported records schema version")
}

func TestStoreCanceledContextReturnsContextError(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.SaveSession(ctx, domain.Session{ID: "s-1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestStoreConcurrentWritesAcrossInstances(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "records.toml")
	storeA, err := NewStore(path)
	require.NoError(t, err)
	storeB, err := NewStore(path)
	require.NoError(t, err)

	const perStoreWrites = 50
	start := make(chan struct{})
	errCh := make(chan error, perStoreWrites*2)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		<-start
		for i := 0; i < perStoreWrites; i++ {
			errCh <- storeA.UpsertJob(context.Background(), domain.JobRecord{ID: domain.JobID("job-a-" + strconv.Itoa(i)), Status: domain.JobPending})
		}
	}()

	go func() {
		defer wg.Done()
		<-start
		for i := 0; i < perStoreWrites; i++ {
			errCh <- storeB.SaveSession(context.Background(), domain.Session{ID: domain.SessionID("s-b-" + strconv.Itoa(i)), Status: domain.SessionRunning})
		}
	}()

	close(start)
	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	_, err = storeB.GetJob(context.Background(), "job-a-49")
	require.NoError(t, err)
	_, err = storeA.GetSession(context.Background(), "s-b-49")
	require.NoError(t, err)
}
