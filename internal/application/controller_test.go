package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bnema/refine-cli/internal/adapters/records/inmem"
	"github.com/bnema/refine-cli/internal/domain"
	"github.com/bnema/refine-cli/internal/ports"
	"github.com/bnema/refine-cli/internal/ports/mocks"
	"github.com/bnema/refine-cli/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestControllerQuickModeRunsFullBudgetWithoutConvergence(t *testing.T) {
	generator := mocks.NewMockGenerator(t)
	evaluator := mocks.NewMockEvaluator(t)
	store := inmem.New()
	c := newTestController(generator, evaluator, nil, store)

	generator.EXPECT().Generate(mockAnyContext(), mock.Anything).
		RunAndReturn(func(_ context.Context, req ports.GenerationRequest) (string, error) {
			return fmt.Sprintf("img-%d", req.Iteration), nil
		}).Times(3)
	evaluator.EXPECT().Evaluate(mockAnyContext(), mock.Anything, "red mug").Return(lowCritique, nil).Times(3)

	session, err := c.Run(context.Background(), "s-1", "red mug", domain.ModeQuick, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, domain.SessionCompleted, session.Status)
	assert.Equal(t, 3, session.CurrentIteration)
	require.Len(t, session.Iterations, 3)
	for i, record := range session.Iterations {
		assert.Equal(t, i+1, record.Iteration)
		assert.Equal(t, fmt.Sprintf("img-%d", i+1), record.ArtifactReference)
		require.NotNil(t, record.Evaluation)
		assert.False(t, record.Evaluation.Fallback)
	}

	snapshot, err := store.GetSession(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, snapshot.Status)
	assert.Len(t, snapshot.Iterations, 3)
}

func TestControllerStopsEarlyOnConvergence(t *testing.T) {
	generator := mocks.NewMockGenerator(t)
	evaluator := mocks.NewMockEvaluator(t)
	c := newTestController(generator, evaluator, nil, nil)

	generator.EXPECT().Generate(mockAnyContext(), mock.Anything).Return("img", nil).Times(2)
	evaluator.EXPECT().Evaluate(mockAnyContext(), "img", "teapot").Return(lowCritique, nil).Once()
	evaluator.EXPECT().Evaluate(mockAnyContext(), "img", "teapot").Return(highCritique, nil).Once()

	session, err := c.Run(context.Background(), "s-1", "teapot", domain.ModeDeep, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, domain.SessionCompleted, session.Status)
	assert.Equal(t, 2, session.CurrentIteration)
	assert.Equal(t, 6, session.MaxIterations)
}

func TestControllerGenerationFailureFailsSession(t *testing.T) {
	tests := []struct {
		name      string
		artifact  string
		err       error
		wantInMsg string
	}{
		{name: "generator error", err: errors.New("quota reached"), wantInMsg: "quota reached"},
		{name: "empty artifact", artifact: "  ", wantInMsg: domain.ErrNoArtifact.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator := mocks.NewMockGenerator(t)
			evaluator := mocks.NewMockEvaluator(t)
			c := newTestController(generator, evaluator, nil, nil)

			generator.EXPECT().Generate(mockAnyContext(), mock.Anything).Return(tt.artifact, tt.err).Once()

			session, err := c.Run(context.Background(), "s-1", "lamp", domain.ModeQuick, RunOptions{})
			require.NoError(t, err)

			assert.Equal(t, domain.SessionFailed, session.Status)
			assert.Contains(t, session.ErrorMessage, "generate iteration 1")
			assert.Contains(t, session.ErrorMessage, tt.wantInMsg)
			assert.Empty(t, session.Iterations)
			evaluator.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestControllerFallsBackAfterEvaluationAttempts(t *testing.T) {
	generator := mocks.NewMockGenerator(t)
	evaluator := mocks.NewMockEvaluator(t)
	c := newTestController(generator, evaluator, nil, nil)

	generator.EXPECT().Generate(mockAnyContext(), mock.Anything).Return("img", nil).Times(3)
	evaluator.EXPECT().Evaluate(mockAnyContext(), "img", "chair").Return("", errors.New("overloaded")).Times(9)

	session, err := c.Run(context.Background(), "s-1", "chair", domain.ModeQuick, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, domain.SessionCompleted, session.Status)
	require.Len(t, session.Iterations, 3)
	for _, record := range session.Iterations {
		require.NotNil(t, record.Evaluation)
		assert.True(t, record.Evaluation.Fallback)
		assert.Equal(t, scoring.FallbackScore, record.Evaluation.Overall())
	}
}

func TestControllerEvaluationRecoversOnRetry(t *testing.T) {
	generator := mocks.NewMockGenerator(t)
	evaluator := mocks.NewMockEvaluator(t)
	c := newTestController(generator, evaluator, nil, nil)

	generator.EXPECT().Generate(mockAnyContext(), mock.Anything).Return("img", nil).Once()
	evaluator.EXPECT().Evaluate(mockAnyContext(), "img", "chair").Return("", errors.New("503")).Once()
	evaluator.EXPECT().Evaluate(mockAnyContext(), "img", "chair").Return(highCritique, nil).Once()

	session, err := c.Run(context.Background(), "s-1", "chair", domain.ModeQuick, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, domain.SessionCompleted, session.Status)
	require.Len(t, session.Iterations, 1)
	assert.False(t, session.Iterations[0].Evaluation.Fallback)
}

func TestControllerFeedbackReachesNextGeneration(t *testing.T) {
	generator := mocks.NewMockGenerator(t)
	evaluator := mocks.NewMockEvaluator(t)
	notifier := mocks.NewMockFeedbackNotifier(t)
	c := newTestController(generator, evaluator, notifier, nil)

	var mu sync.Mutex
	var requests []ports.GenerationRequest
	generator.EXPECT().Generate(mockAnyContext(), mock.Anything).
		RunAndReturn(func(_ context.Context, req ports.GenerationRequest) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			requests = append(requests, req)
			return fmt.Sprintf("img-%d", req.Iteration), nil
		}).Times(3)
	evaluator.EXPECT().Evaluate(mockAnyContext(), mock.Anything, "red mug").Return(lowCritique, nil).Times(3)
	notifier.EXPECT().Notify(mockAnyContext(), mock.Anything).
		RunAndReturn(func(_ context.Context, prompt ports.FeedbackPrompt) error {
			assert.Equal(t, domain.SessionID("s-1"), prompt.SessionID)
			assert.Equal(t, 3, prompt.MaxIterations)
			assert.Equal(t, fmt.Sprintf("img-%d", prompt.Iteration), prompt.ArtifactReference)
			return nil
		}).Times(2)

	done := runAsync(c, "s-1", "red mug", domain.ModeQuick, RunOptions{AwaitFeedback: true})

	waitForStatus(t, c, "s-1", domain.SessionWaitingForFeedback, 1)
	_, err := c.Registry().SubmitFeedback("s-1", "make the handle thicker")
	require.NoError(t, err)

	waitForStatus(t, c, "s-1", domain.SessionWaitingForFeedback, 2)
	_, err = c.Registry().SubmitFeedback("s-1", "")
	require.NoError(t, err)

	session := awaitSession(t, done)
	assert.Equal(t, domain.SessionCompleted, session.Status)
	assert.Len(t, session.Iterations, 3)
	assert.Nil(t, session.PendingUserFeedback)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, requests, 3)
	assert.Empty(t, requests[0].UserFeedback)
	assert.True(t, requests[0].Digest.Empty())
	assert.Empty(t, requests[0].PreviousArtifact)

	assert.Equal(t, "make the handle thicker", requests[1].UserFeedback)
	assert.Equal(t, "img-1", requests[1].PreviousArtifact)
	assert.Equal(t, []string{"remove the background props"}, requests[1].PreviousSuggestions)
	assert.True(t, requests[1].Digest.Empty())

	assert.Empty(t, requests[2].UserFeedback)
	assert.True(t, requests[2].Digest.IsRecurring(domain.CategoryBackground))
	assert.Len(t, requests[2].Digest.ScoreTrend, 2)
}

func TestControllerStopDuringFeedbackWait(t *testing.T) {
	generator := mocks.NewMockGenerator(t)
	evaluator := mocks.NewMockEvaluator(t)
	notifier := mocks.NewMockFeedbackNotifier(t)
	store := inmem.New()
	c := newTestController(generator, evaluator, notifier, store)

	generator.EXPECT().Generate(mockAnyContext(), mock.Anything).Return("img-1", nil).Once()
	evaluator.EXPECT().Evaluate(mockAnyContext(), "img-1", "vase").Return(lowCritique, nil).Once()
	notifier.EXPECT().Notify(mockAnyContext(), mock.Anything).Return(errors.New("broker down")).Once()

	done := runAsync(c, "s-1", "vase", domain.ModeDeep, RunOptions{AwaitFeedback: true})
	waitForStatus(t, c, "s-1", domain.SessionWaitingForFeedback, 1)

	stopped, err := c.Registry().Stop("s-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStopped, stopped.Status)

	session := awaitSession(t, done)
	assert.Equal(t, domain.SessionStopped, session.Status)
	assert.Len(t, session.Iterations, 1)

	_, err = c.Registry().SubmitFeedback("s-1", "too late")
	require.ErrorIs(t, err, domain.ErrSessionTerminal)

	snapshot, err := store.GetSession(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStopped, snapshot.Status)
}

func TestControllerStopInterruptsGeneration(t *testing.T) {
	generator := mocks.NewMockGenerator(t)
	evaluator := mocks.NewMockEvaluator(t)
	c := newTestController(generator, evaluator, nil, nil)

	started := make(chan struct{})
	generator.EXPECT().Generate(mockAnyContext(), mock.Anything).
		RunAndReturn(func(ctx context.Context, _ ports.GenerationRequest) (string, error) {
			close(started)
			<-ctx.Done()
			return "", ctx.Err()
		}).Once()

	done := runAsync(c, "s-1", "vase", domain.ModeQuick, RunOptions{})
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("generation never started")
	}

	_, err := c.Registry().Stop("s-1")
	require.NoError(t, err)

	session := awaitSession(t, done)
	assert.Equal(t, domain.SessionStopped, session.Status)
	assert.Empty(t, session.Iterations)
	assert.Empty(t, session.ErrorMessage)
}

func TestControllerParentCancelStopsSession(t *testing.T) {
	generator := mocks.NewMockGenerator(t)
	evaluator := mocks.NewMockEvaluator(t)
	c := newTestController(generator, evaluator, nil, nil)

	generator.EXPECT().Generate(mockAnyContext(), mock.Anything).Return("img-1", nil).Once()
	evaluator.EXPECT().Evaluate(mockAnyContext(), "img-1", "vase").Return(lowCritique, nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan domain.Session, 1)
	go func() {
		session, _ := c.Run(ctx, "s-1", "vase", domain.ModeQuick, RunOptions{AwaitFeedback: true})
		done <- session
	}()

	waitForStatus(t, c, "s-1", domain.SessionWaitingForFeedback, 1)
	cancel()

	session := awaitSession(t, done)
	assert.Equal(t, domain.SessionStopped, session.Status)
}

func TestControllerRegisterValidation(t *testing.T) {
	c := newTestController(nil, nil, nil, nil)

	_, err := c.Register(context.Background(), "s-1", "   ", domain.ModeQuick)
	require.Error(t, err)

	_, err = c.Register(context.Background(), "s-1", "mug", domain.Mode("turbo"))
	require.Error(t, err)

	session, err := c.Register(context.Background(), "s-1", " mug ", domain.ModeDeep)
	require.NoError(t, err)
	assert.Equal(t, "mug", session.TargetDescription)
	assert.Equal(t, domain.SessionRunning, session.Status)
	assert.Equal(t, testNow, session.CreatedAt)

	_, err = c.Register(context.Background(), "s-1", "mug", domain.ModeDeep)
	require.ErrorIs(t, err, ErrSessionExists)
}

func TestControllerConfigMaxIterations(t *testing.T) {
	cfg := ControllerConfig{QuickIterations: 2}.withDefaults()

	quick, err := cfg.MaxIterations(domain.ModeQuick)
	require.NoError(t, err)
	assert.Equal(t, 2, quick)

	deep, err := cfg.MaxIterations(domain.ModeDeep)
	require.NoError(t, err)
	assert.Equal(t, 6, deep)

	_, err = cfg.MaxIterations("other")
	require.Error(t, err)
}

func runAsync(c *Controller, id domain.SessionID, target string, mode domain.Mode, opts RunOptions) <-chan domain.Session {
	done := make(chan domain.Session, 1)
	go func() {
		session, _ := c.Run(context.Background(), id, target, mode, opts)
		done <- session
	}()
	return done
}

func awaitSession(t *testing.T, done <-chan domain.Session) domain.Session {
	t.Helper()
	select {
	case session := <-done:
		return session
	case <-time.After(5 * time.Second):
		t.Fatal("session did not finish")
		return domain.Session{}
	}
}

func waitForStatus(t *testing.T, c *Controller, id domain.SessionID, status domain.SessionStatus, iteration int) {
	t.Helper()
	require.Eventually(t, func() bool {
		session, err := c.Registry().Get(id)
		return err == nil && session.Status == status && session.CurrentIteration == iteration
	}, 5*time.Second, 2*time.Millisecond)
}
