package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/refine-cli/internal/domain"
	"github.com/bnema/refine-cli/internal/history"
	"github.com/bnema/refine-cli/internal/ports"
	"github.com/bnema/refine-cli/internal/scoring"
	"github.com/bnema/refine-cli/internal/telemetry"
	"goa.design/clue/log"
)

type RunOptions struct {
	// AwaitFeedback pauses between iterations until feedback arrives or the
	// session is stopped. When false the loop moves straight on.
	AwaitFeedback bool
}

type ControllerConfig struct {
	QuickIterations      int
	DeepIterations       int
	EvaluationAttempts   int
	EvaluationRetryDelay time.Duration
	// FeedbackPollInterval bounds how long a feedback wait goes without
	// re-reading session state.
	FeedbackPollInterval time.Duration
}

func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		QuickIterations:      3,
		DeepIterations:       6,
		EvaluationAttempts:   3,
		EvaluationRetryDelay: 2 * time.Second,
		FeedbackPollInterval: 500 * time.Millisecond,
	}
}

func (c ControllerConfig) withDefaults() ControllerConfig {
	def := DefaultControllerConfig()
	if c.QuickIterations <= 0 {
		c.QuickIterations = def.QuickIterations
	}
	if c.DeepIterations <= 0 {
		c.DeepIterations = def.DeepIterations
	}
	if c.EvaluationAttempts <= 0 {
		c.EvaluationAttempts = def.EvaluationAttempts
	}
	if c.EvaluationRetryDelay < 0 {
		c.EvaluationRetryDelay = def.EvaluationRetryDelay
	}
	if c.FeedbackPollInterval <= 0 {
		c.FeedbackPollInterval = def.FeedbackPollInterval
	}
	return c
}

func (c ControllerConfig) MaxIterations(mode domain.Mode) (int, error) {
	switch mode {
	case domain.ModeQuick:
		return c.QuickIterations, nil
	case domain.ModeDeep:
		return c.DeepIterations, nil
	default:
		return 0, fmt.Errorf("unsupported mode %q", mode)
	}
}

// ControllerDeps groups the collaborators of a Controller. Snapshots,
// Notifier and Telemetry are optional.
type ControllerDeps struct {
	Registry  *SessionRegistry
	Generator ports.Generator
	Evaluator ports.Evaluator
	Parser    scoring.Parser
	Policy    scoring.Policy
	Analyzer  history.Analyzer
	Snapshots ports.SessionSnapshotStore
	Notifier  ports.FeedbackNotifier
	Clock     ports.Clock
	Telemetry *telemetry.Recorder
}

// Controller runs refinement sessions: generate, evaluate, check convergence,
// optionally wait for feedback, repeat within the mode's iteration budget.
type Controller struct {
	deps ControllerDeps
	cfg  ControllerConfig
}

func NewController(deps ControllerDeps, cfg ControllerConfig) *Controller {
	if deps.Clock == nil {
		deps.Clock = ports.SystemClock{}
	}
	if deps.Registry == nil {
		deps.Registry = NewSessionRegistry(deps.Clock)
	}

	return &Controller{deps: deps, cfg: cfg.withDefaults()}
}

func (c *Controller) Registry() *SessionRegistry {
	return c.deps.Registry
}

// Register creates the Running session without starting its loop.
func (c *Controller) Register(ctx context.Context, id domain.SessionID, target string, mode domain.Mode) (domain.Session, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return domain.Session{}, errors.New("target description is required")
	}
	maxIterations, err := c.cfg.MaxIterations(mode)
	if err != nil {
		return domain.Session{}, err
	}

	now := c.deps.Clock.Now()
	session := domain.Session{
		ID:                id,
		TargetDescription: target,
		Mode:              mode,
		MaxIterations:     maxIterations,
		Status:            domain.SessionRunning,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := c.deps.Registry.Create(session); err != nil {
		return domain.Session{}, err
	}
	c.persist(ctx, session)

	return session, nil
}

// Run registers the session and blocks until it is Completed, Failed or
// Stopped. Collaborator failures never surface as errors; they end up in the
// returned session's status.
func (c *Controller) Run(ctx context.Context, id domain.SessionID, target string, mode domain.Mode, opts RunOptions) (domain.Session, error) {
	if _, err := c.Register(ctx, id, target, mode); err != nil {
		return domain.Session{}, err
	}
	return c.drive(ctx, id, opts), nil
}

func (c *Controller) drive(ctx context.Context, id domain.SessionID, opts RunOptions) domain.Session {
	ctx = log.With(ctx, log.KV{K: "session", V: string(id)})
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := c.deps.Registry.bindCancel(id, cancel); err != nil {
		log.Error(ctx, err, log.KV{K: "msg", V: "session not registered"})
		return domain.Session{}
	}
	log.Info(ctx, log.KV{K: "msg", V: "session started"}, log.KV{K: "await_feedback", V: opts.AwaitFeedback})

	for {
		session, err := c.deps.Registry.Get(id)
		if err != nil {
			log.Error(ctx, err, log.KV{K: "msg", V: "load session"})
			return domain.Session{}
		}
		if session.Status.Terminal() {
			return c.finish(ctx, session)
		}
		if runCtx.Err() != nil {
			return c.stopped(ctx, id)
		}
		if session.CurrentIteration >= session.MaxIterations {
			return c.finish(ctx, c.transition(ctx, id, domain.SessionCompleted, ""))
		}

		record, converged, ok := c.iterate(runCtx, session)
		if !ok {
			continue
		}
		if converged {
			log.Info(ctx, log.KV{K: "msg", V: "converged"}, log.KV{K: "iteration", V: record.Iteration})
			return c.finish(ctx, c.transition(ctx, id, domain.SessionCompleted, ""))
		}
		if opts.AwaitFeedback && record.Iteration < session.MaxIterations {
			c.awaitFeedback(runCtx, session, record)
		}
	}
}

// iterate runs one generate+evaluate step. ok is false when the step ended
// the session or was interrupted by a stop.
func (c *Controller) iterate(ctx context.Context, session domain.Session) (record domain.IterationRecord, converged bool, ok bool) {
	iteration := session.CurrentIteration + 1
	spanCtx, span := c.deps.Telemetry.StartIteration(ctx, string(session.ID), iteration)
	started := time.Now()

	var feedback string
	if _, err := c.update(ctx, session.ID, func(s *domain.Session) error {
		if s.PendingUserFeedback != nil {
			feedback = *s.PendingUserFeedback
			s.PendingUserFeedback = nil
		}
		return nil
	}); err != nil {
		telemetry.EndSpan(span, err)
		return domain.IterationRecord{}, false, false
	}

	artifact, err := c.deps.Generator.Generate(spanCtx, c.generationRequest(session, iteration, feedback))
	if ctx.Err() != nil {
		telemetry.EndSpan(span, ctx.Err())
		return domain.IterationRecord{}, false, false
	}
	if err == nil && strings.TrimSpace(artifact) == "" {
		err = domain.ErrNoArtifact
	}
	if err != nil {
		err = fmt.Errorf("generate iteration %d: %w", iteration, err)
		log.Error(ctx, err, log.KV{K: "msg", V: "generation failed"}, log.KV{K: "iteration", V: iteration})
		c.transition(ctx, session.ID, domain.SessionFailed, err.Error())
		telemetry.EndSpan(span, err)
		return domain.IterationRecord{}, false, false
	}

	record = domain.IterationRecord{
		Iteration:         iteration,
		ArtifactReference: artifact,
		CreatedAt:         c.deps.Clock.Now(),
	}
	if _, err := c.update(ctx, session.ID, func(s *domain.Session) error {
		s.Iterations = append(s.Iterations, record)
		s.CurrentIteration = len(s.Iterations)
		return nil
	}); err != nil {
		telemetry.EndSpan(span, err)
		return domain.IterationRecord{}, false, false
	}

	evaluation := c.evaluate(spanCtx, artifact, session.TargetDescription)
	if ctx.Err() != nil {
		telemetry.EndSpan(span, ctx.Err())
		return domain.IterationRecord{}, false, false
	}
	if _, err := c.update(ctx, session.ID, func(s *domain.Session) error {
		eval := evaluation.Clone()
		s.Iterations[len(s.Iterations)-1].Evaluation = &eval
		return nil
	}); err != nil {
		telemetry.EndSpan(span, err)
		return domain.IterationRecord{}, false, false
	}
	record.Evaluation = &evaluation

	converged = c.deps.Policy.IsSatisfied(evaluation.Scores)
	log.Info(ctx,
		log.KV{K: "msg", V: "iteration evaluated"},
		log.KV{K: "iteration", V: iteration},
		log.KV{K: "overall", V: evaluation.Overall()},
		log.KV{K: "fallback", V: evaluation.Fallback},
		log.KV{K: "converged", V: converged},
	)
	c.deps.Telemetry.IterationDone(ctx, string(session.Mode), time.Since(started), converged)
	telemetry.EndSpan(span, nil)

	return record, converged, true
}

func (c *Controller) generationRequest(session domain.Session, iteration int, feedback string) ports.GenerationRequest {
	req := ports.GenerationRequest{
		TargetDescription: session.TargetDescription,
		Iteration:         iteration,
		UserFeedback:      feedback,
	}
	if history.ShouldSummarize(session.Iterations) {
		req.Digest = c.deps.Analyzer.Summarize(session.Iterations)
	}
	if latest, ok := session.Latest(); ok {
		req.PreviousArtifact = latest.ArtifactReference
		if latest.Evaluation != nil && !latest.Evaluation.Fallback {
			req.PreviousSuggestions = append([]string(nil), latest.Evaluation.Suggestions...)
		}
	}
	return req
}

// evaluate retries the evaluator with a fixed delay and falls back to neutral
// scores once attempts run out.
func (c *Controller) evaluate(ctx context.Context, artifact, target string) domain.EvaluationResult {
	for attempt := 1; attempt <= c.cfg.EvaluationAttempts; attempt++ {
		text, err := c.deps.Evaluator.Evaluate(ctx, artifact, target)
		if err == nil {
			return c.deps.Parser.Parse(text)
		}
		if ctx.Err() != nil {
			break
		}
		log.Warn(ctx,
			log.KV{K: "msg", V: "evaluation attempt failed"},
			log.KV{K: "attempt", V: attempt},
			log.KV{K: "max_attempts", V: c.cfg.EvaluationAttempts},
			log.KV{K: "err", V: err.Error()},
		)
		if attempt == c.cfg.EvaluationAttempts || !sleep(ctx, c.cfg.EvaluationRetryDelay) {
			break
		}
	}

	log.Warn(ctx, log.KV{K: "msg", V: "evaluation unavailable, using fallback scores"})
	c.deps.Telemetry.EvaluationFallback(ctx)
	return scoring.Fallback()
}

// awaitFeedback blocks in WaitingForFeedback until feedback is pending, the
// session stops, or ctx is cancelled.
func (c *Controller) awaitFeedback(ctx context.Context, session domain.Session, record domain.IterationRecord) {
	if _, err := c.update(ctx, session.ID, func(s *domain.Session) error {
		s.Status = domain.SessionWaitingForFeedback
		return nil
	}); err != nil {
		return
	}
	log.Info(ctx, log.KV{K: "msg", V: "waiting for feedback"}, log.KV{K: "iteration", V: record.Iteration})

	if c.deps.Notifier != nil {
		prompt := ports.FeedbackPrompt{
			SessionID:         session.ID,
			Iteration:         record.Iteration,
			MaxIterations:     session.MaxIterations,
			ArtifactReference: record.ArtifactReference,
		}
		if record.Evaluation != nil {
			prompt.Evaluation = record.Evaluation.Clone()
		}
		if err := c.deps.Notifier.Notify(ctx, prompt); err != nil {
			log.Warn(ctx, log.KV{K: "msg", V: "publish feedback prompt"}, log.KV{K: "err", V: err.Error()})
		}
	}

	wake, stopped, err := c.deps.Registry.signals(session.ID)
	if err != nil {
		return
	}
	ticker := time.NewTicker(c.cfg.FeedbackPollInterval)
	defer ticker.Stop()

	for {
		current, err := c.deps.Registry.Get(session.ID)
		if err != nil || current.Status.Terminal() {
			return
		}
		if current.PendingUserFeedback != nil {
			if _, err := c.update(ctx, session.ID, func(s *domain.Session) error {
				s.Status = domain.SessionRunning
				return nil
			}); err == nil {
				log.Info(ctx, log.KV{K: "msg", V: "feedback received"}, log.KV{K: "empty", V: *current.PendingUserFeedback == ""})
			}
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-stopped:
			return
		case <-wake:
		case <-ticker.C:
		}
	}
}

// update mutates the session through the registry, stamps UpdatedAt and
// persists a snapshot.
func (c *Controller) update(ctx context.Context, id domain.SessionID, fn func(*domain.Session) error) (domain.Session, error) {
	session, err := c.deps.Registry.Update(id, func(s *domain.Session) error {
		if err := fn(s); err != nil {
			return err
		}
		s.UpdatedAt = c.deps.Clock.Now()
		return nil
	})
	if err != nil {
		return session, err
	}
	c.persist(ctx, session)
	return session, nil
}

func (c *Controller) transition(ctx context.Context, id domain.SessionID, status domain.SessionStatus, message string) domain.Session {
	session, err := c.update(ctx, id, func(s *domain.Session) error {
		s.Status = status
		s.ErrorMessage = message
		return nil
	})
	if err != nil && !errors.Is(err, domain.ErrSessionTerminal) {
		log.Error(ctx, err, log.KV{K: "msg", V: "update session status"})
	}
	return session
}

func (c *Controller) stopped(ctx context.Context, id domain.SessionID) domain.Session {
	session, err := c.deps.Registry.Stop(id)
	if err != nil {
		log.Error(ctx, err, log.KV{K: "msg", V: "stop session"})
	}
	return c.finish(ctx, session)
}

func (c *Controller) finish(ctx context.Context, session domain.Session) domain.Session {
	c.persist(ctx, session)
	log.Info(ctx,
		log.KV{K: "msg", V: "session finished"},
		log.KV{K: "status", V: string(session.Status)},
		log.KV{K: "iterations", V: session.CurrentIteration},
	)
	return session
}

func (c *Controller) persist(ctx context.Context, session domain.Session) {
	if c.deps.Snapshots == nil || session.ID == "" {
		return
	}
	if err := c.deps.Snapshots.SaveSession(context.WithoutCancel(ctx), session); err != nil {
		log.Warn(ctx, log.KV{K: "msg", V: "persist session snapshot"}, log.KV{K: "err", V: err.Error()})
	}
}

// sleep waits for d or until ctx is done. It reports whether the full delay
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
