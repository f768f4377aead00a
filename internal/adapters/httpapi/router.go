// Package httpapi exposes the session and job status surface over HTTP.
package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bnema/refine-cli/internal/application"
	"github.com/bnema/refine-cli/internal/domain"
	"github.com/go-chi/chi/v5"
	"goa.design/clue/health"
	"goa.design/clue/log"
)

// Service is the subset of application.Service the API needs.
type Service interface {
	StartSession(ctx context.Context, cmd application.StartSessionCommand) (domain.Session, error)
	GetSessionStatus(ctx context.Context, id domain.SessionID) (domain.Session, error)
	ListSessions(ctx context.Context) []application.SessionSummary
	SubmitFeedback(ctx context.Context, id domain.SessionID, text string) (domain.Session, error)
	StopSession(ctx context.Context, id domain.SessionID) (domain.Session, error)
	SubmitJob(ctx context.Context, cmd application.SubmitJobCommand) (domain.JobRecord, error)
	GetJobStatus(ctx context.Context, id domain.JobID) (domain.JobRecord, error)
}

type Options struct {
	// AwaitFeedback is the default for sessions started without an explicit
	// await_feedback field.
	AwaitFeedback bool
	Pingers       []health.Pinger
}

// NewRouter builds the chi router. logCtx carries the clue logger used for
// request logging.
func NewRouter(logCtx context.Context, svc Service, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(log.HTTP(logCtx))
	r.Use(recovery)

	h := &handler{svc: svc, awaitFeedback: opts.AwaitFeedback}

	r.Get("/health", health.Handler(health.NewChecker(opts.Pingers...)))

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", h.listSessions)
		r.Post("/", h.startSession)
		r.Get("/{id}", h.getSession)
		r.Post("/{id}/feedback", h.submitFeedback)
		r.Post("/{id}/stop", h.stopSession)
	})

	r.Route("/jobs", func(r chi.Router) {
		r.Post("/", h.submitJob)
		r.Get("/{id}", h.getJob)
	})

	return r
}

func recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error(r.Context(), fmt.Errorf("panic: %v", rec), log.KV{K: "msg", V: "panic recovered"}, log.KV{K: "path", V: r.URL.Path})
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
