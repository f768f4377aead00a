package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bnema/refine-cli/internal/adapters/records/recordjson"
	"github.com/bnema/refine-cli/internal/application"
	"github.com/bnema/refine-cli/internal/domain"
	"github.com/go-chi/chi/v5"
	"goa.design/clue/log"
)

const maxRequestBytes = 1 << 16

type handler struct {
	svc           Service
	awaitFeedback bool
}

type startSessionRequest struct {
	TargetDescription string `json:"target_description"`
	Mode              string `json:"mode"`
	AwaitFeedback     *bool  `json:"await_feedback"`
}

type feedbackRequest struct {
	// Feedback may be empty: an empty answer means "continue".
	Feedback string `json:"feedback"`
}

type submitJobRequest struct {
	SessionID string `json:"session_id"`
	Iteration int    `json:"iteration"`
}

type sessionSummary struct {
	ID                string    `json:"id"`
	TargetDescription string    `json:"target_description"`
	Mode              string    `json:"mode"`
	Status            string    `json:"status"`
	CurrentIteration  int       `json:"current_iteration"`
	MaxIterations     int       `json:"max_iterations"`
	LatestOverall     *float64  `json:"latest_overall,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (h *handler) listSessions(w http.ResponseWriter, r *http.Request) {
	summaries := h.svc.ListSessions(r.Context())
	out := make([]sessionSummary, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, sessionSummary{
			ID:                string(s.ID),
			TargetDescription: s.TargetDescription,
			Mode:              string(s.Mode),
			Status:            string(s.Status),
			CurrentIteration:  s.CurrentIteration,
			MaxIterations:     s.MaxIterations,
			LatestOverall:     s.LatestOverall,
			UpdatedAt:         s.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) startSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	await := h.awaitFeedback
	if req.AwaitFeedback != nil {
		await = *req.AwaitFeedback
	}

	session, err := h.svc.StartSession(r.Context(), application.StartSessionCommand{
		TargetDescription: req.TargetDescription,
		Mode:              mode,
		AwaitFeedback:     await,
	})
	if err != nil {
		writeServiceError(w, r, err, http.StatusBadRequest)
		return
	}
	writeSession(w, r, http.StatusCreated, session)
}

func (h *handler) getSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.GetSessionStatus(r.Context(), domain.SessionID(chi.URLParam(r, "id")))
	if err != nil {
		writeServiceError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeSession(w, r, http.StatusOK, session)
}

func (h *handler) submitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	session, err := h.svc.SubmitFeedback(r.Context(), domain.SessionID(chi.URLParam(r, "id")), req.Feedback)
	if err != nil {
		writeServiceError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeSession(w, r, http.StatusAccepted, session)
}

func (h *handler) stopSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.StopSession(r.Context(), domain.SessionID(chi.URLParam(r, "id")))
	if err != nil {
		writeServiceError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeSession(w, r, http.StatusOK, session)
}

func (h *handler) submitJob(w http.ResponseWriter, r *http.Request) {
	var req submitJobRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if req.Iteration < 0 {
		writeError(w, http.StatusBadRequest, "iteration must not be negative")
		return
	}

	record, err := h.svc.SubmitJob(r.Context(), application.SubmitJobCommand{
		SessionID: domain.SessionID(req.SessionID),
		Iteration: req.Iteration,
	})
	if err != nil {
		writeServiceError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJob(w, r, http.StatusAccepted, record)
}

func (h *handler) getJob(w http.ResponseWriter, r *http.Request) {
	record, err := h.svc.GetJobStatus(r.Context(), domain.JobID(chi.URLParam(r, "id")))
	if err != nil {
		writeServiceError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJob(w, r, http.StatusOK, record)
}

// writeServiceError maps domain sentinels to statuses and uses fallback for
// anything else.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback int) {
	status := fallback
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrJobNotFound), errors.Is(err, domain.ErrIterationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrSessionTerminal), errors.Is(err, domain.ErrJobTerminal), errors.Is(err, domain.ErrNoArtifact):
		status = http.StatusConflict
	}
	if status >= http.StatusInternalServerError {
		log.Error(r.Context(), err, log.KV{K: "msg", V: "request failed"}, log.KV{K: "path", V: r.URL.Path})
	}
	writeError(w, status, err.Error())
}

func writeSession(w http.ResponseWriter, r *http.Request, status int, session domain.Session) {
	data, err := recordjson.EncodeSession(session)
	if err != nil {
		writeServiceError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, data)
}

func writeJob(w http.ResponseWriter, r *http.Request, status int, record domain.JobRecord) {
	data, err := recordjson.EncodeJob(record)
	if err != nil {
		writeServiceError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, data)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode response: "+err.Error())
		return
	}
	writeRaw(w, status, data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	data, _ := json.Marshal(errorBody{Error: message})
	writeRaw(w, status, data)
}

func writeRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
	_, _ = w.Write([]byte("\n"))
}
