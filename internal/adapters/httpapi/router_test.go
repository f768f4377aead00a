package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bnema/refine-cli/internal/application"
	"github.com/bnema/refine-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"goa.design/clue/health"
	"goa.design/clue/log"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type fakeService struct {
	sessions  map[domain.SessionID]domain.Session
	jobs      map[domain.JobID]domain.JobRecord
	started   []application.StartSessionCommand
	feedback  map[domain.SessionID]string
	submitted []application.SubmitJobCommand
	startErr  error
	panicOn   string
}

func newFakeService() *fakeService {
	return &fakeService{
		sessions: map[domain.SessionID]domain.Session{},
		jobs:     map[domain.JobID]domain.JobRecord{},
		feedback: map[domain.SessionID]string{},
	}
}

func (f *fakeService) StartSession(_ context.Context, cmd application.StartSessionCommand) (domain.Session, error) {
	if f.startErr != nil {
		return domain.Session{}, f.startErr
	}
	f.started = append(f.started, cmd)
	session := domain.Session{
		ID:                "s-new",
		TargetDescription: cmd.TargetDescription,
		Mode:              cmd.Mode,
		MaxIterations:     3,
		Status:            domain.SessionRunning,
		CreatedAt:         testNow,
		UpdatedAt:         testNow,
	}
	f.sessions[session.ID] = session
	return session, nil
}

func (f *fakeService) GetSessionStatus(_ context.Context, id domain.SessionID) (domain.Session, error) {
	if string(id) == f.panicOn {
		panic("boom")
	}
	session, ok := f.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session, nil
}

func (f *fakeService) ListSessions(context.Context) []application.SessionSummary {
	overall := 6.5
	return []application.SessionSummary{{ID: "s-1", TargetDescription: "vase", Mode: domain.ModeQuick, Status: domain.SessionRunning, MaxIterations: 3, LatestOverall: &overall, UpdatedAt: testNow}}
}

func (f *fakeService) SubmitFeedback(_ context.Context, id domain.SessionID, text string) (domain.Session, error) {
	session, ok := f.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if session.Status.Terminal() {
		return session, domain.ErrSessionTerminal
	}
	f.feedback[id] = text
	session.PendingUserFeedback = &text
	return session, nil
}

func (f *fakeService) StopSession(_ context.Context, id domain.SessionID) (domain.Session, error) {
	session, ok := f.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	session.Status = domain.SessionStopped
	f.sessions[id] = session
	return session, nil
}

func (f *fakeService) SubmitJob(_ context.Context, cmd application.SubmitJobCommand) (domain.JobRecord, error) {
	if _, ok := f.sessions[cmd.SessionID]; !ok {
		return domain.JobRecord{}, fmt.Errorf("submit: %w", domain.ErrSessionNotFound)
	}
	if cmd.Iteration > 1 {
		return domain.JobRecord{}, fmt.Errorf("session %s: %w: %d", cmd.SessionID, domain.ErrIterationNotFound, cmd.Iteration)
	}
	f.submitted = append(f.submitted, cmd)
	return domain.JobRecord{ID: "job-1", Status: domain.JobPending, Input: domain.JobInput{SessionID: cmd.SessionID, Iteration: 1, ArtifactReference: "img-1"}, CreatedAt: testNow, UpdatedAt: testNow}, nil
}

func (f *fakeService) GetJobStatus(_ context.Context, id domain.JobID) (domain.JobRecord, error) {
	record, ok := f.jobs[id]
	if !ok {
		return domain.JobRecord{}, fmt.Errorf("get job %s: %w", id, domain.ErrJobNotFound)
	}
	return record, nil
}

type fakePinger struct {
	name string
	err  error
}

func (p fakePinger) Name() string               { return p.name }
func (p fakePinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T, svc Service, opts Options) *httptest.Server {
	t.Helper()
	logCtx := log.Context(context.Background(), log.WithOutput(io.Discard))
	server := httptest.NewServer(NewRouter(logCtx, svc, opts))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var out map[string]any
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 && data[0] == '{' {
		require.NoError(t, json.Unmarshal(data, &out))
	}
	return resp, out
}

func TestStartAndGetSession(t *testing.T) {
	svc := newFakeService()
	server := newTestServer(t, svc, Options{AwaitFeedback: true})

	resp, body := doJSON(t, http.MethodPost, server.URL+"/sessions", `{"target_description":"ceramic vase","mode":"deep"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "s-new", body["id"])
	assert.Equal(t, "running", body["status"])
	require.Len(t, svc.started, 1)
	assert.Equal(t, domain.ModeDeep, svc.started[0].Mode)
	assert.True(t, svc.started[0].AwaitFeedback)

	resp, body = doJSON(t, http.MethodGet, server.URL+"/sessions/s-new", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ceramic vase", body["target_description"])

	resp, body = doJSON(t, http.MethodGet, server.URL+"/sessions/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, domain.ErrSessionNotFound.Error(), body["error"])
}

func TestStartSessionValidation(t *testing.T) {
	svc := newFakeService()
	server := newTestServer(t, svc, Options{})

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/sessions", `{"target_description":"vase","mode":"turbo"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/sessions", `{"target":"vase"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	svc.startErr = errors.New("start session: target description is required")
	resp, body := doJSON(t, http.MethodPost, server.URL+"/sessions", `{"target_description":"  ","await_feedback":false}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "target description is required")
	assert.Empty(t, svc.started)
}

func TestStartSessionAwaitOverride(t *testing.T) {
	svc := newFakeService()
	server := newTestServer(t, svc, Options{AwaitFeedback: true})

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/sessions", `{"target_description":"vase","await_feedback":false}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, svc.started, 1)
	assert.False(t, svc.started[0].AwaitFeedback)
	assert.Equal(t, domain.ModeQuick, svc.started[0].Mode)
}

func TestFeedbackAndStop(t *testing.T) {
	svc := newFakeService()
	svc.sessions["s-1"] = domain.Session{ID: "s-1", Status: domain.SessionWaitingForFeedback}
	svc.sessions["s-done"] = domain.Session{ID: "s-done", Status: domain.SessionCompleted}
	server := newTestServer(t, svc, Options{})

	resp, body := doJSON(t, http.MethodPost, server.URL+"/sessions/s-1/feedback", `{"feedback":"make it blue"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "make it blue", body["pending_user_feedback"])
	assert.Equal(t, "make it blue", svc.feedback["s-1"])

	resp, body = doJSON(t, http.MethodPost, server.URL+"/sessions/s-1/feedback", `{"feedback":""}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "", body["pending_user_feedback"])

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/sessions/s-done/feedback", `{"feedback":"x"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/sessions/nope/feedback", `{"feedback":"x"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = doJSON(t, http.MethodPost, server.URL+"/sessions/s-1/stop", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "stopped", body["status"])
}

func TestListSessions(t *testing.T) {
	server := newTestServer(t, newFakeService(), Options{})

	resp, err := http.Get(server.URL + "/sessions")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out []sessionSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out, 1)
	assert.Equal(t, "s-1", out[0].ID)
	require.NotNil(t, out[0].LatestOverall)
	assert.Equal(t, 6.5, *out[0].LatestOverall)
}

func TestJobs(t *testing.T) {
	svc := newFakeService()
	svc.sessions["s-1"] = domain.Session{ID: "s-1"}
	svc.jobs["job-9"] = domain.JobRecord{ID: "job-9", Status: domain.JobCompleted, Progress: 100, ResultReference: "https://cdn/mesh.glb"}
	server := newTestServer(t, svc, Options{})

	resp, body := doJSON(t, http.MethodPost, server.URL+"/jobs", `{"session_id":"s-1"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "job-1", body["id"])
	assert.Equal(t, "pending", body["status"])
	require.Len(t, svc.submitted, 1)
	assert.Equal(t, 0, svc.submitted[0].Iteration)

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/jobs", `{"session_id":"s-1","iteration":4}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/jobs", `{"iteration":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, server.URL+"/jobs/job-9", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://cdn/mesh.glb", body["result_reference"])

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/jobs/job-404", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	healthy := newTestServer(t, newFakeService(), Options{Pingers: []health.Pinger{fakePinger{name: "records"}}})
	resp, err := http.Get(healthy.URL + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	failing := newTestServer(t, newFakeService(), Options{Pingers: []health.Pinger{fakePinger{name: "records", err: errors.New("down")}}})
	resp, err = http.Get(failing.URL + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRecoversFromPanics(t *testing.T) {
	svc := newFakeService()
	svc.panicOn = "explode"
	server := newTestServer(t, svc, Options{})

	resp, body := doJSON(t, http.MethodGet, server.URL+"/sessions/explode", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal server error", body["error"])
}
