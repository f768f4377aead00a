package httpjobs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bnema/refine-cli/internal/application"
	"github.com/bnema/refine-cli/internal/domain"
	"github.com/bnema/refine-cli/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return Client{
		API:        API{BaseURL: server.URL},
		APIKey:     "key-123",
		HTTPClient: server.Client(),
	}
}

func TestSubmitSendsArtifact(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/tasks", r.URL.Path)
		assert.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body submitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, submitRequest{ImageURL: "https://cdn/img-2.png", Prompt: "vase", SessionID: "s-1", Iteration: 2}, body)

		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"task_id":"task-9"}`))
	})

	taskID, err := client.Submit(context.Background(), domain.JobInput{
		SessionID:         "s-1",
		Iteration:         2,
		ArtifactReference: "https://cdn/img-2.png",
		TargetDescription: "vase",
	})
	require.NoError(t, err)
	assert.Equal(t, "task-9", taskID)
}

func TestSubmitErrorsClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "payment required", status: http.StatusPaymentRequired, body: `{"error":"no_credits"}`, want: domain.JobFailureInsufficientCredits},
		{name: "unavailable", status: http.StatusServiceUnavailable, body: `oops`, want: domain.JobFailureServiceUnavailable},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{}`, want: domain.JobFailureServiceUnavailable},
		{name: "credit message", status: http.StatusBadRequest, body: `{"message":"Insufficient credits for this task"}`, want: domain.JobFailureInsufficientCredits},
		{name: "bad request", status: http.StatusBadRequest, body: `{"error":"invalid_image","message":"unsupported format"}`, want: domain.JobFailureGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Submit(context.Background(), domain.JobInput{ArtifactReference: "img"})
			require.Error(t, err)
			assert.Equal(t, tt.want, application.ClassifySubmitError(err))
		})
	}
}

func TestSubmitRejectsMissingTaskID(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	_, err := client.Submit(context.Background(), domain.JobInput{ArtifactReference: "img"})
	require.ErrorContains(t, err, "missing task id")

	_, err = client.Submit(context.Background(), domain.JobInput{})
	require.Error(t, err)
}

func TestPollNormalizesStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want ports.PollStatus
	}{
		{raw: "PENDING", want: ports.PollQueued},
		{raw: "in_progress", want: ports.PollRunning},
		{raw: "SUCCEEDED", want: ports.PollSucceeded},
		{raw: "failed", want: ports.PollFailed},
		{raw: "canceled", want: ports.PollCancelled},
		{raw: "exploded", want: ports.PollStatus("exploded")},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/v1/tasks/task-1", r.URL.Path)
				_ = json.NewEncoder(w).Encode(pollResponse{Status: tt.raw, Progress: 40, Error: "detail"})
			})

			result, err := client.Poll(context.Background(), "task-1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Status)
			assert.Equal(t, 40, result.Progress)
			assert.Equal(t, "detail", result.Error)
		})
	}
}

func TestFetchResult(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/tasks/task-1/result", r.URL.Path)
		_, _ = w.Write([]byte(`{"result_url":"https://cdn/mesh.glb"}`))
	})

	ref, err := client.FetchResult(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/mesh.glb", ref)

	_, err = client.FetchResult(context.Background(), "")
	require.Error(t, err)
}

func TestFetchResultRequiresURL(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result_url":""}`))
	})
	_, err := client.FetchResult(context.Background(), "task-1")
	require.ErrorContains(t, err, "missing result url")
}

func TestRequestTimesOutWithoutCallerDeadline(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(release) })
	client.RequestTimeout = 20 * time.Millisecond

	_, err := client.Poll(context.Background(), "task-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll reconstruction task-1")
}

func TestEndpointValidation(t *testing.T) {
	t.Parallel()

	for _, base := range []string{"", "ftp://example.com", "http://"} {
		client := Client{API: API{BaseURL: base}}
		_, err := client.Poll(context.Background(), "task-1")
		assert.Error(t, err, base)
	}
}
