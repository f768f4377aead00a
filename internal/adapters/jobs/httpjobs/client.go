// Package httpjobs talks to the remote reconstruction service over its JSON
// REST API.
package httpjobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/refine-cli/internal/domain"
	"github.com/bnema/refine-cli/internal/ports"
)

const maxResponseBytes = 1 << 20

type API struct {
	BaseURL    string
	TasksPath  string
	ResultPath string
}

// DefaultAPI is used for any empty path.
var DefaultAPI = API{
	TasksPath:  "/v1/tasks",
	ResultPath: "result",
}

type Client struct {
	API            API
	APIKey         string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

var _ ports.JobService = Client{}

type submitRequest struct {
	ImageURL  string `json:"image_url"`
	Prompt    string `json:"prompt,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Iteration int    `json:"iteration,omitempty"`
}

type submitResponse struct {
	TaskID string `json:"task_id"`
}

type pollResponse struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Error    string `json:"error"`
}

type resultResponse struct {
	ResultURL string `json:"result_url"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c Client) Submit(ctx context.Context, input domain.JobInput) (string, error) {
	if input.ArtifactReference == "" {
		return "", errors.New("artifact reference is required")
	}

	endpoint, err := c.endpoint(c.tasksPath())
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(submitRequest{
		ImageURL:  input.ArtifactReference,
		Prompt:    input.TargetDescription,
		SessionID: string(input.SessionID),
		Iteration: input.Iteration,
	})
	if err != nil {
		return "", fmt.Errorf("encode submit request: %w", err)
	}

	var payload submitResponse
	if err := c.do(ctx, http.MethodPost, endpoint, body, &payload); err != nil {
		return "", fmt.Errorf("submit reconstruction: %w", err)
	}
	if payload.TaskID == "" {
		return "", errors.New("submit reconstruction: response missing task id")
	}
	return payload.TaskID, nil
}

// Poll passes unknown status tags through unchanged; the tracker decides what
// an unexpected tag means.
func (c Client) Poll(ctx context.Context, externalTaskID string) (ports.PollResult, error) {
	endpoint, err := c.taskEndpoint(externalTaskID)
	if err != nil {
		return ports.PollResult{}, err
	}

	var payload pollResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		return ports.PollResult{}, fmt.Errorf("poll reconstruction %s: %w", externalTaskID, err)
	}
	return ports.PollResult{
		Status:   normalizeStatus(payload.Status),
		Progress: payload.Progress,
		Error:    payload.Error,
	}, nil
}

func (c Client) FetchResult(ctx context.Context, externalTaskID string) (string, error) {
	taskURL, err := c.taskEndpoint(externalTaskID)
	if err != nil {
		return "", err
	}
	endpoint, err := c.endpointFrom(taskURL+"/", c.resultPath())
	if err != nil {
		return "", err
	}

	var payload resultResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		return "", fmt.Errorf("fetch reconstruction result %s: %w", externalTaskID, err)
	}
	if payload.ResultURL == "" {
		return "", errors.New("result response missing result url")
	}
	return payload.ResultURL, nil
}

func (c Client) do(ctx context.Context, method, endpoint string, body []byte, out any) error {
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(requestCtx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return statusError(resp)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError wraps the domain sentinels for statuses the submit classifier
// cares about.
func statusError(resp *http.Response) error {
	detail := decodeError(resp)
	switch resp.StatusCode {
	case http.StatusPaymentRequired:
		return fmt.Errorf("%s: %w", detail, domain.ErrInsufficientCredits)
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%s: %w", detail, domain.ErrServiceUnavailable)
	default:
		return errors.New(detail)
	}
}

func decodeError(resp *http.Response) string {
	var payload errorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return "status " + strconv.Itoa(resp.StatusCode)
	}
	switch {
	case payload.Error != "" && payload.Message != "":
		return payload.Error + ": " + payload.Message
	case payload.Error != "":
		return payload.Error
	case payload.Message != "":
		return payload.Message
	default:
		return "status " + strconv.Itoa(resp.StatusCode)
	}
}

func normalizeStatus(raw string) ports.PollStatus {
	switch status := strings.ToLower(strings.TrimSpace(raw)); status {
	case "pending", "queued":
		return ports.PollQueued
	case "in_progress", "processing", "running":
		return ports.PollRunning
	case "succeeded", "success", "completed":
		return ports.PollSucceeded
	case "failed", "error":
		return ports.PollFailed
	case "canceled", "cancelled":
		return ports.PollCancelled
	default:
		return ports.PollStatus(status)
	}
}

func (c Client) tasksPath() string {
	if c.API.TasksPath != "" {
		return c.API.TasksPath
	}
	return DefaultAPI.TasksPath
}

func (c Client) resultPath() string {
	if c.API.ResultPath != "" {
		return c.API.ResultPath
	}
	return DefaultAPI.ResultPath
}

func (c Client) taskEndpoint(externalTaskID string) (string, error) {
	if externalTaskID == "" {
		return "", errors.New("external task id is required")
	}
	return c.endpoint(strings.TrimRight(c.tasksPath(), "/") + "/" + url.PathEscape(externalTaskID))
}

func (c Client) endpoint(path string) (string, error) {
	return c.endpointFrom(c.API.BaseURL, path)
}

func (c Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return context.WithTimeout(ctx, requestTimeout)
}

func (c Client) endpointFrom(baseURL string, path string) (string, error) {
	if baseURL == "" {
		return "", errors.New("reconstruction base url is required")
	}
	if path == "" {
		return "", errors.New("api path is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse reconstruction base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("reconstruction base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("reconstruction base url host is required")
	}

	endpoint, err := parsed.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse api path: %w", err)
	}
	return endpoint.String(), nil
}
