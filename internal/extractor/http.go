package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// HTTPBackend talks to an external conversion service over its asynchronous
// JSON protocol:
//
//	POST {endpoint}/tasks            JSON submit (base64 content) -> {"task_id": ...}
//	GET  {endpoint}/tasks/{id}       -> {"status": "pending|success|failure", "error": ...}
//	GET  {endpoint}/tasks/{id}/result -> {"text": ..., "pages": ..., "tables": ..., "images": ..., "metadata": {...}}
type HTTPBackend struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPBackend creates a backend client for the given service endpoint.
func NewHTTPBackend(endpoint string, timeout time.Duration) *HTTPBackend {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPBackend{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (b *HTTPBackend) Name() string {
	return "http"
}

// Submit uploads the file content as a JSON document submission; the byte
// payload is base64-encoded by the JSON encoder. Transport errors surface
// as ErrBackendUnreachable.
func (b *HTTPBackend) Submit(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	reqBody := map[string]interface{}{
		"filename": filepath.Base(path),
		"content":  data,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint+"/tasks", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: submit returned %d: %s", ErrBackendFailure, resp.StatusCode, string(bodyBytes))
	}

	var submitResp struct {
		TaskID string `json:"task_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&submitResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if submitResp.TaskID == "" {
		return "", fmt.Errorf("%w: submit returned no task id", ErrBackendFailure)
	}
	return submitResp.TaskID, nil
}

func (b *HTTPBackend) Poll(ctx context.Context, taskID string) (*Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint+"/tasks/"+taskID, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: poll returned %d: %s", ErrBackendFailure, resp.StatusCode, string(bodyBytes))
	}

	var pollResp struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&pollResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	job := &Job{TaskID: taskID, Error: pollResp.Error}
	switch pollResp.Status {
	case "pending", "running":
		job.State = JobPending
	case "success":
		job.State = JobSuccess
	case "failure":
		job.State = JobFailure
	default:
		return nil, fmt.Errorf("%w: unknown task status %q", ErrBackendFailure, pollResp.Status)
	}
	return job, nil
}

// Fetch retrieves the result artifact of a completed task.
func (b *HTTPBackend) Fetch(ctx context.Context, taskID string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint+"/tasks/"+taskID+"/result", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: fetch returned %d: %s", ErrBackendFailure, resp.StatusCode, string(bodyBytes))
	}

	var fetchResp struct {
		Text     string            `json:"text"`
		Pages    int               `json:"pages"`
		Tables   int               `json:"tables"`
		Images   int               `json:"images"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&fetchResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &Result{
		Text:     fetchResp.Text,
		Pages:    fetchResp.Pages,
		Tables:   fetchResp.Tables,
		Images:   fetchResp.Images,
		Metadata: fetchResp.Metadata,
	}, nil
}
