// Package jobs enqueues background runs (reflection, summarization,
// title generation) against the orchestrator's thread/run HTTP API.
// Enqueues are fire-and-forget from the caller's perspective: the graph
// nodes log failures and keep going.
package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the job orchestrator.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a Client for the given base URL, e.g.
// "http://localhost:8000".
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunOptions tune how a run is scheduled.
type RunOptions struct {
	// Config is passed through to the job unchanged.
	Config map[string]any

	// MultitaskStrategy controls how the orchestrator handles a run
	// arriving while another is active on the thread ("enqueue",
	// "interrupt", "reject", "rollback").
	MultitaskStrategy string

	// AfterSeconds delays the run's start.
	AfterSeconds int
}

type createThreadResponse struct {
	ThreadID string `json:"thread_id"`
}

type createRunRequest struct {
	JobName           string         `json:"job_name"`
	Input             map[string]any `json:"input"`
	Config            map[string]any `json:"config,omitempty"`
	MultitaskStrategy string         `json:"multitask_strategy,omitempty"`
	AfterSeconds      int            `json:"after_seconds,omitempty"`
}

// CreateThread creates a fresh thread and returns its ID.
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	body, err := c.post(ctx, "/threads", nil)
	if err != nil {
		return "", err
	}

	var resp createThreadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("jobs: decode thread response: %w", err)
	}
	if resp.ThreadID == "" {
		return "", fmt.Errorf("jobs: thread response missing thread_id")
	}
	return resp.ThreadID, nil
}

// CreateRun schedules a named job on the thread.
func (c *Client) CreateRun(ctx context.Context, threadID, jobName string, input map[string]any, opts RunOptions) error {
	if threadID == "" {
		return fmt.Errorf("jobs: thread ID is required")
	}
	if jobName == "" {
		return fmt.Errorf("jobs: job name is required")
	}

	req := createRunRequest{
		JobName:           jobName,
		Input:             input,
		Config:            opts.Config,
		MultitaskStrategy: opts.MultitaskStrategy,
		AfterSeconds:      opts.AfterSeconds,
	}
	_, err := c.post(ctx, "/threads/"+threadID+"/runs", req)
	return err
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("jobs: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("jobs: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jobs: %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("jobs: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("jobs: %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}
