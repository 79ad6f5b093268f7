package jobpoller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Status is the server-reported lifecycle state of a job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the job has finished, successfully or not.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is a single asynchronous server-side job for one target.
type Job struct {
	ID          uuid.UUID `json:"id"`
	TargetID    uuid.UUID `json:"target_id"`
	Status      Status    `json:"status"`
	Error       string    `json:"error,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// Client creates jobs and reads their status.
type Client interface {
	// RequestJob asks the server to start (or restart) a job for the target.
	RequestJob(ctx context.Context, targetID uuid.UUID, mode string) (Job, error)
	// JobStatus returns the current state of the job.
	JobStatus(ctx context.Context, jobID uuid.UUID) (Job, error)
}

// HTTPClient is the production Client, talking to the job endpoint over HTTP.
type HTTPClient struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClient creates a client for the given job endpoint, e.g. "/api/jobs".
func NewHTTPClient(endpoint string, client *http.Client) (*HTTPClient, error) {
	if endpoint == "" {
		return nil, ErrEndpointRequired
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPClient{endpoint: endpoint, client: client}, nil
}

func (c *HTTPClient) RequestJob(ctx context.Context, targetID uuid.UUID, mode string) (Job, error) {
	body, err := json.Marshal(map[string]string{
		"target_id": targetID.String(),
		"mode":      mode,
	})
	if err != nil {
		return Job{}, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Job{}, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Job{}, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		io.Copy(io.Discard, resp.Body)
		return Job{}, fmt.Errorf("%w: unexpected status %d", ErrRequestFailed, resp.StatusCode)
	}
	var job Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return Job{}, fmt.Errorf("%w: decode response: %w", ErrRequestFailed, err)
	}
	return job, nil
}

func (c *HTTPClient) JobStatus(ctx context.Context, jobID uuid.UUID) (Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/"+jobID.String(), nil)
	if err != nil {
		return Job{}, fmt.Errorf("%w: %w", ErrStatusFailed, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return Job{}, fmt.Errorf("%w: %w", ErrStatusFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return Job{}, fmt.Errorf("%w: unexpected status %d", ErrStatusFailed, resp.StatusCode)
	}
	var job Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return Job{}, fmt.Errorf("%w: decode response: %w", ErrStatusFailed, err)
	}
	return job, nil
}
