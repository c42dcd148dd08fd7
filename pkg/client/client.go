package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client is the locklord SDK client. All methods are safe for concurrent
// use; the zero endpoint targets a local daemon.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a new locklord client.
// endpoint defaults to "http://127.0.0.1:8090" if empty.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = "http://127.0.0.1:8090"
	}
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Ping checks the health of the daemon.
func (c *Client) Ping(ctx context.Context) error {
	var body map[string]string
	return c.get(ctx, "/v1/health", &body)
}

// Status returns the live status snapshot.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var status Status
	err := c.get(ctx, "/v1/status", &status)
	return status, err
}

// AddProcess registers a process. priority is low, medium or high;
// empty defaults to medium.
func (c *Client) AddProcess(ctx context.Context, id, priority string) error {
	req := map[string]string{"processId": id}
	if priority != "" {
		req["priority"] = priority
	}
	return c.post(ctx, "/v1/processes", req, nil)
}

// AddResource registers a resource. rtype is free-form (CPU, Disk, ...);
// empty defaults to CPU.
func (c *Client) AddResource(ctx context.Context, id, rtype string) error {
	req := map[string]string{"resourceId": id}
	if rtype != "" {
		req["resourceType"] = rtype
	}
	return c.post(ctx, "/v1/resources", req, nil)
}

// Processes lists all registered processes in insertion order.
func (c *Client) Processes(ctx context.Context) ([]Process, error) {
	var processes []Process
	err := c.get(ctx, "/v1/processes", &processes)
	return processes, err
}

// Resources lists all registered resources in insertion order.
func (c *Client) Resources(ctx context.Context) ([]Resource, error) {
	var resources []Resource
	err := c.get(ctx, "/v1/resources", &resources)
	return resources, err
}

// Request asks the daemon to allocate a resource to a process. The
// daemon answers with one of three outcomes: allocated, waiting, or
// prevented (the request would have closed a deadlock cycle).
func (c *Client) Request(ctx context.Context, processID, resourceID string) (RequestResult, error) {
	var result RequestResult
	err := c.post(ctx, "/v1/request", resourceOp(processID, resourceID), &result)
	return result, err
}

// Release gives a held resource back; the head of its wait queue, if
// any, is granted immediately.
func (c *Client) Release(ctx context.Context, processID, resourceID string) error {
	return c.post(ctx, "/v1/release", resourceOp(processID, resourceID), nil)
}

// Detect runs deadlock detection on the committed graph.
func (c *Client) Detect(ctx context.Context) (DetectResult, error) {
	var result DetectResult
	err := c.post(ctx, "/v1/detect", nil, &result)
	return result, err
}

// Predict reports process/resource pairs one request away from deadlock.
func (c *Client) Predict(ctx context.Context) (PredictResult, error) {
	var result PredictResult
	err := c.post(ctx, "/v1/predict", nil, &result)
	return result, err
}

// Recover terminates the lowest-priority process on the current deadlock
// cycle. A conflict APIError means there was no deadlock to recover from.
func (c *Client) Recover(ctx context.Context) (RecoveryResult, error) {
	var result RecoveryResult
	err := c.post(ctx, "/v1/recover", nil, &result)
	return result, err
}

// Reset clears all processes, resources, counters and the in-memory log.
func (c *Client) Reset(ctx context.Context) error {
	return c.post(ctx, "/v1/reset", nil, nil)
}

// Log fetches the most recent activity log entries, oldest first.
func (c *Client) Log(ctx context.Context, limit int) ([]LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []LogEntry
	err := c.get(ctx, fmt.Sprintf("/v1/log?limit=%d", limit), &entries)
	return entries, err
}

// Graph fetches the derived allocation graph.
func (c *Client) Graph(ctx context.Context) (Graph, error) {
	var g Graph
	err := c.get(ctx, "/v1/graph", &g)
	return g, err
}

// InjectWait adds a raw wait edge, bypassing avoidance. Requires the
// daemon's debug routes.
func (c *Client) InjectWait(ctx context.Context, processID, resourceID string) error {
	return c.post(ctx, "/debug/inject-wait", resourceOp(processID, resourceID), nil)
}

func resourceOp(processID, resourceID string) map[string]string {
	return map[string]string{"processId": processID, "resourceId": resourceID}
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.endpoint+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
			apiErr.Error = "unreadable error body"
		}
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
