package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPError is a non-success response from the backend
type HTTPError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("backend %s %s: HTTP %d: %s", e.Method, e.Path, e.Status, strings.TrimSpace(e.Body))
}

// Client talks to the simulation backend
type Client struct {
	baseURL        string
	httpClient     *http.Client
	captureTimeout time.Duration
}

// NewClient creates a backend client. Capture requests use captureTimeout
// instead of timeout since they collect a live cluster.
func NewClient(baseURL string, timeout, captureTimeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		captureTimeout: captureTimeout,
	}
}

// BaseURL returns the client's base URL
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) do(ctx context.Context, client *http.Client, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend marshal: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("backend %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("backend %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("backend read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{Method: method, Path: path, Status: resp.StatusCode, Body: string(data)}
	}
	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("backend decode %s: %w", path, err)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.do(ctx, c.httpClient, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, c.httpClient, http.MethodPost, path, body, result)
}

// Simulate fetches the full simulated state of the active snapshot
func (c *Client) Simulate(ctx context.Context) (*SimulateResponse, error) {
	var resp SimulateResponse
	if err := c.get(ctx, "/simulate", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PlanMove asks the backend for a relocation plan
func (c *Client) PlanMove(ctx context.Context, req PlanMoveRequest) (*PlanMoveResponse, error) {
	var resp PlanMoveResponse
	if err := c.post(ctx, "/plan-move", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Mutate applies operations as one atomic batch
func (c *Client) Mutate(ctx context.Context, ops []Operation) error {
	return c.post(ctx, "/mutate", MutateRequest{Operations: ops}, nil)
}

// ListSnapshots lists the snapshots held by the backend
func (c *Client) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	var resp []Snapshot
	if err := c.get(ctx, "/snapshots", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ActivateSnapshot switches the active snapshot
func (c *Client) ActivateSnapshot(ctx context.Context, id string) error {
	return c.post(ctx, "/snapshots/"+url.PathEscape(id)+"/activate", nil, nil)
}

// CaptureSnapshot collects the live cluster into a new snapshot. Blocks until done.
func (c *Client) CaptureSnapshot(ctx context.Context) (*CaptureResponse, error) {
	client := &http.Client{
		Transport: c.httpClient.Transport,
		Timeout:   c.captureTimeout,
	}
	var resp CaptureResponse
	if err := c.do(ctx, client, http.MethodPost, "/snapshots/capture", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RefreshPrices re-fetches instance prices for the active snapshot
func (c *Client) RefreshPrices(ctx context.Context) (*RefreshPricesResponse, error) {
	var resp RefreshPricesResponse
	if err := c.post(ctx, "/admin/refresh-prices", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
