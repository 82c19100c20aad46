// Package gosdk is a tiny helper for invoking the stream-fusion run API
// over HTTP, mirroring the server's own JSON/NDJSON contracts.
package gosdk

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Run mirrors internal/runstore.Run's JSON shape without importing the
// server's internal package.
type Run struct {
	ID           string     `json:"id"`
	PipelineName string     `json:"pipeline_name"`
	Status       string     `json:"status"`
	Steps        []StepInfo `json:"steps"`
	Result       []any      `json:"result,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// StepInfo mirrors internal/runstore.StepInfo.
type StepInfo struct {
	Kind string `json:"kind"`
}

// RunEvent mirrors internal/server.RunEvent.
type RunEvent struct {
	Event string `json:"event"`
	RunID string `json:"run_id"`
	Seq   uint64 `json:"seq"`
	Data  any    `json:"data,omitempty"`
}

// Client is a tiny helper for invoking the stream-fusion server's HTTP API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client using the supplied baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateRun sends POST /v1/runs, materializing pipeline over input.
func (c *Client) CreateRun(ctx context.Context, pipeline string, input []any) (*Run, error) {
	payload := map[string]any{"pipeline": pipeline, "input": input}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/runs", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("http error: %s", resp.Status)
	}
	return decodeRun(resp.Body)
}

// GetRun retrieves a run via GET /v1/runs/{id}.
func (c *Client) GetRun(ctx context.Context, id string) (*Run, error) {
	url := fmt.Sprintf("%s/v1/runs/%s", c.BaseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("http error: %s", resp.Status)
	}
	return decodeRun(resp.Body)
}

// StreamRunEvents fetches the NDJSON event log for an existing run via
// GET /v1/runs/{id}/events, blocking until the stream closes.
func (c *Client) StreamRunEvents(ctx context.Context, id string) ([]RunEvent, error) {
	url := fmt.Sprintf("%s/v1/runs/%s/events", c.BaseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("http error: %s", resp.Status)
	}

	reader := bufio.NewReader(resp.Body)
	var events []RunEvent
	for {
		line, err := reader.ReadBytes('\n')
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) > 0 {
			var evt RunEvent
			if jsonErr := json.Unmarshal(trimmed, &evt); jsonErr != nil {
				return nil, jsonErr
			}
			events = append(events, evt)
		}
		if err != nil {
			if err == io.EOF {
				return events, nil
			}
			return nil, err
		}
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	c.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	return c.HTTPClient
}

func decodeRun(body io.Reader) (*Run, error) {
	var run Run
	if err := json.NewDecoder(body).Decode(&run); err != nil {
		return nil, err
	}
	return &run, nil
}
