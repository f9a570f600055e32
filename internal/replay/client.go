package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/proctor/internal/domain/model"
	"github.com/okian/proctor/internal/domain/types"
)

// Client talks to the proctor HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (types.Health, error) {
	var h types.Health
	status, err := c.do(ctx, http.MethodGet, "/health", nil, &h)
	if err != nil {
		return h, err
	}
	if status != http.StatusOK {
		return h, fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return h, nil
}

// PostFrame calls POST /frames and returns the HTTP status with the ack.
func (c *Client) PostFrame(ctx context.Context, f *model.LandmarkFrame) (int, types.FrameAck, error) {
	body, err := json.Marshal(f)
	if err != nil {
		return 0, types.FrameAck{}, fmt.Errorf("marshal frame: %w", err)
	}
	var ack types.FrameAck
	status, err := c.do(ctx, http.MethodPost, "/frames", body, &ack)
	return status, ack, err
}

// Results calls GET /get_results.
func (c *Client) Results(ctx context.Context) (types.Results, error) {
	var res types.Results
	status, err := c.do(ctx, http.MethodGet, "/get_results", nil, &res)
	if err == nil && status != http.StatusOK {
		err = fmt.Errorf("get results: status %d", status)
	}
	return res, err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) (int, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < http.StatusBadRequest && out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
