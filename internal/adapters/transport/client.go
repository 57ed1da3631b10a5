// Package transport implements the loopback HTTP client for the analysis
// worker's request/response protocol.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.trai.ch/ckpt/internal/core/domain"
	"go.trai.ch/ckpt/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.WorkerClient = (*Client)(nil)

// Client implements ports.WorkerClient. Requests are single JSON objects
// POSTed to the worker's loopback port; a non-2xx status is a transport
// failure, a 2xx body with an "error" field is an application failure.
type Client struct {
	httpClient     *http.Client
	requestTimeout time.Duration
}

// New creates a worker client with the given per-request timeout.
func New(requestTimeout time.Duration) *Client {
	if requestTimeout <= 0 {
		requestTimeout = domain.DefaultRequestTimeout
	}
	return &Client{
		httpClient:     &http.Client{},
		requestTimeout: requestTimeout,
	}
}

type loadRequest struct {
	FilePath   string `json:"file_path"`
	ForceLocal bool   `json:"force_local"`
}

type inspectRequest struct {
	FilePath string `json:"file_path"`
	Key      string `json:"key"`
}

type releaseRequest struct {
	FilePath string `json:"file_path"`
}

// Load implements ports.WorkerClient.
func (c *Client) Load(ctx context.Context, port int, filePath string, mode domain.Mode) (*domain.Result, error) {
	body := loadRequest{
		FilePath:   filePath,
		ForceLocal: mode == domain.ModeLocal,
	}

	var resp struct {
		Global bool        `json:"is_global"`
		Data   domain.Tree `json:"data"`
		Error  string      `json:"error"`
	}
	if err := c.post(ctx, port, domain.EndpointLoad, body, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, applicationError(resp.Error, filePath)
	}
	return &domain.Result{Global: resp.Global, Data: resp.Data}, nil
}

// Inspect implements ports.WorkerClient.
func (c *Client) Inspect(ctx context.Context, port int, filePath, encodedKey string) (domain.Tree, error) {
	body := inspectRequest{FilePath: filePath, Key: encodedKey}

	var resp domain.Tree
	if err := c.post(ctx, port, domain.EndpointInspect, body, &resp); err != nil {
		return nil, err
	}
	if msg, ok := resp["error"].(string); ok && msg != "" {
		return nil, applicationError(msg, filePath)
	}
	return resp, nil
}

// Release implements ports.WorkerClient.
func (c *Client) Release(ctx context.Context, port int, filePath string) (bool, error) {
	body := releaseRequest{FilePath: filePath}

	var resp struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := c.post(ctx, port, domain.EndpointRelease, body, &resp); err != nil {
		return false, err
	}
	if resp.Error != "" {
		return false, applicationError(resp.Error, filePath)
	}
	return resp.Status == "released", nil
}

// post performs one request/response round trip and decodes the JSON body
// into out.
func (c *Client) post(ctx context.Context, port int, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return zerr.Wrap(err, "failed to encode request")
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	url := fmt.Sprintf("http://127.0.0.1:%d%s", port, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return zerr.Wrap(err, domain.ErrTransport.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zerr.With(
				zerr.With(domain.ErrRequestTimeout, "endpoint", endpoint),
				"timeout", c.requestTimeout.String(),
			)
		}
		return zerr.With(zerr.Wrap(err, domain.ErrTransport.Error()), "endpoint", endpoint)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return zerr.With(
			zerr.With(domain.ErrTransport, "endpoint", endpoint),
			"status", resp.StatusCode,
		)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zerr.With(domain.ErrRequestTimeout, "endpoint", endpoint)
		}
		return zerr.With(zerr.Wrap(err, domain.ErrTransport.Error()), "endpoint", endpoint)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrTransport.Error()), "endpoint", endpoint)
	}
	return nil
}

// applicationError wraps a worker-reported semantic failure.
func applicationError(msg, filePath string) error {
	return zerr.With(
		zerr.With(domain.ErrApplication, "detail", msg),
		"path", filePath,
	)
}
