// Package client is a small SDK for submitting game telemetry to the
// analytics API.
package client

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

// Client talks to one analytics API instance with a fixed API key.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Accepted is the API's acknowledgement of a single event.
type Accepted struct {
	Success   bool   `json:"success"`
	EventID   string `json:"event_id"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// BatchAccepted is the API's acknowledgement of a batch.
type BatchAccepted struct {
	Success        bool   `json:"success"`
	AcceptedEvents int    `json:"accepted_events"`
	Message        string `json:"message"`
	Timestamp      string `json:"timestamp"`
}

func (c *Client) SendInstall(ctx context.Context, ev InstallEvent) (Accepted, error) {
	var out Accepted
	err := c.post(ctx, "/events/install", ev, &out)
	return out, err
}

func (c *Client) SendPurchase(ctx context.Context, ev PurchaseEvent) (Accepted, error) {
	var out Accepted
	err := c.post(ctx, "/events/purchase", ev, &out)
	return out, err
}

// SendBatch submits up to 500 mixed events in one call.
func (c *Client) SendBatch(ctx context.Context, events []Event) (BatchAccepted, error) {
	var out BatchAccepted
	err := c.post(ctx, "/events/batch", events, &out)
	return out, err
}

// Health reports whether the API considers itself healthy (sink
// reachable and active).
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer drain(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return err
	}
	if body.Status != "healthy" {
		return fmt.Errorf("health check: api is %s", body.Status)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer drain(resp.Body)

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Message != "" {
			return fmt.Errorf("%s %s: %d %s: %s", http.MethodPost, path, resp.StatusCode, apiErr.Error, apiErr.Message)
		}
		return fmt.Errorf("%s %s: unexpected status %d", http.MethodPost, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
