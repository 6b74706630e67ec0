// Package recommender triggers the external recommendation service that scores
// posts in the background.
package recommender

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const DefaultTimeout = 7 * time.Second

type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// Trigger asks the service to refresh its scores. The call is bounded by the
// client timeout and survives cancellation of ctx, so a request that finishes
// early does not abort it.
func (c *Client) Trigger(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/home", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("trigger request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("trigger returned status %d", resp.StatusCode)
	}
	return nil
}

// Ping triggers the service and reduces the outcome to a bool. Failures are
// logged only.
func (c *Client) Ping(ctx context.Context) bool {
	if err := c.Trigger(ctx); err != nil {
		slog.Error("recommendation trigger failed", "url", c.baseURL+"/home", "error", err)
		return false
	}
	slog.Debug("recommendation trigger successful")
	return true
}
