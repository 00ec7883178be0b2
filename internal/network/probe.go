package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Probe issues one GET against url and reports whether it answered below 500.
func (c *Client) Probe(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("invalid probe url %q: %w", url, err)
	}
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("probe %s returned %s", url, resp.Status)
	}
	return nil
}

// WaitReachable polls url until it answers or timeout elapses. A non-positive timeout
// probes exactly once.
func (c *Client) WaitReachable(ctx context.Context, url string, timeout, interval time.Duration) error {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	if timeout <= 0 {
		return c.Probe(ctx, url)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	attempts := 0
	for {
		attempts++
		err := c.Probe(ctx, url)
		if err == nil {
			c.logger.Debug("Target reachable", zap.String("url", url), zap.Int("attempts", attempts))
			return nil
		}
		c.logger.Debug("Target not reachable yet", zap.String("url", url), zap.Error(err))

		select {
		case <-ctx.Done():
			return fmt.Errorf("target %s not reachable after %s (%d attempts): %w", url, timeout, attempts, err)
		case <-ticker.C:
		}
	}
}
