package llm

import (
	"context"
	"time"
)

// Client wraps a Provider and records per-call latency. All pipeline stages
// go through a Client so /api/stats/llm sees every outbound call.
type Client struct {
	provider Provider
	model    string
	stats    *Stats
}

// NewClient wraps the provider. The stats window covers the last hour.
func NewClient(provider Provider, model string) *Client {
	return &Client{
		provider: provider,
		model:    model,
		stats:    NewStats(time.Hour),
	}
}

// Complete delegates to the provider and records the call latency,
// successful or not.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	text, err := c.provider.Complete(ctx, req)
	c.stats.Record(time.Since(start).Milliseconds())
	return text, err
}

// Name returns the underlying provider name.
func (c *Client) Name() string { return c.provider.Name() }

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// Stats returns the latency tracker.
func (c *Client) Stats() *Stats { return c.stats }
