package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/factcheck/internal/metrics"
	"github.com/ppiankov/factcheck/internal/worker"
)

// Client is the model handle passed to every pipeline stage.
// It wraps a Provider with the configured model identifier, throttling and metrics.
type Client struct {
	provider Provider
	model    string
	limiter  *worker.Limiter
	logger   *slog.Logger
}

// NewClient creates a client around a provider.
// limiter may be nil to disable throttling; logger may be nil to use slog.Default().
func NewClient(provider Provider, model string, limiter *worker.Limiter, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		provider: provider,
		model:    model,
		limiter:  limiter,
		logger:   logger,
	}
}

// NewClientFromConfig builds the provider described by config and wraps it
func NewClientFromConfig(config Config, logger *slog.Logger) (*Client, error) {
	config = ApplyEnv(config)
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}

	var limiter *worker.Limiter
	if config.RequestsPerSecond > 0 {
		limiter = worker.NewLimiter(config.RequestsPerSecond, 1)
	}
	return NewClient(provider, config.Model, limiter, logger), nil
}

// ProviderName returns the wrapped provider's name
func (c *Client) ProviderName() string {
	return c.provider.Name()
}

// Model returns the configured model identifier
func (c *Client) Model() string {
	return c.model
}

// Complete sends the prompt and returns the raw model text
func (c *Client) Complete(ctx context.Context, prompt Prompt) (string, error) {
	if prompt.Model == "" {
		prompt.Model = c.model
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.provider.Name()); err != nil {
			return "", fmt.Errorf("rate limit: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.provider.Complete(ctx, prompt)
	metrics.ModelCalls.WithLabelValues(c.provider.Name(), metrics.Outcome(err)).Inc()
	if err != nil {
		c.logger.Debug("model call failed", "provider", c.provider.Name(), "error", err)
		return "", err
	}

	metrics.ModelTokens.WithLabelValues(c.provider.Name()).Add(float64(resp.TokensUsed))
	c.logger.Debug("model call completed",
		"provider", c.provider.Name(),
		"model", resp.Model,
		"tokens", resp.TokensUsed,
		"duration", time.Since(start).Round(time.Millisecond).String(),
	)
	return resp.Text, nil
}
