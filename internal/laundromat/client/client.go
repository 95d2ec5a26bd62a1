// Package client calls the laundromat's entrypoints.
package client

import (
	"context"
	"strings"

	"launder/internal/game"
	"launder/internal/laundromat/handler"
	"launder/internal/laundromat/models"
	"launder/pkg/platform/invoke"
)

type Client struct {
	baseURL string
	invoker *invoke.Client
}

// New targets the laundromat at baseURL. The invoker decides whether paid
// entrypoints can be called.
func New(baseURL string, invoker *invoke.Client) *Client {
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), invoker: invoker}
}

// Launder submits one laundering request with strategy.
func (c *Client) Launder(ctx context.Context, strategy game.Strategy, req models.LaunderRequest) (*game.LaunderOutcome, error) {
	profile, err := game.ProfileFor(strategy)
	if err != nil {
		return nil, err
	}
	return invoke.Call[game.LaunderOutcome](ctx, c.invoker, c.baseURL+invoke.EntrypointPath(profile.Endpoint), req)
}

// Abstract fetches the narrative of the round that just ended.
func (c *Client) Abstract(ctx context.Context) (string, error) {
	out, err := invoke.Call[models.AbstractResponse](ctx, c.invoker, c.baseURL+invoke.EntrypointPath(handler.AbstractEntrypoint), models.AbstractRequest{})
	if err != nil {
		return "", err
	}
	return out.Abstract, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.invoker.Health(ctx, c.baseURL)
}

func (c *Client) URL() string {
	return c.baseURL
}
