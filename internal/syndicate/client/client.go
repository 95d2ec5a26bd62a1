// Package client calls a syndicate agent's entrypoints.
package client

import (
	"context"
	"strings"

	"launder/internal/syndicate/handler"
	"launder/internal/syndicate/models"
	"launder/pkg/platform/invoke"
)

type Client struct {
	baseURL string
	invoker *invoke.Client
}

func New(baseURL string, invoker *invoke.Client) *Client {
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), invoker: invoker}
}

func (c *Client) Profile(ctx context.Context) (*models.Profile, error) {
	return invoke.Call[models.Profile](ctx, c.invoker, c.baseURL+invoke.EntrypointPath(handler.ProfileEntrypoint), models.ProfileRequest{})
}

// Launder asks the agent to play its turn for the round described by abstract.
func (c *Client) Launder(ctx context.Context, abstract string) (*models.TurnResult, error) {
	return invoke.Call[models.TurnResult](ctx, c.invoker, c.baseURL+invoke.EntrypointPath(handler.LaunderEntrypoint), models.LaunderRequest{Abstract: abstract})
}

func (c *Client) Health(ctx context.Context) error {
	return c.invoker.Health(ctx, c.baseURL)
}

func (c *Client) URL() string {
	return c.baseURL
}
