// Package cohere implements [catalog.Lister] for Cohere.
package cohere

import (
	"context"
	"net/http"
	"strings"

	"github.com/charmbracelet/llmconn/internal/catalog"
	cohere "github.com/cohere-ai/cohere-go/v2"
	"github.com/cohere-ai/cohere-go/v2/client"
	"github.com/cohere-ai/cohere-go/v2/option"
)

var _ catalog.Lister = &Client{}

// Config represents the configuration for the Cohere API client.
type Config struct {
	AuthToken  string
	BaseURL    string
	HTTPClient *http.Client
}

// DefaultConfig returns the default configuration for the Cohere API client.
func DefaultConfig(authToken string) Config {
	return Config{
		AuthToken:  authToken,
		BaseURL:    "",
		HTTPClient: &http.Client{},
	}
}

// Client cohere client.
type Client struct {
	*client.Client
}

// New creates a new [Client] with the given [Config].
func New(config Config) *Client {
	opts := []option.RequestOption{
		client.WithToken(config.AuthToken),
	}
	if config.HTTPClient != nil {
		opts = append(opts, client.WithHTTPClient(config.HTTPClient))
	}
	if config.BaseURL != "" {
		opts = append(opts, client.WithBaseURL(strings.TrimSuffix(config.BaseURL, "/v1")))
	}

	return &Client{
		Client: client.NewClient(opts...),
	}
}

// ListModels implements [catalog.Lister].
func (c *Client) ListModels(ctx context.Context) ([]catalog.Entry, error) {
	resp, err := c.Models.List(ctx, &cohere.ModelsListRequest{})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return toEntries(resp.Models), nil
}
