// Package ollama implements [catalog.Lister] for Ollama.
package ollama

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/llmconn/internal/catalog"
	"github.com/ollama/ollama/api"
)

var _ catalog.Lister = &Client{}

// Config represents the configuration for the Ollama API client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

// DefaultConfig returns the default configuration for the Ollama API client.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://localhost:11434/",
		HTTPClient: &http.Client{},
	}
}

// Client ollama client.
type Client struct {
	*api.Client
}

// New creates a new [Client] with the given [Config]. A trailing /api on the
// base URL is dropped, the client adds it itself.
func New(config Config) (*Client, error) {
	base := strings.TrimSuffix(strings.TrimSuffix(config.BaseURL, "/"), "/api")
	u, err := url.Parse(base)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	hc := config.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		Client: api.NewClient(u, hc),
	}, nil
}

// ListModels implements [catalog.Lister].
func (c *Client) ListModels(ctx context.Context) ([]catalog.Entry, error) {
	resp, err := c.List(ctx)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return toEntries(resp.Models), nil
}
