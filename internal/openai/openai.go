// Package openai implements [catalog.Lister] for OpenAI compatible endpoints.
package openai

import (
	"context"
	"net/http"

	"github.com/charmbracelet/llmconn/internal/catalog"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var _ catalog.Lister = &Client{}

// Client is the openai client.
type Client struct {
	*openai.Client
}

// Config represents the configuration for the OpenAI API client.
type Config struct {
	AuthToken  string
	BaseURL    string
	HTTPClient interface {
		Do(*http.Request) (*http.Response, error)
	}
}

// DefaultConfig returns the default configuration for the OpenAI API client.
func DefaultConfig(authToken string) Config {
	return Config{
		AuthToken: authToken,
	}
}

// New creates a new [Client] with the given [Config].
func New(config Config) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(config.AuthToken),
		option.WithMaxRetries(0),
	}
	if config.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(config.HTTPClient))
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	client := openai.NewClient(opts...)
	return &Client{
		Client: &client,
	}
}

// ListModels implements [catalog.Lister].
func (c *Client) ListModels(ctx context.Context) ([]catalog.Entry, error) {
	page, err := c.Models.List(ctx)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return toEntries(page.Data), nil
}
