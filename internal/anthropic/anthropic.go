// Package anthropic implements [catalog.Lister] for Anthropic.
package anthropic

import (
	"context"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/charmbracelet/llmconn/internal/catalog"
)

var _ catalog.Lister = &Client{}

// pageSize is the largest page the models endpoint serves.
const pageSize = 1000

// Client is a client for the Anthropic API.
type Client struct {
	*anthropic.Client
}

// Config represents the configuration for the Anthropic API client.
type Config struct {
	AuthToken  string
	BaseURL    string
	HTTPClient *http.Client
}

// DefaultConfig returns the default configuration for the Anthropic API client.
func DefaultConfig(authToken string) Config {
	return Config{
		AuthToken:  authToken,
		HTTPClient: &http.Client{},
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
		// paths of the SDK already start with v1.
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(config.BaseURL, "/v1")))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		Client: &client,
	}
}

// ListModels implements [catalog.Lister].
func (c *Client) ListModels(ctx context.Context) ([]catalog.Entry, error) {
	page, err := c.Models.List(ctx, anthropic.ModelListParams{
		Limit: anthropic.Int(pageSize),
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return toEntries(page.Data), nil
}
