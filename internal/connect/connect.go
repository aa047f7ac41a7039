// Package connect turns a model title into a ready to use [fetch.Client].
package connect

import (
	"context"
	"fmt"

	"github.com/charmbracelet/llmconn/internal/certs"
	"github.com/charmbracelet/llmconn/internal/config"
	"github.com/charmbracelet/llmconn/internal/configcache"
	"github.com/charmbracelet/llmconn/internal/fetch"
	"github.com/charmbracelet/llmconn/internal/resolver"
	"github.com/charmbracelet/llmconn/internal/transport"
	"github.com/charmbracelet/log"
)

// Options configures a [Connector].
type Options struct {
	// Loader produces the configuration. Required.
	Loader config.Loader
	// Defaults suggests a title when none is given.
	Defaults resolver.DefaultTitleService
	// Certs builds the trust stores. The zero value reads the platform roots.
	Certs certs.Builder
	// Sink receives the prompt and completion log.
	Sink fetch.Sink
	// Observer is told about every request made through a client.
	Observer fetch.Observer
	// TimeoutSeconds, when positive, replaces the timeout of every model.
	TimeoutSeconds int
	// Logger defaults to [log.Default].
	Logger *log.Logger
}

// Connector owns the configuration cache and builds one client per call.
type Connector struct {
	opts     Options
	cache    *configcache.Cache[*config.Config]
	resolver *resolver.Resolver
	logger   *log.Logger
}

// New returns a connector with a cold configuration cache.
func New(opts Options) *Connector {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	cache := configcache.New(func(ctx context.Context) (*config.Config, error) {
		logger.Debug("loading configuration")
		cfg, err := opts.Loader.Load(ctx)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}
		logger.Debug("configuration loaded", "path", cfg.Path, "models", len(cfg.Models))
		return cfg, nil
	})
	return &Connector{
		opts:     opts,
		cache:    cache,
		resolver: resolver.New(cache, opts.Defaults),
		logger:   logger,
	}
}

// Config returns the cached configuration, loading it if needed.
func (c *Connector) Config(ctx context.Context) (*config.Config, error) {
	return c.cache.Load(ctx) //nolint:wrapcheck
}

// Reload drops the cached configuration; the next call loads it again.
func (c *Connector) Reload() {
	c.cache.Invalidate()
}

// Resolve returns the configuration of the model titled title.
func (c *Connector) Resolve(ctx context.Context, title string) (config.Model, error) {
	return c.resolver.Resolve(ctx, title) //nolint:wrapcheck
}

// Connect resolves title and builds a client honoring the model's trust,
// proxy, timeout and header policy. Each call gets its own dispatcher.
func (c *Connector) Connect(ctx context.Context, title string) (*fetch.Client, error) {
	model, err := c.Resolve(ctx, title)
	if err != nil {
		return nil, err
	}
	return c.Bind(model)
}

// Bind builds a client for an already resolved model.
func (c *Connector) Bind(model config.Model) (*fetch.Client, error) {
	opts := model.RequestOptions
	store, err := c.opts.Certs.Build(opts.CABundlePath.Paths())
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	timeout := opts.Timeout
	if c.opts.TimeoutSeconds > 0 {
		timeout = c.opts.TimeoutSeconds
	}
	dispatcher, err := transport.New(transport.Options{
		Store:          store,
		VerifySSL:      opts.VerifySSL,
		TimeoutSeconds: timeout,
		Proxy:          opts.Proxy,
	})
	if err != nil {
		return nil, fmt.Errorf("connect: model %q: %w", model.Title, err)
	}
	c.logger.Debug(
		"connection ready",
		"model", model.Title,
		"kind", dispatcher.Kind(),
		"certs", store.Len(),
		"timeout", dispatcher.Budgets().Connect,
	)

	var fopts []fetch.Option
	if c.opts.Observer != nil {
		fopts = append(fopts, fetch.WithObserver(c.opts.Observer))
	}
	return fetch.New(model, dispatcher, c.opts.Sink, fopts...), nil
}
