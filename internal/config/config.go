// Package config loads and validates the llmconn settings file.
package config

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v9"
	"gopkg.in/yaml.v3"
)

// Providers understood by the remote model listing.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderCohere    = "cohere"
)

var providers = []string{ProviderOpenAI, ProviderAnthropic, ProviderOllama, ProviderCohere}

const (
	appName         = "llmconn"
	defaultCacheTTL = time.Hour
)

// Loader produces a fresh [Config] on every call.
type Loader interface {
	Load(ctx context.Context) (*Config, error)
}

// LoaderFunc adapts a function to [Loader].
type LoaderFunc func(ctx context.Context) (*Config, error)

// Load implements [Loader].
func (f LoaderFunc) Load(ctx context.Context) (*Config, error) { return f(ctx) }

// Settings holds the cross-cutting options. They can be overridden through
// LLMCONN_* environment variables.
type Settings struct {
	DefaultModel string        `yaml:"default-model" env:"DEFAULT_MODEL"`
	LogPath      string        `yaml:"log-path" env:"LOG_PATH"`
	HistoryPath  string        `yaml:"history-path" env:"HISTORY_PATH"`
	CachePath    string        `yaml:"cache-path" env:"CACHE_PATH"`
	CacheTTL     time.Duration `yaml:"cache-ttl" env:"CACHE_TTL"`
}

// Config is the whole resolved configuration for a session.
type Config struct {
	Settings `yaml:",inline"`
	Models   []Model `yaml:"models"`

	// Path is the file the configuration was read from, if any.
	Path string `yaml:"-"`
}

// Titles returns the model titles in declaration order.
func (c *Config) Titles() []string {
	titles := make([]string, 0, len(c.Models))
	for _, m := range c.Models {
		titles = append(titles, m.Title)
	}
	return titles
}

// Model is one addressable model endpoint.
type Model struct {
	Title          string         `yaml:"title"`
	Provider       string         `yaml:"provider"`
	Model          string         `yaml:"model"`
	APIBase        string         `yaml:"api-base"`
	APIKey         string         `yaml:"api-key"` //nolint:gosec
	APIKeyEnv      string         `yaml:"api-key-env"`
	RequestOptions RequestOptions `yaml:"request-options"`
}

// Key returns the API key, reading APIKeyEnv when no literal key is set.
func (m Model) Key() string {
	if m.APIKey != "" {
		return m.APIKey
	}
	if m.APIKeyEnv != "" {
		return os.Getenv(m.APIKeyEnv)
	}
	return ""
}

// RequestOptions is the connection policy of a model.
type RequestOptions struct {
	CABundlePath Bundle            `yaml:"ca-bundle-path"`
	Proxy        string            `yaml:"proxy"`
	VerifySSL    *bool             `yaml:"verify-ssl"`
	Timeout      int               `yaml:"timeout"`
	Headers      map[string]string `yaml:"headers"`
}

// UnmarshalYAML rejects timeouts that are not a whole number of seconds.
func (o *RequestOptions) UnmarshalYAML(node *yaml.Node) error {
	type plain RequestOptions
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			if key.Value != "timeout" || value.Kind != yaml.ScalarNode {
				continue
			}
			var seconds float64
			if err := value.Decode(&seconds); err != nil {
				return fmt.Errorf("config: line %d: timeout %q is not a number: %w", value.Line, value.Value, ErrInvalid)
			}
			if seconds != math.Trunc(seconds) {
				return fmt.Errorf("config: line %d: timeout %q must be whole seconds: %w", value.Line, value.Value, ErrInvalid)
			}
		}
	}
	return node.Decode((*plain)(o)) //nolint:wrapcheck
}

// Bundle is either a single CA bundle path or a list of them.
type Bundle struct {
	paths []string
}

// SingleBundle returns a bundle made of one path.
func SingleBundle(path string) Bundle {
	return Bundle{paths: []string{path}}
}

// ListBundle returns a bundle made of the given paths, in order.
func ListBundle(paths ...string) Bundle {
	return Bundle{paths: slices.Clone(paths)}
}

// Paths normalizes the bundle to a list.
func (b Bundle) Paths() []string {
	return slices.Clone(b.paths)
}

// IsZero reports whether no path was configured.
func (b Bundle) IsZero() bool {
	return len(b.paths) == 0
}

// UnmarshalYAML accepts a scalar path or a sequence of paths.
func (b *Bundle) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var path string
		if err := node.Decode(&path); err != nil {
			return fmt.Errorf("ca-bundle-path: %w", err)
		}
		*b = Bundle{}
		if path != "" {
			b.paths = []string{path}
		}
		return nil
	case yaml.SequenceNode:
		var paths []string
		if err := node.Decode(&paths); err != nil {
			return fmt.Errorf("ca-bundle-path: %w", err)
		}
		*b = ListBundle(paths...)
		return nil
	default:
		return fmt.Errorf("ca-bundle-path: line %d: expected a path or a list of paths", node.Line)
	}
}

// MarshalYAML writes a single path as a scalar and anything else as a list.
func (b Bundle) MarshalYAML() (any, error) {
	if len(b.paths) == 1 {
		return b.paths[0], nil
	}
	return b.paths, nil
}

// DefaultPath returns the settings file location under the XDG config dir.
func DefaultPath() (string, error) {
	path, err := xdg.ConfigFile(filepath.Join(appName, appName+".yml"))
	if err != nil {
		return "", fmt.Errorf("config: settings path: %w", err)
	}
	return path, nil
}

// FileLoader reads the settings file at Path on every Load.
type FileLoader struct {
	Path string
}

// Load implements [Loader].
func (l FileLoader) Load(_ context.Context) (*Config, error) {
	data, err := os.ReadFile(l.Path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("config: load: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.Path = l.Path
	return cfg, nil
}

// Parse decodes settings YAML. ${VAR} references are expanded first, then
// LLMCONN_* environment variables override the settings and defaults are
// applied. The result is validated.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := env.ParseWithOptions(&cfg.Settings, env.Options{Prefix: "LLMCONN_"}); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogPath == "" {
		c.LogPath = filepath.Join(xdg.StateHome, appName, "prompts.log")
	}
	if c.HistoryPath == "" {
		c.HistoryPath = filepath.Join(xdg.DataHome, appName, "history.sqlite")
	}
	if c.CachePath == "" {
		c.CachePath = filepath.Join(xdg.CacheHome, appName)
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = defaultCacheTTL
	}
	for i := range c.Models {
		if c.Models[i].Provider == "" {
			c.Models[i].Provider = ProviderOpenAI
		}
	}
}

// ErrInvalid is matched by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	titles := make(map[string]struct{}, len(c.Models))
	for i, m := range c.Models {
		if m.Title == "" {
			return fmt.Errorf("config: models[%d]: title is required: %w", i, ErrInvalid)
		}
		if _, dup := titles[m.Title]; dup {
			return fmt.Errorf("config: duplicate model title %q: %w", m.Title, ErrInvalid)
		}
		titles[m.Title] = struct{}{}

		if !slices.Contains(providers, m.Provider) {
			return fmt.Errorf("config: model %q: unknown provider %q: %w", m.Title, m.Provider, ErrInvalid)
		}
		opts := m.RequestOptions
		if opts.Timeout < 0 {
			return fmt.Errorf("config: model %q: timeout must not be negative: %w", m.Title, ErrInvalid)
		}
		if opts.Proxy != "" {
			u, err := url.Parse(opts.Proxy)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("config: model %q: invalid proxy %q: %w", m.Title, opts.Proxy, ErrInvalid)
			}
		}
	}
	return nil
}
