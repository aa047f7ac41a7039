// Package resolver finds the model configuration matching a title.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/llmconn/internal/config"
)

// ErrModelNotFound is matched by [*NotFoundError].
var ErrModelNotFound = errors.New("model not found")

// NotFoundError is returned when no model matches, even after a reload.
type NotFoundError struct {
	// Title is the requested title; empty when none was given or found.
	Title string
}

func (e *NotFoundError) Error() string {
	if e.Title == "" {
		return "unknown model: no models configured"
	}
	return fmt.Sprintf("unknown model %q", e.Title)
}

// Is implements errors.Is.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrModelNotFound
}

// ConfigSource is a cached configuration.
type ConfigSource interface {
	Load(ctx context.Context) (*config.Config, error)
	Invalidate()
}

// DefaultTitleService suggests a title when the caller gives none. It is
// advisory: an empty answer or an error just leaves the title unset.
type DefaultTitleService interface {
	DefaultModelTitle(ctx context.Context) (string, error)
}

// DefaultTitleFunc adapts a function to [DefaultTitleService].
type DefaultTitleFunc func(ctx context.Context) (string, error)

// DefaultModelTitle implements [DefaultTitleService].
func (f DefaultTitleFunc) DefaultModelTitle(ctx context.Context) (string, error) {
	return f(ctx)
}

// Resolver looks models up by title.
type Resolver struct {
	configs  ConfigSource
	defaults DefaultTitleService
}

// New returns a resolver. defaults may be nil.
func New(configs ConfigSource, defaults DefaultTitleService) *Resolver {
	return &Resolver{
		configs:  configs,
		defaults: defaults,
	}
}

// Resolve returns the model titled title. An empty title asks the default
// title service and, failing that, picks the first configured model. On a
// miss the configuration is reloaded once and the lookup repeated.
func (r *Resolver) Resolve(ctx context.Context, title string) (config.Model, error) {
	cfg, err := r.configs.Load(ctx)
	if err != nil {
		return config.Model{}, err //nolint:wrapcheck
	}

	if title == "" && r.defaults != nil {
		if t, err := r.defaults.DefaultModelTitle(ctx); err == nil && t != "" {
			title = t
		}
	}

	if m, ok := Lookup(cfg.Models, title); ok {
		return m, nil
	}

	r.configs.Invalidate()
	cfg, err = r.configs.Load(ctx)
	if err != nil {
		return config.Model{}, err //nolint:wrapcheck
	}
	if m, ok := Lookup(cfg.Models, title); ok {
		return m, nil
	}
	return config.Model{}, &NotFoundError{Title: title}
}

// Lookup returns the first model titled title, or the first model at all
// when title is empty.
func Lookup(models []config.Model, title string) (config.Model, bool) {
	if title == "" {
		if len(models) == 0 {
			return config.Model{}, false
		}
		return models[0], true
	}
	for _, m := range models {
		if m.Title == title {
			return m, true
		}
	}
	return config.Model{}, false
}
