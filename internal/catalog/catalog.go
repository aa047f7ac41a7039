// Package catalog describes the models an endpoint offers.
package catalog

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"
)

// ErrNoModels happens when an endpoint lists nothing.
var ErrNoModels = errors.New("no models")

// Entry is a model as reported by the remote endpoint.
type Entry struct {
	ID      string
	Name    string
	Owner   string
	Created time.Time
}

// Lister lists the models available on an endpoint.
type Lister interface {
	ListModels(ctx context.Context) ([]Entry, error)
}

// ListerFunc adapts a function to [Lister].
type ListerFunc func(ctx context.Context) ([]Entry, error)

// ListModels implements [Lister].
func (f ListerFunc) ListModels(ctx context.Context) ([]Entry, error) { return f(ctx) }

// Normalize sorts entries by ID and drops duplicates and blank IDs.
// The input is not modified.
func Normalize(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.ID) == "" {
			continue
		}
		out = append(out, e)
	}
	slices.SortStableFunc(out, func(a, b Entry) int { return strings.Compare(a.ID, b.ID) })
	return slices.CompactFunc(out, func(a, b Entry) bool { return a.ID == b.ID })
}

// IDs returns the IDs of entries, in order.
func IDs(entries []Entry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}

// List calls l and normalizes the result, failing with [ErrNoModels] when
// nothing is left.
func List(ctx context.Context, l Lister) ([]Entry, error) {
	entries, err := l.ListModels(ctx)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	entries = Normalize(entries)
	if len(entries) == 0 {
		return nil, ErrNoModels
	}
	return entries, nil
}
