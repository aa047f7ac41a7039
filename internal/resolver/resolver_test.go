package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/llmconn/internal/config"
	"github.com/charmbracelet/llmconn/internal/configcache"
	"github.com/stretchr/testify/require"
)

// loader hands out the configured snapshots in order, repeating the last.
type loader struct {
	calls     int
	snapshots [][]config.Model
	err       error
}

func (l *loader) load(context.Context) (*config.Config, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	i := min(l.calls-1, len(l.snapshots)-1)
	return &config.Config{Models: l.snapshots[i]}, nil
}

func newResolver(l *loader, defaults DefaultTitleService) *Resolver {
	return New(configcache.New(l.load), defaults)
}

var models = []config.Model{
	{Title: "alpha", Model: "m", APIBase: "https://a.example/v1"},
	{Title: "beta", Model: "m", APIBase: "https://a.example/v1"},
	{Title: "gamma", Model: "m", APIBase: "https://a.example/v1"},
}

func TestResolveByTitle(t *testing.T) {
	l := &loader{snapshots: [][]config.Model{models}}
	r := newResolver(l, nil)

	for _, title := range []string{"beta", "gamma", "alpha"} {
		m, err := r.Resolve(context.Background(), title)
		require.NoError(t, err)
		require.Equal(t, title, m.Title)
	}
	require.Equal(t, 1, l.calls)
}

func TestResolveFirstWhenNoTitle(t *testing.T) {
	l := &loader{snapshots: [][]config.Model{models}}
	m, err := newResolver(l, nil).Resolve(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, "alpha", m.Title)
}

func TestResolveDefaultTitle(t *testing.T) {
	t.Run("used", func(t *testing.T) {
		l := &loader{snapshots: [][]config.Model{models}}
		defaults := DefaultTitleFunc(func(context.Context) (string, error) { return "gamma", nil })
		m, err := newResolver(l, defaults).Resolve(context.Background(), "")
		require.NoError(t, err)
		require.Equal(t, "gamma", m.Title)
	})

	t.Run("not asked when title given", func(t *testing.T) {
		l := &loader{snapshots: [][]config.Model{models}}
		defaults := DefaultTitleFunc(func(context.Context) (string, error) {
			t.Fatal("should not be called")
			return "", nil
		})
		m, err := newResolver(l, defaults).Resolve(context.Background(), "beta")
		require.NoError(t, err)
		require.Equal(t, "beta", m.Title)
	})

	t.Run("empty answer", func(t *testing.T) {
		l := &loader{snapshots: [][]config.Model{models}}
		defaults := DefaultTitleFunc(func(context.Context) (string, error) { return "", nil })
		m, err := newResolver(l, defaults).Resolve(context.Background(), "")
		require.NoError(t, err)
		require.Equal(t, "alpha", m.Title)
	})

	t.Run("error is ignored", func(t *testing.T) {
		l := &loader{snapshots: [][]config.Model{models}}
		defaults := DefaultTitleFunc(func(context.Context) (string, error) { return "beta", errors.New("no ui") })
		m, err := newResolver(l, defaults).Resolve(context.Background(), "")
		require.NoError(t, err)
		require.Equal(t, "alpha", m.Title)
	})

	t.Run("unknown default is retried then fails", func(t *testing.T) {
		l := &loader{snapshots: [][]config.Model{models}}
		defaults := DefaultTitleFunc(func(context.Context) (string, error) { return "delta", nil })
		_, err := newResolver(l, defaults).Resolve(context.Background(), "")
		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
		require.Equal(t, "delta", nf.Title)
		require.Equal(t, 2, l.calls)
	})
}

func TestResolveReload(t *testing.T) {
	t.Run("found after reload", func(t *testing.T) {
		l := &loader{snapshots: [][]config.Model{
			models[:1],
			models,
		}}
		m, err := newResolver(l, nil).Resolve(context.Background(), "gamma")
		require.NoError(t, err)
		require.Equal(t, "gamma", m.Title)
		require.Equal(t, 2, l.calls)
	})

	t.Run("unknown title", func(t *testing.T) {
		l := &loader{snapshots: [][]config.Model{models}}
		_, err := newResolver(l, nil).Resolve(context.Background(), "nope")
		require.ErrorIs(t, err, ErrModelNotFound)
		require.EqualError(t, err, `unknown model "nope"`)
		require.Equal(t, 2, l.calls)
	})

	t.Run("empty configuration", func(t *testing.T) {
		l := &loader{snapshots: [][]config.Model{nil}}
		_, err := newResolver(l, nil).Resolve(context.Background(), "")
		require.ErrorIs(t, err, ErrModelNotFound)
		require.Equal(t, 2, l.calls)
	})

	t.Run("first model appears after reload", func(t *testing.T) {
		l := &loader{snapshots: [][]config.Model{nil, models}}
		m, err := newResolver(l, nil).Resolve(context.Background(), "")
		require.NoError(t, err)
		require.Equal(t, "alpha", m.Title)
	})
}

func TestResolveLoadFailure(t *testing.T) {
	boom := errors.New("invalid settings")
	l := &loader{err: boom}
	_, err := newResolver(l, nil).Resolve(context.Background(), "alpha")
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, l.calls)
}

func TestLookupFirstMatch(t *testing.T) {
	dupes := []config.Model{
		{Title: "x", Model: "first"},
		{Title: "y", Model: "other"},
		{Title: "x", Model: "second"},
	}
	m, ok := Lookup(dupes, "x")
	require.True(t, ok)
	require.Equal(t, "first", m.Model)

	_, ok = Lookup(nil, "x")
	require.False(t, ok)
}
