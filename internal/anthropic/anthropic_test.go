package anthropic

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/llmconn/internal/config"
	"github.com/charmbracelet/llmconn/internal/fetch"
	"github.com/stretchr/testify/require"
)

func TestListModels(t *testing.T) {
	var path, key, limit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		key = r.Header.Get("X-Api-Key")
		limit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":[
			{"id":"claude-sonnet-4-5","type":"model","display_name":"Claude Sonnet 4.5","created_at":"2025-09-29T00:00:00Z"}
		],"has_more":false,"first_id":"claude-sonnet-4-5","last_id":"claude-sonnet-4-5"}`)
	}))
	t.Cleanup(srv.Close)

	client := New(Config{
		AuthToken:  "sk-ant",
		BaseURL:    srv.URL + "/v1",
		HTTPClient: fetch.New(config.Model{Title: "claude"}, http.DefaultTransport, nil).HTTPClient(),
	})

	entries, err := client.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "claude-sonnet-4-5", entries[0].ID)
	require.Equal(t, "Claude Sonnet 4.5", entries[0].Name)
	require.Equal(t, 2025, entries[0].Created.Year())
	require.Equal(t, "/v1/models", path)
	require.Equal(t, "sk-ant", key)
	require.Equal(t, "1000", limit)
}

func TestListModelsServerError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, `{"type":"error"}`, http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := New(Config{
		BaseURL:    srv.URL,
		HTTPClient: fetch.New(config.Model{Title: "claude"}, http.DefaultTransport, nil).HTTPClient(),
	})
	_, err := client.ListModels(context.Background())

	var herr *fetch.HTTPError
	require.ErrorAs(t, err, &herr)
	require.Equal(t, http.StatusInternalServerError, herr.StatusCode)
	require.Equal(t, 1, calls)
}
