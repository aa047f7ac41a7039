package ollama

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
	for name, suffix := range map[string]string{
		"bare":     "",
		"slash":    "/",
		"api path": "/api",
	} {
		t.Run(name, func(t *testing.T) {
			var path string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				path = r.URL.Path
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, `{"models":[
					{"name":"llama3.2:latest","model":"llama3.2:latest","modified_at":"2025-01-02T15:04:05Z","size":2019393189}
				]}`)
			}))
			t.Cleanup(srv.Close)

			client, err := New(Config{
				BaseURL:    srv.URL + suffix,
				HTTPClient: fetch.New(config.Model{Title: "local"}, http.DefaultTransport, nil).HTTPClient(),
			})
			require.NoError(t, err)

			entries, err := client.ListModels(context.Background())
			require.NoError(t, err)
			require.Len(t, entries, 1)
			require.Equal(t, "llama3.2:latest", entries[0].ID)
			require.Equal(t, 2025, entries[0].Created.Year())
			require.Equal(t, "/api/tags", path)
		})
	}
}

func TestNewInvalidURL(t *testing.T) {
	_, err := New(Config{BaseURL: "http://[::1"})
	require.Error(t, err)
}
