package connect

import (
	"context"
	"encoding/pem"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/llmconn/internal/certs"
	"github.com/charmbracelet/llmconn/internal/config"
	"github.com/charmbracelet/llmconn/internal/fetch"
	"github.com/charmbracelet/llmconn/internal/resolver"
	"github.com/charmbracelet/llmconn/internal/transport"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

type memSink struct{ entries []string }

func (s *memSink) Append(text string) error {
	s.entries = append(s.entries, text)
	return nil
}

func (s *memSink) AppendLine(text string) error { return s.Append(text + "\n") }

func newConnector(tb testing.TB, models []config.Model, calls *int, opts Options) *Connector {
	tb.Helper()
	opts.Loader = config.LoaderFunc(func(context.Context) (*config.Config, error) {
		*calls++
		return &config.Config{Models: models}, nil
	})
	opts.Certs = certs.Builder{Roots: func() []string { return nil }}
	opts.Logger = log.New(io.Discard)
	return New(opts)
}

func TestConnect(t *testing.T) {
	headers := make(chan http.Header, 1)
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		_, _ = io.WriteString(w, `{"data":[]}`)
	}))
	t.Cleanup(srv.Close)

	bundle := filepath.Join(t.TempDir(), "corp.pem")
	require.NoError(t, os.WriteFile(bundle, pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: srv.Certificate().Raw,
	}), 0o600))

	models := []config.Model{
		{
			Title:   "corp",
			APIBase: srv.URL + "/v1",
			RequestOptions: config.RequestOptions{
				CABundlePath: config.SingleBundle(bundle),
				Timeout:      30,
				Headers:      map[string]string{"X-Team": "platform"},
			},
		},
	}

	var calls int
	var seen []fetch.Exchange
	sink := &memSink{}
	c := newConnector(t, models, &calls, Options{
		Sink:     sink,
		Observer: func(ex fetch.Exchange) { seen = append(seen, ex) },
	})

	client, err := c.Connect(context.Background(), "corp")
	require.NoError(t, err)
	require.Equal(t, "corp", client.Model().Title)

	d, ok := client.Transport().(*transport.Dispatcher)
	require.True(t, ok)
	require.Equal(t, transport.Direct, d.Kind())
	require.EqualValues(t, 30000, d.Budgets().Body.Milliseconds())
	require.Equal(t, 1, d.Store().Len())

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/models", nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, "platform", (<-headers).Get("X-Team"))
	require.Len(t, seen, 1)
	require.Equal(t, http.StatusOK, seen[0].Status)

	require.NoError(t, client.Log("prompt"))
	require.Equal(t, []string{fetch.Separator + "\n", fetch.Separator + "\n", "prompt"}, sink.entries)

	// every call builds its own dispatcher, the configuration is loaded once.
	other, err := c.Connect(context.Background(), "corp")
	require.NoError(t, err)
	require.NotSame(t, client.Transport(), other.Transport())
	require.Equal(t, 1, calls)
}

func TestConnectProxy(t *testing.T) {
	models := []config.Model{{
		Title:          "proxied",
		RequestOptions: config.RequestOptions{Proxy: "http://proxy.internal:3128"},
	}}
	var calls int
	client, err := newConnector(t, models, &calls, Options{}).Connect(context.Background(), "")
	require.NoError(t, err)
	d := client.Transport().(*transport.Dispatcher)
	require.Equal(t, transport.Proxied, d.Kind())
	require.Equal(t, transport.DefaultTimeout, d.Budgets().Headers)
}

func TestConnectTimeoutOverride(t *testing.T) {
	models := []config.Model{{Title: "m", RequestOptions: config.RequestOptions{Timeout: 30}}}
	var calls int
	client, err := newConnector(t, models, &calls, Options{TimeoutSeconds: 5}).Connect(context.Background(), "m")
	require.NoError(t, err)
	require.EqualValues(t, 5000, client.Transport().(*transport.Dispatcher).Budgets().Connect.Milliseconds())
}

func TestConnectErrors(t *testing.T) {
	t.Run("unknown model", func(t *testing.T) {
		var calls int
		_, err := newConnector(t, nil, &calls, Options{}).Connect(context.Background(), "ghost")
		require.ErrorIs(t, err, resolver.ErrModelNotFound)
		require.Equal(t, 2, calls)
	})

	t.Run("missing ca bundle", func(t *testing.T) {
		models := []config.Model{{
			Title: "m",
			RequestOptions: config.RequestOptions{
				CABundlePath: config.ListBundle(filepath.Join(t.TempDir(), "missing.pem")),
			},
		}}
		var calls int
		_, err := newConnector(t, models, &calls, Options{}).Connect(context.Background(), "m")
		require.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("reload", func(t *testing.T) {
		var calls int
		c := newConnector(t, []config.Model{{Title: "m"}}, &calls, Options{})
		_, err := c.Config(context.Background())
		require.NoError(t, err)
		c.Reload()
		_, err = c.Config(context.Background())
		require.NoError(t, err)
		require.Equal(t, 2, calls)
	})
}
