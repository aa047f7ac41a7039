// Package transport builds the per-model HTTP dispatcher: direct or proxied,
// bound to a trust store, a verification policy and timeout budgets.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/llmconn/internal/certs"
)

// DefaultTimeout is used when a model does not set a timeout. Inference
// calls can be slow, so it is generous.
const DefaultTimeout = 7200 * time.Second

// Kind tells direct dispatchers from proxied ones.
type Kind int

// Dispatcher kinds.
const (
	Direct Kind = iota
	Proxied
)

func (k Kind) String() string {
	if k == Proxied {
		return "proxied"
	}
	return "direct"
}

// Options configures [New].
type Options struct {
	Store *certs.Store
	// VerifySSL nil keeps the transport default.
	VerifySSL *bool
	// TimeoutSeconds applies to every budget; <= 0 means [DefaultTimeout].
	TimeoutSeconds int
	// Proxy is the proxy URL; empty means a direct connection.
	Proxy string
}

// Budgets are the per-phase timeouts of a dispatcher.
type Budgets struct {
	Connect time.Duration
	Headers time.Duration
	Body    time.Duration
}

// Dispatcher is an [http.RoundTripper] bound to one model's connection
// policy.
type Dispatcher struct {
	kind      Kind
	proxy     *url.URL
	verify    *bool
	store     *certs.Store
	budgets   Budgets
	tlsConfig *tls.Config
	transport *http.Transport
}

var _ http.RoundTripper = &Dispatcher{}

// New creates a dispatcher.
func New(opts Options) (*Dispatcher, error) {
	timeout := BudgetFor(opts.TimeoutSeconds)
	budgets := Budgets{
		Connect: timeout,
		Headers: timeout,
		Body:    timeout,
	}

	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if opts.Store != nil {
		pool, err := opts.Store.Pool()
		if err != nil {
			return nil, fmt.Errorf("transport: %w", err)
		}
		tlsConfig.RootCAs = pool
	}
	if opts.VerifySSL != nil {
		tlsConfig.InsecureSkipVerify = !*opts.VerifySSL //nolint:gosec
	}

	d := &Dispatcher{
		kind:      Direct,
		verify:    opts.VerifySSL,
		store:     opts.Store,
		budgets:   budgets,
		tlsConfig: tlsConfig,
	}

	t := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   budgets.Connect,
			KeepAlive: 30 * time.Second, //nolint:mnd
		}).DialContext,
		TLSClientConfig:       tlsConfig,
		TLSHandshakeTimeout:   budgets.Connect,
		ResponseHeaderTimeout: budgets.Headers,
		IdleConnTimeout:       90 * time.Second, //nolint:mnd
		ExpectContinueTimeout: time.Second,
		MaxIdleConns:          10, //nolint:mnd
		ForceAttemptHTTP2:     true,
	}
	if opts.Proxy != "" {
		u, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("transport: invalid proxy: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("transport: invalid proxy %q", opts.Proxy)
		}
		d.kind = Proxied
		d.proxy = u
		t.Proxy = http.ProxyURL(u)
	}
	d.transport = t
	return d, nil
}

// BudgetFor converts a timeout in whole seconds into a budget.
func BudgetFor(seconds int) time.Duration {
	if seconds <= 0 {
		return DefaultTimeout
	}
	return time.Duration(seconds) * 1000 * time.Millisecond
}

// Kind returns whether the dispatcher is direct or proxied.
func (d *Dispatcher) Kind() Kind { return d.kind }

// Proxy returns the proxy URL, or nil for direct dispatchers.
func (d *Dispatcher) Proxy() *url.URL { return d.proxy }

// VerifySSL returns the verification flag exactly as configured.
func (d *Dispatcher) VerifySSL() *bool { return d.verify }

// Store returns the trust store the dispatcher was built with.
func (d *Dispatcher) Store() *certs.Store { return d.store }

// Budgets returns the timeout budgets.
func (d *Dispatcher) Budgets() Budgets { return d.budgets }

// TLSConfig returns a copy of the TLS options used for every connection,
// through the proxy or not.
func (d *Dispatcher) TLSConfig() *tls.Config { return d.tlsConfig.Clone() }

// RoundTrip implements [http.RoundTripper]. The response body fails once
// no data arrived for longer than the body budget.
func (d *Dispatcher) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithCancel(req.Context())
	resp, err := d.transport.RoundTrip(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err //nolint:wrapcheck
	}
	resp.Body = newIdleBody(resp.Body, d.budgets.Body, cancel)
	return resp, nil
}

// CloseIdleConnections releases pooled connections.
func (d *Dispatcher) CloseIdleConnections() {
	d.transport.CloseIdleConnections()
}

// idleBody cancels the request when the gap between two reads exceeds the
// budget.
type idleBody struct {
	rc     io.ReadCloser
	timer  *time.Timer
	budget time.Duration
	cancel context.CancelFunc
	once   sync.Once
}

func newIdleBody(rc io.ReadCloser, budget time.Duration, cancel context.CancelFunc) *idleBody {
	return &idleBody{
		rc:     rc,
		timer:  time.AfterFunc(budget, cancel),
		budget: budget,
		cancel: cancel,
	}
}

func (b *idleBody) Read(p []byte) (int, error) {
	n, err := b.rc.Read(p)
	if err == nil {
		b.timer.Reset(b.budget)
	}
	return n, err //nolint:wrapcheck
}

func (b *idleBody) Close() error {
	err := b.rc.Close()
	b.once.Do(func() {
		b.timer.Stop()
		b.cancel()
	})
	return err //nolint:wrapcheck
}
