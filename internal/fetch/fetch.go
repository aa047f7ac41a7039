// Package fetch wraps a model's dispatcher: it applies the model headers,
// turns failed responses into errors, and mirrors traffic to a log sink.
package fetch

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/llmconn/internal/config"
)

// Separator precedes every log entry, twice.
const Separator = "=========================================================================="

// MissingV1Hint replaces the body of 404 responses whose URL has no "/v1".
const MissingV1Hint = "This may mean that you forgot to add '/v1' to the end of your 'api-base' in the settings file."

// Sink receives log entries. Writes must land in call order.
type Sink interface {
	Append(text string) error
	AppendLine(text string) error
}

// HTTPError is returned for responses with a status of 400 or more.
type HTTPError struct {
	StatusCode int
	StatusText string
	URL        string
	Detail     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d %s from %s\n\n%s", e.StatusCode, e.StatusText, e.URL, e.Detail)
}

// Exchange describes one dispatched request.
type Exchange struct {
	Title    string
	Method   string
	URL      string
	Status   int
	Started  time.Time
	Duration time.Duration
	Err      error
}

// Observer is told about every exchange once it completes.
type Observer func(Exchange)

// Option configures a [Client].
type Option func(*Client)

// WithObserver mirrors request and response metadata to o.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observe = o
	}
}

// Client is a model bound to its dispatcher and log sink. It is built for
// a single resolution and never shared through the configuration.
type Client struct {
	model   config.Model
	headers http.Header
	rt      http.RoundTripper
	sink    Sink
	observe Observer
}

var _ http.RoundTripper = &Client{}

// New binds model to rt and sink. A nil sink discards log entries.
func New(model config.Model, rt http.RoundTripper, sink Sink, opts ...Option) *Client {
	headers := make(http.Header, len(model.RequestOptions.Headers))
	for k, v := range model.RequestOptions.Headers {
		headers.Set(k, v)
	}
	if sink == nil {
		sink = nopSink{}
	}
	c := &Client{
		model:   model,
		headers: headers,
		rt:      rt,
		sink:    sink,
		observe: func(Exchange) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the model the client was resolved for.
func (c *Client) Model() config.Model { return c.model }

// Transport returns the underlying dispatcher.
func (c *Client) Transport() http.RoundTripper { return c.rt }

// HTTPClient returns an [*http.Client] dispatching through c, suitable for
// SDKs that accept one.
func (c *Client) HTTPClient() *http.Client {
	return &http.Client{Transport: c}
}

// Do sends req through c, following redirects.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.HTTPClient().Do(req) //nolint:wrapcheck
}

// RoundTrip implements [http.RoundTripper]. The request is cloned before
// the headers are merged; responses with a status of 400 or more are
// consumed and returned as [*HTTPError].
func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	started := time.Now()
	out := req.Clone(req.Context())
	out.Header = MergeHeaders(c.headers, req.Header)

	resp, err := c.rt.RoundTrip(out)
	if err == nil {
		if herr := check(resp, out); herr != nil {
			resp, err = nil, herr
		}
	}

	ex := Exchange{
		Title:    c.model.Title,
		Method:   out.Method,
		URL:      out.URL.String(),
		Started:  started,
		Duration: time.Since(started),
		Err:      err,
	}
	if resp != nil {
		ex.Status = resp.StatusCode
	}
	if herr := (*HTTPError)(nil); errors.As(err, &herr) {
		ex.Status = herr.StatusCode
	}
	c.observe(ex)
	return resp, err
}

// Log appends entry to the sink after two separator lines.
func (c *Client) Log(entry string) error {
	if err := c.sink.AppendLine(Separator); err != nil {
		return err //nolint:wrapcheck
	}
	if err := c.sink.AppendLine(Separator); err != nil {
		return err //nolint:wrapcheck
	}
	return c.sink.Append(entry) //nolint:wrapcheck
}

// MergeHeaders returns model headers overridden by request headers. Neither
// input is modified.
func MergeHeaders(model, request http.Header) http.Header {
	merged := model.Clone()
	if merged == nil {
		merged = make(http.Header, len(request))
	}
	for k, vs := range request {
		merged[http.CanonicalHeaderKey(k)] = slices.Clone(vs)
	}
	return merged
}

func check(resp *http.Response, req *http.Request) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	bts, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("fetch: read %d response: %w", resp.StatusCode, err)
	}

	u := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		u = resp.Request.URL
	}
	url := u.String()

	detail := string(bts)
	if resp.StatusCode == http.StatusNotFound && !strings.Contains(url, "/v1") {
		detail = MissingV1Hint
	}
	return &HTTPError{
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp),
		URL:        url,
		Detail:     detail,
	}
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}

type nopSink struct{}

func (nopSink) Append(string) error     { return nil }
func (nopSink) AppendLine(string) error { return nil }
