package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/llmconn/internal/fetch"
	"github.com/spf13/cobra"
)

type requestOpts struct {
	method  string
	data    string
	headers http.Header
	copy    bool
}

func newRequestCmd(a *app) *cobra.Command {
	var opts requestOpts
	cmd := &cobra.Command{
		Use:   "request [title] PATH",
		Short: "Send one request through a model's connection.",
		Long: "Send one request through a model's connection and print the response body.\n" +
			"PATH is joined to the model's api-base unless it is an absolute URL.",
		Example: "  llmconn request gpt-4o /models\n" +
			"  llmconn request claude /messages --method POST --data @body.json",
		Args: cobra.RangeArgs(1, 2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			title, path := "", args[0]
			if len(args) == 2 { //nolint:mnd
				title, path = args[0], args[1]
			}
			return a.request(cmd.Context(), title, path, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.method, "method", "X", http.MethodGet, "HTTP method.")
	flags.StringVarP(&opts.data, "data", "d", "", "Request body; @file reads a file, @- reads stdin.")
	flags.VarP(newHeaderFlag(&opts.headers), "header", "H", "Extra header as 'Name: value', may be repeated.")
	flags.BoolVar(&opts.copy, "copy", false, "Copy the response body to the clipboard.")
	return cmd
}

func (a *app) request(ctx context.Context, title, path string, opts requestOpts) error {
	client, err := a.connect(ctx, title)
	if err != nil {
		return err
	}

	target, err := joinURL(client.Model().APIBase, path)
	if err != nil {
		return cliError{err, "Invalid request path."}
	}
	body, err := readData(opts.data, os.Stdin)
	if err != nil {
		return cliError{err, "Could not read the request body."}
	}

	var resp []byte
	if err := a.withSpinner(ctx, "Waiting for "+client.Model().Title+"...", func(ctx context.Context) error {
		var err error
		resp, err = send(ctx, client, opts.method, target, body, opts.headers)
		return err
	}); err != nil {
		return explain(err)
	}

	if _, err := a.out.Write(resp); err != nil {
		return err //nolint:wrapcheck
	}
	if len(resp) > 0 && resp[len(resp)-1] != '\n' && isOutputTTY() {
		fmt.Fprintln(a.out)
	}
	if opts.copy {
		if err := clipboard.WriteAll(string(resp)); err != nil {
			a.logger.Warn("could not copy to clipboard", "err", err)
		} else {
			fmt.Fprintln(a.errOut, stderrStyles().Comment.Render("Copied to clipboard."))
		}
	}
	return nil
}

// send dispatches one request through client and returns the response
// body. The request and the response are both mirrored to the client log.
func send(ctx context.Context, client *fetch.Client, method, target string, body []byte, headers http.Header) ([]byte, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), target, reader)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	req.Header = headers.Clone()
	if req.Header == nil {
		req.Header = http.Header{}
	}
	if len(body) > 0 && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, values := range authHeaders(client.Model()) {
		if req.Header.Get(name) == "" {
			req.Header[name] = values
		}
	}

	if err := client.Log(fmt.Sprintf("%s %s\n\n%s\n", req.Method, target, body)); err != nil {
		return nil, fmt.Errorf("request: log: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	defer resp.Body.Close() //nolint:errcheck

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("request: read response: %w", err)
	}
	if err := client.Log(fmt.Sprintf("%s\n\n%s\n", resp.Status, out)); err != nil {
		return nil, fmt.Errorf("request: log: %w", err)
	}
	return out, nil
}

// joinURL resolves path against base. Absolute URLs are returned as is.
func joinURL(base, path string) (string, error) {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path, nil
	}
	if base == "" {
		return "", newUserErrorf("model has no api-base, use an absolute URL")
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/"), nil
}

func readData(data string, stdin io.Reader) ([]byte, error) {
	switch {
	case data == "@-":
		return io.ReadAll(stdin) //nolint:wrapcheck
	case strings.HasPrefix(data, "@"):
		return os.ReadFile(strings.TrimPrefix(data, "@")) //nolint:wrapcheck
	default:
		return []byte(data), nil
	}
}
