package main

import (
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/llmconn/internal/config"
	"github.com/charmbracelet/llmconn/internal/transport"
	xstrings "github.com/charmbracelet/x/exp/strings"
	"github.com/spf13/cobra"
)

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [title]",
		Short: "Describe the connection a model resolves to.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.connect(cmd.Context(), firstArg(args))
			if err != nil {
				return err
			}
			d, ok := client.Transport().(*transport.Dispatcher)
			if !ok {
				return newUserErrorf("unexpected transport %T", client.Transport())
			}

			md := describeConnection(client.Model(), d)
			if !isOutputTTY() {
				fmt.Fprint(a.out, md)
				return nil
			}
			r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80)) //nolint:mnd
			if err != nil {
				return cliError{err, "Could not render the description."}
			}
			out, err := r.Render(md)
			if err != nil {
				return cliError{err, "Could not render the description."}
			}
			fmt.Fprint(a.out, out)
			return nil
		},
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// describeConnection renders the policy of a resolved model as markdown.
// Header values and keys are never printed.
func describeConnection(m config.Model, d *transport.Dispatcher) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", m.Title)
	row := func(name, value string) {
		fmt.Fprintf(&b, "- **%s:** %s\n", name, value)
	}

	row("Provider", m.Provider)
	if m.Model != "" {
		row("Model", "`"+m.Model+"`")
	}
	if m.APIBase != "" {
		row("API base", m.APIBase)
	}
	if m.Key() != "" {
		row("API key", "set")
	} else {
		row("API key", "not set")
	}

	if d.Kind() == transport.Proxied {
		row("Connection", "proxied through "+d.Proxy().Redacted())
	} else {
		row("Connection", "direct, proxy environment variables are ignored")
	}

	switch v := d.VerifySSL(); {
	case v == nil:
		row("TLS verification", "transport default")
	case *v:
		row("TLS verification", "enabled")
	default:
		row("TLS verification", "disabled")
	}

	store := d.Store()
	row("Trust store", fmt.Sprintf(
		"%d platform roots, %d custom bundles",
		len(store.Roots()),
		len(store.Custom()),
	))

	budgets := d.Budgets()
	row("Timeouts", fmt.Sprintf(
		"connect %s, headers %s, body %s",
		budgets.Connect,
		budgets.Headers,
		budgets.Body,
	))

	if len(m.RequestOptions.Headers) > 0 {
		names := slices.Sorted(maps.Keys(m.RequestOptions.Headers))
		for i, name := range names {
			names[i] = "`" + http.CanonicalHeaderKey(name) + "`"
		}
		row("Headers", xstrings.EnglishJoin(names, true))
	}
	return b.String()
}
