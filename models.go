package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/caarlos0/timea.go"
	"github.com/charmbracelet/llmconn/internal/cache"
	"github.com/charmbracelet/llmconn/internal/catalog"
	"github.com/charmbracelet/llmconn/internal/config"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const listConcurrency = 4

type modelsOpts struct {
	all     bool
	refresh bool
}

func newModelsCmd(a *app) *cobra.Command {
	var opts modelsOpts
	cmd := &cobra.Command{
		Use:   "models [title]",
		Short: "List the models an endpoint offers.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.all && len(args) > 0 {
				return newUserErrorf("--all does not take a title")
			}
			return a.models(cmd.Context(), firstArg(args), opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.all, "all", "a", false, "List the models of every configured endpoint.")
	cmd.Flags().BoolVarP(&opts.refresh, "refresh", "r", false, "Ignore cached listings.")
	return cmd
}

func (a *app) models(ctx context.Context, title string, opts modelsOpts) error {
	cfg, err := a.config(ctx)
	if err != nil {
		return err
	}
	listings, err := cache.NewListings(cfg.CachePath, cfg.CacheTTL)
	if err != nil {
		return cliError{err, "Could not open the listing cache."}
	}

	if !opts.all {
		model, err := a.resolve(ctx, title)
		if err != nil {
			return err
		}
		var listing cache.Listing
		if err := a.withSpinner(ctx, "Listing "+model.Title+" models...", func(ctx context.Context) error {
			var err error
			listing, err = a.listing(ctx, listings, model, opts.refresh)
			return err
		}); err != nil {
			return explain(err)
		}
		printListing(a.out, listing, stdoutStyles(), isOutputTTY(), false)
		return nil
	}

	results := make([]cache.Listing, len(cfg.Models))
	errs := make([]error, len(cfg.Models))
	if err := a.withSpinner(ctx, "Listing models...", func(ctx context.Context) error {
		var g errgroup.Group
		g.SetLimit(listConcurrency)
		for i, model := range cfg.Models {
			g.Go(func() error {
				results[i], errs[i] = a.listing(ctx, listings, model, opts.refresh)
				return nil
			})
		}
		return g.Wait() //nolint:wrapcheck
	}); err != nil {
		return err
	}

	var failed int
	for i, listing := range results {
		if errs[i] != nil {
			failed++
			a.logger.Warn("could not list models", "model", cfg.Models[i].Title, "err", errs[i])
			continue
		}
		printListing(a.out, listing, stdoutStyles(), isOutputTTY(), true)
	}
	if failed > 0 && failed == len(results) {
		return explain(errors.Join(errs...))
	}
	return nil
}

// listing returns the cached listing of model, fetching it when missing,
// expired or refresh is set. When fetching fails a stale copy is used.
func (a *app) listing(ctx context.Context, listings *cache.Listings, model config.Model, refresh bool) (cache.Listing, error) {
	if !refresh {
		listing, err := listings.Read(model.Title, model.APIBase)
		if err == nil {
			a.logger.Debug("listing from cache", "model", model.Title, "fetched", listing.Fetched)
			return listing, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			a.logger.Warn("could not read cached listing", "model", model.Title, "err", err)
		}
	}

	entries, err := a.fetchEntries(ctx, model)
	if err != nil {
		stale, serr := listings.Stale(model.Title, model.APIBase)
		if serr != nil {
			return cache.Listing{}, err
		}
		a.logger.Warn("using stale listing", "model", model.Title, "fetched", timeago.Of(stale.Fetched), "err", err)
		return stale, nil
	}

	listing := cache.Listing{
		Title:   model.Title,
		APIBase: model.APIBase,
		Fetched: time.Now(),
		Entries: entries,
	}
	if err := listings.Write(listing); err != nil {
		a.logger.Warn("could not cache listing", "model", model.Title, "err", err)
	}
	return listing, nil
}

func (a *app) fetchEntries(ctx context.Context, model config.Model) ([]catalog.Entry, error) {
	client, err := a.connector.Bind(model)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	lister, err := newLister(model, client.HTTPClient())
	if err != nil {
		return nil, err
	}
	return catalog.List(ctx, lister) //nolint:wrapcheck
}

func printListing(w io.Writer, listing cache.Listing, s styles, tty, withTitle bool) {
	if !tty {
		for _, e := range listing.Entries {
			if withTitle {
				fmt.Fprintf(w, "%s\t%s\n", listing.Title, e.ID)
				continue
			}
			fmt.Fprintln(w, e.ID)
		}
		return
	}

	if withTitle {
		fmt.Fprintf(
			w,
			"%s %s\n",
			s.Title.Render(listing.Title),
			s.Timeago.Render("fetched "+timeago.Of(listing.Fetched)),
		)
	}
	for _, e := range listing.Entries {
		fmt.Fprintf(w, "  %s", e.ID)
		if e.Name != "" && e.Name != e.ID {
			fmt.Fprintf(w, " %s", s.Comment.Render(e.Name))
		}
		if e.Owner != "" {
			fmt.Fprintf(w, " %s", s.Provider.Render(e.Owner))
		}
		fmt.Fprintln(w)
	}
}
