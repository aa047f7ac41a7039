package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/llmconn/internal/config"
	"github.com/charmbracelet/x/exp/ordered"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the configured models.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config(cmd.Context())
			if err != nil {
				return err
			}
			if len(cfg.Models) == 0 {
				fmt.Fprintf(
					a.errOut,
					"No models configured, run %s to add one.\n",
					stderrStyles().InlineCode.Render("llmconn settings"),
				)
				return nil
			}
			printModels(a.out, cfg, stdoutStyles(), isOutputTTY())
			return nil
		},
	}
}

// defaultTitleOf returns the title used when none is given.
func defaultTitleOf(cfg *config.Config) string {
	var first string
	if len(cfg.Models) > 0 {
		first = cfg.Models[0].Title
	}
	return ordered.First(cfg.DefaultModel, first)
}

func printModels(w io.Writer, cfg *config.Config, s styles, tty bool) {
	if !tty {
		for _, m := range cfg.Models {
			fmt.Fprintln(w, m.Title)
		}
		return
	}

	def := defaultTitleOf(cfg)
	for _, m := range cfg.Models {
		marker := " "
		if m.Title == def {
			marker = s.Default.String()
		}
		fmt.Fprintf(w, "%s %s %s", marker, s.Title.Render(m.Title), s.Provider.Render(m.Provider))
		if m.APIBase != "" {
			fmt.Fprintf(w, " %s", s.Comment.Render(m.APIBase))
		}
		fmt.Fprintln(w)
	}
}
