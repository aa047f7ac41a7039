package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/caarlos0/timea.go"
	"github.com/charmbracelet/llmconn/internal/history"
	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	var purge bool
	cmd := &cobra.Command{
		Use:   "history [title]",
		Short: "Show the requests made through resolved clients.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.history(cmd.Context())
			if err != nil {
				return err
			}
			if purge {
				n, err := db.Clear()
				if err != nil {
					return cliError{err, "Could not clear the history."}
				}
				fmt.Fprintf(a.errOut, "Removed %d entries.\n", n)
				return nil
			}
			entries, err := db.List(firstArg(args), limit)
			if err != nil {
				return cliError{err, "Could not read the history."}
			}
			if len(entries) == 0 {
				fmt.Fprintln(a.errOut, "No requests yet.")
				return nil
			}
			printHistory(a.out, entries, stdoutStyles(), isOutputTTY())
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show; 0 shows everything.") //nolint:mnd
	cmd.Flags().BoolVar(&purge, "clear", false, "Delete the whole history.")
	return cmd
}

func printHistory(w io.Writer, entries []history.Entry, s styles, tty bool) {
	for _, e := range entries {
		status := strconv.Itoa(e.Status)
		if e.Status == 0 {
			status = "---"
		}
		if !tty {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", e.Started.Format("2006-01-02T15:04:05Z07:00"), e.Title, e.Method, e.URL, status, e.Duration.Milliseconds())
			continue
		}
		statusStyle := s.Status
		if e.Err != "" || e.Status >= 400 { //nolint:mnd
			statusStyle = s.StatusError
		}
		fmt.Fprintf(
			w,
			"%s %s %s %s %s\n",
			statusStyle.Render(status),
			s.Title.Render(e.Title),
			e.Method,
			e.URL,
			s.Timeago.Render(timeago.Of(e.Started)+", took "+e.Duration.String()),
		)
	}
}
