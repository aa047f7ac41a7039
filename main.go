package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// Build vars.
var (
	//nolint: gochecknoglobals
	Version   = ""
	CommitSHA = ""
)

func buildVersion() string {
	if Version == "" {
		return "unknown (built from source)"
	}
	if len(CommitSHA) >= 7 { //nolint:mnd
		return Version + " (" + CommitSHA[:7] + ")"
	}
	return Version
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           filepath.Base(os.Args[0]),
		Short:         "Resolve model endpoints into ready to use HTTP clients.",
		Long:          "llmconn turns a model title into an HTTP client honoring the model's\ntrust store, proxy, timeout and header settings.",
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.skipSetup {
				return nil
			}
			return a.setup(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return newFlagParseError(err)
	})

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Settings file to use instead of the default one.")
	flags.VarP(newDurationFlag(0, &a.timeout), "timeout", "t", "Override the timeout of every model (e.g. 30s, 2m).")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Print debug logs to stderr.")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "Hide the spinner.")

	root.AddCommand(
		newListCmd(a),
		newShowCmd(a),
		newRequestCmd(a),
		newModelsCmd(a),
		newHistoryCmd(a),
		newMCPCmd(a),
		newSettingsCmd(a),
		newManCmd(root),
	)
	return root
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := newApp(os.Stdout, os.Stderr)
	a.skipSetup = isCompletionCmd(os.Args) || isManCmd(os.Args)

	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, huh.ErrUserAborted) {
			os.Exit(130) //nolint:mnd
		}
		handleError(err)
		cancel()
		os.Exit(1)
	}
}

var completionShells = []string{"bash", "fish", "zsh", "powershell"}

func isHelp(arg string) bool {
	return arg == "-h" || arg == "--help"
}

// isCompletionCmd reports whether args invoke shell completion, which must
// not touch the settings file.
func isCompletionCmd(args []string) bool {
	if len(args) <= 1 {
		return false
	}
	if args[1] == "__complete" {
		return true
	}
	if args[1] != "completion" {
		return false
	}
	switch len(args) {
	case 3: //nolint:mnd
		return isHelp(args[2]) || args[2] == "help" || slices.Contains(completionShells, args[2])
	case 4: //nolint:mnd
		return slices.Contains(completionShells, args[2]) && isHelp(args[3])
	default:
		return false
	}
}

func isManCmd(args []string) bool {
	if len(args) == 2 { //nolint:mnd
		return args[1] == "man"
	}
	if len(args) == 3 && args[1] == "man" { //nolint:mnd
		return isHelp(args[2])
	}
	return false
}

func handleError(err error) {
	format := "\n%s\n\n"

	var args []any
	var ferr flagParseError
	var cerr cliError
	if errors.As(err, &ferr) {
		format += "%s\n\n"
		args = []any{
			fmt.Sprintf(
				"Check out %s %s",
				stderrStyles().InlineCode.Render("llmconn -h"),
				stderrStyles().Comment.Render("for help."),
			),
			fmt.Sprintf(
				ferr.ReasonFormat(),
				stderrStyles().InlineCode.Render(ferr.Flag()),
			),
		}
	} else if errors.As(err, &cerr) {
		format += "%s\n\n"
		args = []any{
			stderrStyles().ErrPadding.Render(stderrStyles().ErrorHeader.String(), cerr.reason),
			stderrStyles().ErrPadding.Render(stderrStyles().ErrorDetails.Render(cerr.Error())),
		}
	} else {
		args = []any{
			stderrStyles().ErrPadding.Render(stderrStyles().ErrorDetails.Render(err.Error())),
		}
	}

	fmt.Fprintf(os.Stderr, format, args...)
}
