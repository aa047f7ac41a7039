package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/llmconn/internal/config"
	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
)

func newSettingsCmd(a *app) *cobra.Command {
	var reset, path bool
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Open the settings file in your editor.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch {
			case path:
				fmt.Fprintln(a.out, a.configPath)
				return nil
			case reset:
				if err := config.Reset(a.configPath); err != nil {
					return cliError{err, "Could not reset the settings file."}
				}
				fmt.Fprintf(a.errOut, "Settings restored to defaults, the old file was saved as %s.\n", a.configPath+".bak")
				return nil
			}

			c, err := editor.Cmd("llmconn", a.configPath)
			if err != nil {
				return cliError{err, "Could not edit your settings file."}
			}
			c.Stdin = os.Stdin
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			if err := c.Run(); err != nil {
				return cliError{err, fmt.Sprintf("Missing %s.", stderrStyles().InlineCode.Render("$EDITOR"))}
			}

			a.connector.Reload()
			cfg, err := a.config(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.errOut, "Wrote config file to: %s (%d models)\n", a.configPath, len(cfg.Models))
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "Restore the default settings, keeping a backup.")
	cmd.Flags().BoolVar(&path, "path", false, "Print the settings file location.")
	cmd.MarkFlagsMutuallyExclusive("reset", "path")
	return cmd
}
