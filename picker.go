package main

import (
	"context"
	"os"

	"github.com/charmbracelet/huh"
)

// pickModel asks which of titles to use.
func pickModel(ctx context.Context, titles []string) (string, error) {
	var title string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Choose a model:").
				Options(huh.NewOptions(titles...)...).
				Value(&title),
		),
	).
		WithOutput(os.Stderr).
		WithShowHelp(false).
		RunWithContext(ctx)
	if err != nil {
		return "", err //nolint:wrapcheck
	}
	return title, nil
}
