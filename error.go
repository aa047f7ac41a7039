package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/charmbracelet/llmconn/internal/catalog"
	"github.com/charmbracelet/llmconn/internal/certs"
	"github.com/charmbracelet/llmconn/internal/config"
	"github.com/charmbracelet/llmconn/internal/fetch"
	"github.com/charmbracelet/llmconn/internal/resolver"
)

// newUserErrorf is a user-facing error.
// this function is mostly to avoid linters complain about errors starting with a capitalized letter.
func newUserErrorf(format string, a ...any) error {
	return fmt.Errorf(format, a...)
}

// cliError is a wrapper around an error that adds a reason for the user.
type cliError struct {
	err    error
	reason string
}

func (c cliError) Error() string {
	return c.err.Error()
}

func (c cliError) Reason() string {
	return c.reason
}

func (c cliError) Unwrap() error {
	return c.err
}

// explain attaches a reason to the errors the connection layer produces.
// Errors that already carry one are returned as is.
func explain(err error) error {
	if err == nil {
		return nil
	}
	if cerr := (cliError{}); errors.As(err, &cerr) {
		return err
	}

	var nferr *resolver.NotFoundError
	var rerr *certs.ReadError
	var herr *fetch.HTTPError
	switch {
	case errors.As(err, &nferr):
		if nferr.Title == "" {
			return cliError{err, "No models configured."}
		}
		return cliError{err, fmt.Sprintf("Model %q is not configured.", nferr.Title)}
	case errors.As(err, &rerr):
		return cliError{err, fmt.Sprintf("Could not read CA bundle %s.", rerr.Path)}
	case errors.Is(err, config.ErrInvalid):
		return cliError{err, "Invalid settings file."}
	case errors.As(err, &herr):
		return cliError{err, httpReason(herr)}
	case errors.Is(err, catalog.ErrNoModels):
		return cliError{err, "The endpoint listed no models."}
	case errors.Is(err, fs.ErrNotExist):
		return cliError{err, "Could not read settings file."}
	default:
		return err
	}
}

func httpReason(err *fetch.HTTPError) string {
	switch err.StatusCode {
	case http.StatusNotFound:
		return "Endpoint not found."
	case http.StatusUnauthorized, http.StatusForbidden:
		return "Invalid API key."
	case http.StatusTooManyRequests:
		return "You've hit the API rate limit."
	default:
		if err.StatusCode >= http.StatusInternalServerError {
			return "API server error."
		}
		return "API request error."
	}
}
