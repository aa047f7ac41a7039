package main

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/duration"
	"github.com/spf13/pflag"
)

var (
	_ pflag.Value = new(durationFlag)
	_ pflag.Value = new(headerFlag)
)

var (
	shorthandFlagRe = regexp.MustCompile(`unknown shorthand flag: '.*' in (-\w)`)
	invalidFlagRe   = regexp.MustCompile(`invalid argument ".*" for "(.*)" flag: .*`)
)

func newFlagParseError(err error) flagParseError {
	var reason, flag string
	s := err.Error()
	switch {
	case strings.HasPrefix(s, "flag needs an argument:"):
		reason = "Flag %s needs an argument."
		ps := strings.Split(s, "-")
		switch len(ps) {
		case 2: //nolint:mnd
			flag = "-" + ps[len(ps)-1]
		case 3: //nolint:mnd
			flag = "--" + ps[len(ps)-1]
		}
	case strings.HasPrefix(s, "unknown flag:"):
		reason = "Flag %s is missing."
		flag = strings.TrimPrefix(s, "unknown flag: ")
	case strings.HasPrefix(s, "unknown shorthand flag:"):
		reason = "Short flag %s is missing."
		if parts := shorthandFlagRe.FindStringSubmatch(s); len(parts) > 1 {
			flag = parts[1]
		}
	case strings.HasPrefix(s, "invalid argument"):
		reason = "Flag %s have an invalid argument."
		if parts := invalidFlagRe.FindStringSubmatch(s); len(parts) > 1 {
			flag = parts[1]
		}
	default:
		reason = s
	}
	return flagParseError{
		err:    err,
		reason: reason,
		flag:   flag,
	}
}

type flagParseError struct {
	err    error
	reason string
	flag   string
}

func (f flagParseError) Error() string {
	return f.err.Error()
}

func (f flagParseError) ReasonFormat() string {
	return f.reason
}

func (f flagParseError) Flag() string {
	return f.flag
}

func newDurationFlag(val time.Duration, p *time.Duration) *durationFlag {
	*p = val
	return (*durationFlag)(p)
}

// durationFlag accepts days and weeks on top of the usual duration units.
type durationFlag time.Duration

func (d *durationFlag) Set(s string) error {
	v, err := duration.Parse(s)
	if err != nil {
		return err //nolint:wrapcheck
	}
	if v < 0 {
		return fmt.Errorf("negative duration %s", s)
	}
	*d = durationFlag(v)
	return nil
}

func (d *durationFlag) String() string {
	return time.Duration(*d).String()
}

func (*durationFlag) Type() string {
	return "duration"
}

// headerFlag collects repeated "Name: value" flags.
type headerFlag http.Header

func newHeaderFlag(p *http.Header) *headerFlag {
	if *p == nil {
		*p = http.Header{}
	}
	return (*headerFlag)(p)
}

func (h *headerFlag) Set(s string) error {
	name, value, ok := strings.Cut(s, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("expected Name: value, got %q", s)
	}
	http.Header(*h).Add(name, strings.TrimSpace(value))
	return nil
}

func (h *headerFlag) String() string {
	if h == nil || len(*h) == 0 {
		return ""
	}
	var b strings.Builder
	_ = http.Header(*h).Write(&b)
	return strings.Join(strings.Fields(strings.ReplaceAll(b.String(), "\r\n", ", ")), " ")
}

func (*headerFlag) Type() string {
	return "header"
}
