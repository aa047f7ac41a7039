package main

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var flagParseErrorTests = []struct {
	in     string
	flag   string
	reason string
}{
	{
		"unknown flag: --nope",
		"--nope",
		"Flag %s is missing.",
	},
	{
		"flag needs an argument: --config",
		"--config",
		"Flag %s needs an argument.",
	},
	{
		"flag needs an argument: 'c' in -c",
		"-c",
		"Flag %s needs an argument.",
	},
	{
		"unknown shorthand flag: 'x' in -x",
		"-x",
		"Short flag %s is missing.",
	},
	{
		`invalid argument "20dd" for "-t, --timeout" flag: time: unknown unit "dd" in duration "20dd"`,
		"-t, --timeout",
		"Flag %s have an invalid argument.",
	},
	{
		`invalid argument "sdfjasdl" for "--limit" flag: strconv.ParseInt: parsing "sdfjasdl": invalid syntax`,
		"--limit",
		"Flag %s have an invalid argument.",
	},
}

func TestFlagParseError(t *testing.T) {
	for _, tf := range flagParseErrorTests {
		t.Run(tf.in, func(t *testing.T) {
			err := newFlagParseError(errors.New(tf.in))
			require.Equal(t, tf.flag, err.Flag())
			require.Equal(t, tf.reason, err.ReasonFormat())
			require.Equal(t, tf.in, err.Error())
		})
	}
}

func TestDurationFlag(t *testing.T) {
	var d time.Duration
	f := newDurationFlag(time.Minute, &d)
	require.Equal(t, time.Minute, d)
	require.Equal(t, "duration", f.Type())

	require.NoError(t, f.Set("90s"))
	require.Equal(t, 90*time.Second, d)
	require.Equal(t, "1m30s", f.String())

	require.NoError(t, f.Set("1d"))
	require.Equal(t, 24*time.Hour, d)

	require.Error(t, f.Set("nope"))
	require.Equal(t, 24*time.Hour, d)
}

func TestHeaderFlag(t *testing.T) {
	var h http.Header
	f := newHeaderFlag(&h)
	require.Equal(t, "header", f.Type())
	require.Empty(t, f.String())

	require.NoError(t, f.Set("x-team: platform"))
	require.NoError(t, f.Set("Accept:application/json"))
	require.NoError(t, f.Set("X-Team: infra"))
	require.Equal(t, []string{"platform", "infra"}, h.Values("X-Team"))
	require.Equal(t, "application/json", h.Get("Accept"))

	require.Error(t, f.Set("no colon"))
	require.Error(t, f.Set(": empty name"))
}
