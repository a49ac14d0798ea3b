package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

// newInjectFlagSet builds a flag set carrying the same flags as inject, so
// profile merging can be tested without running the real command.
func newInjectFlagSet(opts *injectOptions) *pflag.FlagSet {
	flags := pflag.NewFlagSet("inject", pflag.ContinueOnError)
	flags.StringVarP(&opts.kind, "kind", "k", "null-deref", "")
	flags.IntVar(&opts.delay, "delay", 3, "")
	flags.StringVarP(&opts.message, "message", "m", "", "")
	flags.StringVar(&opts.traceback, "traceback", "crash", "")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "")
	flags.StringSliceVar(&opts.ulimit, "ulimit", nil, "")
	flags.StringVar(&opts.coredumpFilter, "coredump-filter", "", "")
	return flags
}

func TestApplyProfile(t *testing.T) {
	path := writeProfile(t, `
kind = "oob-write"
delay = 0
quiet = true
ulimit = ["core=-1"]
`)
	var opts injectOptions
	flags := newInjectFlagSet(&opts)
	require.NoError(t, flags.Parse(nil))
	require.NoError(t, applyProfile(flags, path, &opts))
	assert.Equal(t, "oob-write", opts.kind)
	assert.Equal(t, 0, opts.delay)
	assert.True(t, opts.quiet)
	assert.Equal(t, []string{"core=-1"}, opts.ulimit)
	// Keys the profile does not define keep their flag defaults.
	assert.Equal(t, "crash", opts.traceback)
}

func TestApplyProfileFlagsWin(t *testing.T) {
	path := writeProfile(t, `
kind = "oob-write"
delay = 10
`)
	var opts injectOptions
	flags := newInjectFlagSet(&opts)
	require.NoError(t, flags.Parse([]string{"--kind", "abort"}))
	require.NoError(t, applyProfile(flags, path, &opts))
	assert.Equal(t, "abort", opts.kind, "command line overrides the profile")
	assert.Equal(t, 10, opts.delay, "profile fills in what the command line left alone")
}

func TestApplyProfileMissingFile(t *testing.T) {
	var opts injectOptions
	flags := newInjectFlagSet(&opts)
	require.NoError(t, flags.Parse(nil))
	err := applyProfile(flags, filepath.Join(t.TempDir(), "absent.toml"), &opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading profile")
}
