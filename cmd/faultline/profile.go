package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// profileConfig mirrors the inject flags that make sense to preset from a
// file, so that repeatable crash scenarios can be checked into a repo and
// run as "faultline inject --profile scenario.toml".
type profileConfig struct {
	Kind           string   `toml:"kind"`
	Delay          int      `toml:"delay"`
	Message        string   `toml:"message"`
	Traceback      string   `toml:"traceback"`
	Quiet          bool     `toml:"quiet"`
	Ulimit         []string `toml:"ulimit"`
	CoredumpFilter string   `toml:"coredump-filter"`
}

// applyProfile overlays values from the profile at path onto iopts, for
// every key the file defines and the command line did not override.
func applyProfile(flags *pflag.FlagSet, path string, iopts *injectOptions) error {
	var config profileConfig
	metadata, err := toml.DecodeFile(path, &config)
	if err != nil {
		return fmt.Errorf("reading profile %q: %w", path, err)
	}
	if undecoded := metadata.Undecoded(); len(undecoded) > 0 {
		logrus.Warnf("profile %q has unrecognized keys: %v", path, undecoded)
	}
	apply := func(key, flag string, assign func()) {
		if metadata.IsDefined(key) && !flags.Changed(flag) {
			assign()
		}
	}
	apply("kind", "kind", func() { iopts.kind = config.Kind })
	apply("delay", "delay", func() { iopts.delay = config.Delay })
	apply("message", "message", func() { iopts.message = config.Message })
	apply("traceback", "traceback", func() { iopts.traceback = config.Traceback })
	apply("quiet", "quiet", func() { iopts.quiet = config.Quiet })
	apply("ulimit", "ulimit", func() { iopts.ulimit = config.Ulimit })
	apply("coredump-filter", "coredump-filter", func() { iopts.coredumpFilter = config.CoredumpFilter })
	return nil
}
