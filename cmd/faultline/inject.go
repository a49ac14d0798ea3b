package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/faultline/faultline"
	"github.com/faultline/faultline/define"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type injectOptions struct {
	kind           string
	delay          int
	message        string
	traceback      string
	quiet          bool
	ulimit         []string
	coredumpFilter string
	profile        string
}

func init() {
	var (
		injectDescription = fmt.Sprintf(`
Deliberately crashes this process with the selected fault, after printing a
message and guidance for collecting the resulting core dump.

This command does not return.  Supported kinds: %s.`, strings.Join(define.FaultKindNames(), ", "))
		opts injectOptions
	)
	injectCommand := &cobra.Command{
		Use:   "inject",
		Short: "Crash this process with the selected fault",
		Long:  injectDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			return injectCmd(cmd, args, opts)
		},
		Args: cobra.NoArgs,
		Example: `faultline inject
  faultline inject --kind oob-write --delay 0
  faultline inject --kind abort --ulimit core=-1 --quiet`,
	}
	injectCommand.SetUsageTemplate(UsageTemplate())

	flags := injectCommand.Flags()
	flags.StringVarP(&opts.kind, "kind", "k", define.FaultNullDereference.String(), "fault kind to trigger")
	flags.IntVar(&opts.delay, "delay", 3, "seconds to wait between announcing and triggering")
	flags.StringVarP(&opts.message, "message", "m", "", "message to print, and flush, before anything else")
	flags.StringVar(&opts.traceback, "traceback", faultline.DefaultTraceback, "runtime traceback level to install before triggering")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "skip the core-dump setup guidance")
	flags.StringSliceVar(&opts.ulimit, "ulimit", nil, "resource limits to apply to ourselves first (name=SOFT[:HARD], -1 for unlimited)")
	flags.StringVar(&opts.coredumpFilter, "coredump-filter", "", "hex bitmask to write to /proc/self/coredump_filter first")
	flags.StringVar(&opts.profile, "profile", "", "TOML file with defaults for these flags")

	rootCmd.AddCommand(injectCommand)
}

func injectCmd(c *cobra.Command, _ []string, iopts injectOptions) error {
	if iopts.profile != "" {
		if err := applyProfile(c.Flags(), iopts.profile, &iopts); err != nil {
			return err
		}
	}
	kind, err := define.ParseFaultKind(iopts.kind)
	if err != nil {
		return err
	}
	injector, err := faultline.New(faultline.InjectorOptions{
		Kind:           kind,
		Delay:          time.Duration(iopts.delay) * time.Second,
		Message:        iopts.message,
		Quiet:          iopts.quiet,
		Traceback:      iopts.traceback,
		Ulimits:        iopts.ulimit,
		CoredumpFilter: iopts.coredumpFilter,
	})
	if err != nil {
		return err
	}
	logrus.Debugf("injecting %s", kind)
	injector.Inject()
	// Inject does not return; reaching this line means it broke its
	// contract without the guard catching it.
	return fmt.Errorf("%s failed to terminate the process", kind)
}
