package main

import (
	"fmt"
	"os"

	"github.com/faultline/faultline"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	LogLevel string
}

var (
	description = `A tool that crashes itself on purpose.

  Triggers process-fatal faults in controlled ways, so coredump collection
  and crash-reporting pipelines can be exercised on demand.`
	rootCmd = &cobra.Command{
		Use:  faultline.Package,
		Long: description,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return before()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	globalFlagResults globalFlags
)

func before() error {
	level, err := logrus.ParseLevel(globalFlagResults.LogLevel)
	if err != nil {
		return fmt.Errorf("parsing log level %q: %w", globalFlagResults.LogLevel, err)
	}
	logrus.SetLevel(level)
	return nil
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&globalFlagResults.LogLevel, "log-level", "warn", `the log level to be used, one of "trace", "debug", "info", "warn", "error", "fatal", or "panic"`)
}

func main() {
	if faultline.InitReexec() {
		return
	}
	if err := rootCmd.Execute(); err != nil {
		logrus.Errorf("%v", err)
		os.Exit(1)
	}
}
