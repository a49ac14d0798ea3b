package main

import (
	"fmt"

	"github.com/faultline/faultline/pkg/guidance"
	"github.com/spf13/cobra"
)

type guidanceOptions struct {
	check bool
}

func init() {
	var (
		guidanceDescription = `
Prints the commands an operator needs to have run before a deliberate crash
produces a usable core dump.  With --check, reads the current settings
instead and reports anything that would lose the dump.`
		opts guidanceOptions
	)
	guidanceCommand := &cobra.Command{
		Use:   "guidance",
		Short: "Print core-dump setup guidance, or check the current settings",
		Long:  guidanceDescription,
		RunE: func(_ *cobra.Command, _ []string) error {
			return guidanceCmd(opts)
		},
		Args: cobra.NoArgs,
		Example: `faultline guidance
  faultline guidance --check`,
	}
	guidanceCommand.SetUsageTemplate(UsageTemplate())

	flags := guidanceCommand.Flags()
	flags.BoolVar(&opts.check, "check", false, "inspect the current settings instead of printing instructions")

	rootCmd.AddCommand(guidanceCommand)
}

func guidanceCmd(opts guidanceOptions) error {
	if !opts.check {
		fmt.Print(guidance.Text())
		return nil
	}
	snapshot, err := guidance.TakeSnapshot()
	if err != nil {
		return err
	}
	fmt.Println("kernel.core_pattern:", snapshot.CorePattern)
	if len(snapshot.PipeHandler) > 0 {
		fmt.Println("pipe handler:       ", snapshot.PipeHandler[0])
	}
	fmt.Println("RLIMIT_CORE:        ", snapshot.CoreLimit)
	if snapshot.CoredumpFilter != "" {
		fmt.Println("coredump_filter:    ", snapshot.CoredumpFilter)
	}
	if snapshot.Traceback != "" {
		fmt.Println("GOTRACEBACK:        ", snapshot.Traceback)
	}
	problems := snapshot.Problems()
	for _, problem := range problems {
		fmt.Println("problem:", problem)
	}
	if len(problems) > 0 {
		return fmt.Errorf("%d problem(s) would lose the core dump", len(problems))
	}
	fmt.Println("core dumps should land correctly")
	return nil
}
