package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/docker/go-units"
	"github.com/faultline/faultline/define"
	"github.com/faultline/faultline/pkg/harness"
	"github.com/faultline/faultline/pkg/history"
	"github.com/faultline/faultline/pkg/rusage"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type verifyOptions struct {
	kinds    []string
	timeout  int
	delay    int
	parallel int
	record   bool
	db       string
	json     bool
}

func init() {
	var (
		verifyDescription = `
Spawns one child process per fault kind, lets each child crash itself, and
checks that every death produced the expected signal and diagnostics.`
		opts verifyOptions
	)
	verifyCommand := &cobra.Command{
		Use:   "verify",
		Short: "Crash child processes and check that each death looks right",
		Long:  verifyDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			return verifyCmd(cmd, args, opts)
		},
		Args: cobra.NoArgs,
		Example: `faultline verify
  faultline verify --kind abort --kind panic
  faultline verify --parallel 3 --record`,
	}
	verifyCommand.SetUsageTemplate(UsageTemplate())

	flags := verifyCommand.Flags()
	flags.StringSliceVarP(&opts.kinds, "kind", "k", nil, "fault kinds to verify (default all of them)")
	flags.IntVar(&opts.timeout, "timeout", 30, "seconds each child gets to die, beyond the delay")
	flags.IntVar(&opts.delay, "delay", 0, "seconds each child waits before triggering")
	flags.IntVar(&opts.parallel, "parallel", 1, "how many children to run at once")
	flags.BoolVar(&opts.record, "record", false, "record results in the history database")
	flags.StringVar(&opts.db, "db", "", "history database to record into (default "+history.DefaultPath()+")")
	flags.BoolVar(&opts.json, "json", false, "output in JSON format")

	rootCmd.AddCommand(verifyCommand)
}

func formatResult(result harness.Result) string {
	verdict := "ok"
	if !result.Passed() {
		verdict = "FAILED"
	}
	line := fmt.Sprintf("%-20s %-8s %s in %v", result.KindName, verdict, result.Status, result.Duration.Round(time.Millisecond))
	if rusage.Supported() && result.Usage.Maxrss > 0 {
		line += fmt.Sprintf(", %s peak rss", units.HumanSize(float64(result.Usage.Maxrss)))
	}
	return line
}

func verifyCmd(c *cobra.Command, _ []string, iopts verifyOptions) error {
	var kinds []define.FaultKind
	for _, name := range iopts.kinds {
		kind, err := define.ParseFaultKind(name)
		if err != nil {
			return err
		}
		kinds = append(kinds, kind)
	}
	options := harness.Options{
		Kinds:    kinds,
		Delay:    time.Duration(iopts.delay) * time.Second,
		Timeout:  time.Duration(iopts.timeout) * time.Second,
		Parallel: iopts.parallel,
	}
	// Print results as they land when someone is watching; in a pipeline,
	// the block of lines at the end is easier on the logs.
	live := !iopts.json && term.IsTerminal(int(os.Stdout.Fd()))
	if live {
		options.OnResult = func(result harness.Result) {
			fmt.Println(formatResult(result))
		}
	}

	results, err := harness.Run(context.Background(), options)
	if iopts.record {
		if recordErr := recordResults(iopts.db, results); recordErr != nil {
			err = multierror.Append(err, recordErr).ErrorOrNil()
		}
	}
	if iopts.json {
		data, jsonErr := json.MarshalIndent(results, "", "    ")
		if jsonErr != nil {
			return jsonErr
		}
		fmt.Printf("%s\n", data)
		return err
	}
	if !live {
		for _, result := range results {
			fmt.Println(formatResult(result))
		}
	}
	passed := 0
	for _, result := range results {
		if result.Passed() {
			passed++
		}
	}
	fmt.Printf("%d/%d kinds terminated correctly\n", passed, len(results))
	return err
}

func recordResults(path string, results []harness.Result) error {
	if path == "" {
		path = history.DefaultPath()
	}
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	entries := make([]history.Entry, 0, len(results))
	for _, result := range results {
		entries = append(entries, history.Entry{
			ID:         result.ID,
			Kind:       result.KindName,
			When:       result.StartedAt.UTC(),
			Duration:   result.Duration,
			Outcome:    result.Status.String(),
			CoreDumped: result.Status.CoreDumped,
			MaxRSS:     result.Usage.Maxrss,
			Passed:     result.Passed(),
			Failure:    result.Failure,
		})
	}
	return store.Record(entries...)
}
