package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/faultline/faultline/pkg/history"
	"github.com/spf13/cobra"
)

type historyOptions struct {
	kind string
	db   string
	json bool
}

func init() {
	var (
		historyDescription = `
Lists recorded verification runs, oldest first.  Results land here when
"faultline verify" is run with --record.`
		opts historyOptions
	)
	historyCommand := &cobra.Command{
		Use:   "history",
		Short: "List recorded verification runs",
		Long:  historyDescription,
		RunE: func(_ *cobra.Command, _ []string) error {
			return historyCmd(opts)
		},
		Args: cobra.NoArgs,
		Example: `faultline history
  faultline history --kind abort`,
	}
	historyCommand.SetUsageTemplate(UsageTemplate())

	flags := historyCommand.Flags()
	flags.StringVarP(&opts.kind, "kind", "k", "", "only list runs of this fault kind")
	flags.StringVar(&opts.db, "db", "", "history database to read (default "+history.DefaultPath()+")")
	flags.BoolVar(&opts.json, "json", false, "output in JSON format")

	rootCmd.AddCommand(historyCommand)
}

func historyCmd(opts historyOptions) error {
	path := opts.db
	if path == "" {
		path = history.DefaultPath()
	}
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	entries, err := store.List(opts.kind)
	if err != nil {
		return err
	}
	if opts.json {
		data, err := json.MarshalIndent(entries, "", "    ")
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", data)
		return nil
	}
	fmt.Printf("%-25s %-20s %-8s %-40s %s\n", "WHEN", "KIND", "RESULT", "OUTCOME", "DURATION")
	for _, entry := range entries {
		verdict := "ok"
		if !entry.Passed {
			verdict = "FAILED"
		}
		fmt.Printf("%-25s %-20s %-8s %-40s %s\n", entry.When.Local().Format(time.RFC3339), entry.Kind, verdict, entry.Outcome, entry.Duration.Round(time.Millisecond))
	}
	return nil
}
