package main

import (
	"encoding/json"
	"fmt"

	"github.com/faultline/faultline/define"
	"github.com/spf13/cobra"
)

type kindsOptions struct {
	json bool
}

type kindInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func init() {
	var opts kindsOptions

	kindsCommand := &cobra.Command{
		Use:   "kinds",
		Short: "List the supported fault kinds",
		Long:  "Lists every supported fault kind and what triggering it does.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return kindsCmd(opts)
		},
		Args:    cobra.NoArgs,
		Example: `faultline kinds`,
	}
	kindsCommand.SetUsageTemplate(UsageTemplate())

	flags := kindsCommand.Flags()
	flags.BoolVar(&opts.json, "json", false, "output in JSON format")

	rootCmd.AddCommand(kindsCommand)
}

func kindsCmd(opts kindsOptions) error {
	kinds := define.AllFaultKinds()
	if opts.json {
		infos := make([]kindInfo, 0, len(kinds))
		for _, kind := range kinds {
			infos = append(infos, kindInfo{Name: kind.String(), Description: kind.Description()})
		}
		data, err := json.MarshalIndent(infos, "", "    ")
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", data)
		return nil
	}
	fmt.Printf("%-20s %s\n", "KIND", "DESCRIPTION")
	for _, kind := range kinds {
		fmt.Printf("%-20s %s\n", kind, kind.Description())
	}
	return nil
}
