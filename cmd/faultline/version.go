package main

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/faultline/faultline/define"
	"github.com/spf13/cobra"
)

// Overwritten at build time
var (
	GitCommit string
	buildInfo string
)

type versionInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"goVersion"`
	GitCommit string `json:"gitCommit"`
	Built     string `json:"built"`
	OsArch    string `json:"osArch"`
}

type versionOptions struct {
	json bool
}

func init() {
	var opts versionOptions

	versionCommand := &cobra.Command{
		Use:   "version",
		Short: "Display the faultline version information",
		Long:  "Displays faultline version information.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return versionCmd(opts)
		},
		Args:    cobra.NoArgs,
		Example: `faultline version`,
	}
	versionCommand.SetUsageTemplate(UsageTemplate())

	flags := versionCommand.Flags()
	flags.BoolVar(&opts.json, "json", false, "output in JSON format")

	rootCmd.AddCommand(versionCommand)
}

func versionCmd(opts versionOptions) error {
	var err error
	buildTime := int64(0)
	if buildInfo != "" {
		// converting unix time from string to int64
		buildTime, err = strconv.ParseInt(buildInfo, 10, 64)
		if err != nil {
			return err
		}
	}

	version := versionInfo{
		Version:   define.Version,
		GoVersion: runtime.Version(),
		GitCommit: GitCommit,
		Built:     time.Unix(buildTime, 0).Format(time.ANSIC),
		OsArch:    runtime.GOOS + "/" + runtime.GOARCH,
	}

	if opts.json {
		data, err := json.MarshalIndent(version, "", "    ")
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", data)
		return nil
	}

	fmt.Println("Version:    ", version.Version)
	fmt.Println("Go Version: ", version.GoVersion)
	fmt.Println("Git Commit: ", version.GitCommit)
	fmt.Println("Built:      ", version.Built)
	fmt.Println("OS/Arch:    ", version.OsArch)

	return nil
}
