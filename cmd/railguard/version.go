package main

import (
	"fmt"
	rtdebug "runtime/debug"

	"github.com/spf13/cobra"
)

// appVersion is overridden at release time via -ldflags.
var appVersion = "dev"

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the railguard version",
		Run: func(cmd *cobra.Command, args []string) {
			v := appVersion
			if v == "dev" {
				if info, ok := rtdebug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
					v = info.Main.Version
				}
			}
			fmt.Println(v)
		},
	}
}
